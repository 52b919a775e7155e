package http

import (
	"encoding/json"
	"net/http"

	"english-practice-service/internal/app"
	"english-practice-service/internal/domain"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WSHandler drives one simulation run per websocket connection.
type WSHandler struct {
	service  *app.SimulationService
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewWSHandler(service *app.SimulationService, log *zap.Logger) *WSHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	Option int `json:"option"`
}

type gotoPayload struct {
	Index int `json:"index"`
}

type startedPayload struct {
	RunID      string            `json:"runId"`
	Simulation domain.Simulation `json:"simulation"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
}

// ServeWS upgrades the request, starts a run of simulationId for userId and
// streams runner snapshots until the client disconnects.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	simulationID := r.URL.Query().Get("simulationId")
	userID := r.URL.Query().Get("userId")
	if simulationID == "" || userID == "" {
		http.Error(w, "missing simulationId or userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	runner, err := h.service.StartRun(r.Context(), userID, simulationID)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}
	defer h.service.EndRun(runner.ID())

	updates, cancel := runner.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// single writer: gorilla connections do not support concurrent writes
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "started", Payload: startedPayload{RunID: runner.ID(), Simulation: runner.Simulation()}}

	go func() {
		defer close(updatesDone)
		for {
			select {
			case snap, ok := <-updates:
				if !ok {
					return
				}
				typ := "state"
				if snap.Finished {
					typ = "finished"
				}
				select {
				case send <- outboundMessage[any]{Type: typ, Payload: snap}:
				case <-writerDone:
					return
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.dispatch(runner, inbound); err != nil {
			select {
			case send <- errorMessage(err):
			case <-writerDone:
			}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(runner *app.Runner, msg inboundMessage) error {
	switch msg.Type {
	case "select":
		var payload selectPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return errInvalidPayload
		}
		return runner.SelectAnswer(payload.Option)
	case "next":
		return runner.Next()
	case "previous":
		return runner.Previous()
	case "goto":
		var payload gotoPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return errInvalidPayload
		}
		return runner.GoTo(payload.Index)
	case "submit":
		return runner.SubmitStage()
	case "forceSubmit":
		return runner.ForceSubmit()
	default:
		return errUnsupportedMessage
	}
}
