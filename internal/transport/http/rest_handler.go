package http

import (
	"errors"
	"net/http"
	"strings"

	"english-practice-service/internal/app"
	"english-practice-service/internal/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RESTHandler exposes the simulation, vocabulary and progress use cases.
type RESTHandler struct {
	simulations *app.SimulationService
	vocabulary  *app.VocabularyService
	progress    *app.ProgressService
	defaults    app.BuildConfig
	log         *zap.Logger
}

// NewRESTHandler wires the services. defaults fills fields missing from a
// simulation request.
func NewRESTHandler(sims *app.SimulationService, vocab *app.VocabularyService, progress *app.ProgressService, defaults app.BuildConfig, log *zap.Logger) *RESTHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &RESTHandler{simulations: sims, vocabulary: vocab, progress: progress, defaults: defaults, log: log}
}

func (h *RESTHandler) ListQuestions(c *gin.Context) {
	filter := domain.QuestionFilter{
		Type:      domain.QuestionType(c.Query("type")),
		PassageID: c.Query("passageId"),
	}
	questions, err := h.simulations.ListQuestions(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	if questions == nil {
		questions = []domain.Question{}
	}
	c.JSON(http.StatusOK, questions)
}

func (h *RESTHandler) CreateSimulation(c *gin.Context) {
	cfg := h.defaults
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&cfg); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if cfg.SentenceCompletion < 0 || cfg.Restatement < 0 || cfg.Passages < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "counts must not be negative"})
		return
	}
	sim, err := h.simulations.CreateSimulation(c.Request.Context(), cfg)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sim)
}

func (h *RESTHandler) CreateQuiz(c *gin.Context) {
	var cfg app.QuizConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sim, err := h.simulations.CreateQuiz(c.Request.Context(), cfg)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sim)
}

func (h *RESTHandler) GetSimulation(c *gin.Context) {
	sim, err := h.simulations.GetSimulation(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sim)
}

// RunState returns the current snapshot of a run driven over this instance's websocket.
func (h *RESTHandler) RunState(c *gin.Context) {
	runner, err := h.simulations.Run(c.Param("runId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, runner.Snapshot())
}

func (h *RESTHandler) History(c *gin.Context) {
	entries, err := h.simulations.History(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

func (h *RESTHandler) Words(c *gin.Context) {
	words, err := h.vocabulary.Words(c.Request.Context(), c.Param("userId"), c.Query("category"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if words == nil {
		words = []domain.Word{}
	}
	c.JSON(http.StatusOK, words)
}

func (h *RESTHandler) CycleWord(c *gin.Context) {
	word, err := h.vocabulary.CycleWord(c.Request.Context(), c.Param("userId"), c.Param("wordId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, word)
}

func (h *RESTHandler) VocabularyProgress(c *gin.Context) {
	progress, err := h.vocabulary.Progress(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

// TrackProgress returns the stored tip or topic statuses and, when ids is
// given, the done share of that group.
func (h *RESTHandler) TrackProgress(c *gin.Context) {
	kind, err := domain.ParseTrackKind(c.Param("kind"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ctx := c.Request.Context()
	userID := c.Param("userId")

	statuses, err := h.progress.Statuses(ctx, userID, kind)
	if err != nil {
		h.fail(c, err)
		return
	}
	resp := gin.H{"statuses": statuses}
	if ids := splitIDs(c.Query("ids")); len(ids) > 0 {
		group, err := h.progress.Group(ctx, userID, kind, ids)
		if err != nil {
			h.fail(c, err)
			return
		}
		resp["group"] = group
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RESTHandler) CycleTrack(c *gin.Context) {
	kind, err := domain.ParseTrackKind(c.Param("kind"))
	if err != nil {
		h.fail(c, err)
		return
	}
	status, err := h.progress.Cycle(c.Request.Context(), c.Param("userId"), kind, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "status": status})
}

func (h *RESTHandler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSimulationNotFound),
		errors.Is(err, domain.ErrWordNotFound),
		errors.Is(err, domain.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidQuestionType),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrOptionOutOfRange),
		errors.Is(err, domain.ErrQuestionIndexOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrStageSubmitted),
		errors.Is(err, domain.ErrIncompleteStage),
		errors.Is(err, domain.ErrRunFinished),
		errors.Is(err, domain.ErrRunClosed),
		errors.Is(err, domain.ErrRunNotStarted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func splitIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
