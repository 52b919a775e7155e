package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	AllowOrigins []string
	Logger       *zap.Logger
}

// NewRouter mounts the REST API, the run websocket and the health check.
func NewRouter(rest *RESTHandler, ws *WSHandler, opts RouterOptions) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log))
	if len(opts.AllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opts.AllowOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/ws/run", gin.WrapF(ws.ServeWS))

	api := r.Group("/api")
	{
		api.GET("/questions", rest.ListQuestions)
		api.POST("/simulations", rest.CreateSimulation)
		api.GET("/simulations/:id", rest.GetSimulation)
		api.POST("/quizzes", rest.CreateQuiz)
		api.GET("/runs/:runId", rest.RunState)
	}

	users := api.Group("/users/:userId")
	{
		users.GET("/history", rest.History)
		users.GET("/words", rest.Words)
		users.POST("/words/:wordId/cycle", rest.CycleWord)
		users.GET("/progress", rest.VocabularyProgress)
		users.GET("/progress/:kind", rest.TrackProgress)
		users.POST("/progress/:kind/:id/cycle", rest.CycleTrack)
	}
	return r
}

// RequestLogger logs every request through zap.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}

		switch {
		case status >= 500:
			log.Error("server error", fields...)
		case status >= 400:
			log.Warn("client error", fields...)
		default:
			log.Debug("request processed", fields...)
		}
	}
}
