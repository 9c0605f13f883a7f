package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gopherai-docchat/internal/bootstrap"
	"gopherai-docchat/internal/transport/http/handler"
	"gopherai-docchat/internal/transport/http/middleware"
)

type Handlers struct {
	Documents *handler.DocumentHandler
	Sessions  *handler.SessionHandler
	Chat      *handler.ChatHandler
	Health    *handler.HealthHandler
}

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)

	checks := make(map[string]handler.HealthCheck)
	for name, check := range app.HealthChecks() {
		checks[name] = check
	}

	return newEngine(app.Logger, Handlers{
		Documents: handler.NewDocumentHandler(app.Documents, app.Config.MaxUploadBytes()),
		Sessions:  handler.NewSessionHandler(app.Sessions),
		Chat:      handler.NewChatHandler(app.Chat),
		Health:    handler.NewHealthHandler(app.Config.App.Name, app.Config.App.Env, app.StartedAt, checks),
	})
}

func newEngine(log *zap.Logger, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.AccessLog(log), gin.Recovery())
	Register(router, h)
	return router
}

// Register mounts the API routes. Handlers left nil are skipped.
func Register(router gin.IRouter, h Handlers) {
	if h.Health != nil {
		router.GET("/healthz", h.Health.Check)
	}

	v1 := router.Group("/api/v1")

	documents := v1.Group("/documents")
	if h.Documents != nil {
		documents.POST("", h.Documents.Upload)
		documents.GET("", h.Documents.List)
		documents.GET("/:id", h.Documents.Get)
		documents.DELETE("/:id", h.Documents.Delete)
		v1.POST("/admin/reconcile", h.Documents.Reconcile)
	}
	if h.Sessions != nil {
		documents.POST("/:id/sessions", h.Sessions.Create)
		documents.GET("/:id/sessions", h.Sessions.ListByDocument)

		v1.GET("/sessions/:id", h.Sessions.Get)
		v1.DELETE("/sessions/:id", h.Sessions.Delete)
	}
	if h.Chat != nil {
		v1.POST("/sessions/:id/messages", h.Chat.SendMessage)
	}
}
