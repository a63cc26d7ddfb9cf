package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/socialpulse/backend/internal/service"
)

type RouterDeps struct {
	Auth             *service.AuthService
	Chat             *service.ChatService
	Workflows        *service.WorkflowService
	Blacklist        RevocationModeReporter
	AllowedOrigins   []string
	AllowCredentials bool
	Logger           logrus.FieldLogger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if deps.Logger != nil {
		router.Use(RequestLogger(deps.Logger))
	}
	router.Use(CORSMiddleware(deps.AllowedOrigins, deps.AllowCredentials))

	router.GET("/", Root)
	router.GET("/ping", Ping)
	router.GET("/healthz", Healthz(deps.Blacklist))
	router.GET("/openapi.json", OpenAPIDoc)

	authHandler := NewAuthHandler(deps.Auth)
	requireAuth := AuthMiddleware(deps.Auth)

	auth := router.Group("/api/v1/auth")
	auth.GET("/config", authHandler.Config)
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/me", requireAuth, authHandler.Me)

	if deps.Chat != nil {
		chatHandler := NewChatHandler(deps.Chat)
		chat := router.Group("/api/v1/chat", requireAuth)
		chat.GET("/sessions", chatHandler.ListSessions)
		chat.POST("/sessions", chatHandler.CreateSession)
		chat.GET("/sessions/:id", chatHandler.GetSession)
		chat.PATCH("/sessions/:id", chatHandler.RenameSession)
		chat.DELETE("/sessions/:id", chatHandler.DeleteSession)
	}

	if deps.Workflows != nil {
		workflowHandler := NewWorkflowHandler(deps.Workflows)
		workflows := router.Group("/api/v1/workflows", requireAuth)
		workflows.GET("", workflowHandler.ListWorkflows)
		workflows.POST("", workflowHandler.CreateWorkflow)
		workflows.GET("/:id", workflowHandler.GetWorkflow)
		workflows.PATCH("/:id", workflowHandler.UpdateWorkflow)
		workflows.DELETE("/:id", workflowHandler.DeleteWorkflow)
		workflows.POST("/:id/runs", workflowHandler.RecordRun)
		workflows.POST("/:id/duplicate", workflowHandler.DuplicateWorkflow)
	}

	return router
}
