package handlers

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"thumbnail-editor-backend/internal/config"
	"thumbnail-editor-backend/internal/middleware"
)

type Handlers struct {
	Health   *HealthHandler
	Auth     *AuthHandler
	Projects *ProjectsHandler
	Edits    *EditsHandler
	Generate *GenerateHandler
}

func NewRouter(cfg *config.Config, log *zap.Logger, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestLogger(log))
	router.Use(gin.Recovery())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check (no auth)
	router.GET("/health", h.Health.Health)

	auth := middleware.AuthMiddleware(cfg)

	// Path the editor page has always called
	router.POST("/api/generate-image", auth, h.Generate.GenerateImage)

	public := router.Group("/api/v1")
	public.POST("/auth/otp", h.Auth.SendOTP)
	public.POST("/auth/verify", h.Auth.VerifyOTP)
	if middleware.DevBypassEnabled(cfg) {
		public.POST("/auth/dev-bypass", h.Auth.DevBypass)
	}

	api := router.Group("/api/v1")
	api.Use(auth)

	api.POST("/auth/signout", h.Auth.SignOut)
	api.GET("/me", h.Auth.Me)
	api.POST("/generate-image", h.Generate.GenerateImage)

	// Project routes
	api.POST("/projects", h.Projects.CreateProject)
	api.GET("/projects", h.Projects.ListProjects)
	api.GET("/projects/:project_id", h.Projects.GetProject)
	api.PATCH("/projects/:project_id", h.Projects.UpdateProject)
	api.POST("/projects/:project_id/archive", h.Projects.ArchiveProject)
	api.DELETE("/projects/:project_id", h.Projects.DeleteProject)

	// Edits and history
	api.POST("/projects/:project_id/edits", h.Edits.SubmitEdit)
	api.GET("/projects/:project_id/edits", h.Edits.ListEdits)
	api.DELETE("/projects/:project_id/edits/:edit_id", h.Edits.DeleteEdit)
	api.GET("/projects/:project_id/history", h.Edits.History)
	api.POST("/projects/:project_id/history/restore", h.Edits.Restore)

	return router
}
