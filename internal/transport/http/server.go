package http

import (
	"path/filepath"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"courseassist/internal/app"
	"courseassist/internal/bootstrap"
	"courseassist/internal/logging"
	"courseassist/internal/transport/http/handler"
	"courseassist/internal/transport/http/middleware"
)

func NewRouter(a *bootstrap.App) *gin.Engine {
	gin.SetMode(a.Config.App.GinMode)
	router := gin.New()
	router.Use(
		gin.Recovery(),
		cors.New(cors.Config{
			AllowAllOrigins: true,
			AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:    []string{"*"},
		}),
		logging.RequestID(),
		logging.RequestLogger(),
		a.Metrics.Middleware(),
	)

	webDir := a.Config.App.WebDir
	router.StaticFile("/", filepath.Join(webDir, "index.html"))
	router.Static("/static", filepath.Join(webDir, "static"))

	healthHandler := handler.NewHealthHandler(a)
	router.GET("/healthz", healthHandler.Check)
	router.GET("/readyz", healthHandler.Ready)
	router.GET("/metrics", a.Metrics.Handler())

	uploadHandler := handler.NewUploadHandler(a.Upload, a.Metrics, a.Config.App.MaxUpload)
	dashboardHandler := handler.NewDashboardHandler(a.Dashboard)
	chatHandler := handler.NewChatHandler(a.Chat, a.Metrics)
	authHandler := handler.NewAuthHandler(a.Auth)

	instructor := router.Group("/")
	instructor.Use(middleware.Optional(
		a.Auth.Enabled(),
		middleware.AuthJWT(a.Auth.Secret(), app.RoleInstructor),
	))
	instructor.POST("/upload_syllabus", uploadHandler.Upload)
	instructor.POST("/uploadAssignment", uploadHandler.Upload)
	instructor.POST("/syllabus_outline", uploadHandler.Outline)
	instructor.GET("/wellbeing_dashboard", dashboardHandler.Get)

	router.GET("/ws/:student_id", chatHandler.Connect)

	v1 := router.Group("/api/v1")
	v1.POST("/instructor/token", authHandler.Token)

	return router
}
