package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/marksheet-backend/internal/config"
	"github.com/stemsi/marksheet-backend/internal/handler"
	"github.com/stemsi/marksheet-backend/internal/middleware"
	"github.com/stemsi/marksheet-backend/internal/model"
	"github.com/stemsi/marksheet-backend/internal/response"
	"github.com/stemsi/marksheet-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth    *handler.AuthHandler
	Student *handler.StudentHandler
	Subject *handler.SubjectHandler
	Report  *handler.ReportHandler
	Export  *handler.ExportHandler
	WS      *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.BrotliWithConfig(middleware.BrotliConfig{
		MinLength: middleware.DefaultBrotliConfig.MinLength,
		Skipper:   middleware.SkipExports,
	}))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		public := auth.Group("")
		if cfg.LoginRateLimit > 0 {
			public.Use(middleware.NewRateLimiter(cfg.LoginRateLimit, time.Minute).Middleware())
		}
		public.POST("/signup", handlers.Auth.Signup)
		public.POST("/login", handlers.Auth.Login)

		auth.POST("/logout", middleware.RequireJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Marksheet API (JWT + RBAC) ─────────────────────────────────
	api := router.Group("/api/v1")
	api.Use(middleware.RequireJWT(authService), middleware.NoStore())
	{
		read := middleware.RequirePermission(model.PermissionStudentsRead)
		write := middleware.RequirePermission(model.PermissionStudentsWrite)

		api.GET("/students", read, handlers.Student.List)
		api.GET("/students/:id", read, handlers.Student.Get)
		api.POST("/students", write, handlers.Student.Create)
		api.PUT("/students/:id", write, handlers.Student.Update)
		api.DELETE("/students/:id", write, handlers.Student.Delete)
		api.POST("/marks/preview", read, handlers.Student.Preview)

		api.GET("/subjects", read, handlers.Subject.List)
		api.POST("/subjects", middleware.RequirePermission(model.PermissionSubjectsWrite), handlers.Subject.Create)
		api.DELETE("/subjects/:id", middleware.RequirePermission(model.PermissionSubjectsWrite), handlers.Subject.Delete)

		api.GET("/reports/chart", read, handlers.Report.Chart)

		exports := api.Group("/exports", middleware.RequirePermission(model.PermissionReportsExport))
		{
			exports.GET("/students.xlsx", handlers.Export.XLSX)
			exports.GET("/students.pdf", handlers.Export.PDF)
		}
	}

	// ─── 3. WebSocket Group (token in query) ───────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(authService))
	{
		ws.GET("/marksheet", middleware.RequirePermission(model.PermissionStudentsRead), handlers.WS.MarksheetStream)
	}

	return router
}
