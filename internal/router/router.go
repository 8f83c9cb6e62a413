package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/luminlms/assessment-engine/internal/config"
	"github.com/luminlms/assessment-engine/internal/handler"
	"github.com/luminlms/assessment-engine/internal/middleware"
	"github.com/luminlms/assessment-engine/internal/response"
	"github.com/luminlms/assessment-engine/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Eligibility *handler.EligibilityHandler
	Session     *handler.SessionHandler
	Assessment  *handler.AssessmentHandler
	Skill       *handler.SkillHandler
	Monitor     *handler.MonitorHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	tokenService *service.TokenService,
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
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for session writes (120 requests per minute per IP):
	// generous enough for per-question autosave, tight enough to stop abuse.
	sessionLimiter := middleware.NewRateLimiter(120, time.Minute)

	// ─── 1. Engine API (Gateway JWT) ───────────────────────────────────
	api := router.Group("/api/v1")
	api.Use(middleware.RequireServiceJWT(tokenService))
	{
		// Assessment lifecycle and reporting
		api.GET("/assessments/:id", handlers.Assessment.GetAssessment)
		api.POST("/assessments/:id/publish", handlers.Assessment.PublishAssessment)
		api.POST("/assessments/:id/reject", handlers.Assessment.RejectAssessment)
		api.POST("/assessments/:id/complete", handlers.Assessment.CompleteAssessment)
		api.GET("/assessments/:id/results", handlers.Assessment.GetResults)

		// Eligibility
		api.GET("/assessments/:id/eligibility", handlers.Eligibility.GetEligibility)

		// Exam sessions
		api.POST("/assessments/:id/sessions", handlers.Session.StartSession)
		api.PUT("/sessions/:id/answers", sessionLimiter.Middleware(), handlers.Session.SaveAnswer)
		api.GET("/sessions/:id/state", handlers.Session.GetState)
		api.POST("/sessions/:id/submit", handlers.Session.SubmitSession)
		api.GET("/sessions/:id/result", handlers.Session.GetResult)
		api.GET("/sessions/:id/answers", handlers.Session.GetAnswers)

		// Skill attainments
		api.GET("/users/:id/skills", handlers.Skill.GetUserSkills)
	}

	// ─── 2. WebSocket Group (Proctor WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireProctorWSAuth(tokenService))
	{
		ws.GET("/assessments/:id/monitor", handlers.Monitor.MonitorAssessment)
	}

	return router
}
