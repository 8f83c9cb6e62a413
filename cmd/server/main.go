package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/luminlms/assessment-engine/internal/config"
	"github.com/luminlms/assessment-engine/internal/database"
	"github.com/luminlms/assessment-engine/internal/handler"
	"github.com/luminlms/assessment-engine/internal/logger"
	"github.com/luminlms/assessment-engine/internal/repository"
	"github.com/luminlms/assessment-engine/internal/router"
	"github.com/luminlms/assessment-engine/internal/service"
	"github.com/luminlms/assessment-engine/internal/validator"
	"github.com/luminlms/assessment-engine/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Assessment Engine")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	assessmentRepo := repository.NewAssessmentRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	submissionRepo := repository.NewSubmissionRepository(pool)
	resultRepo := repository.NewResultRepository(pool)
	skillRepo := repository.NewSkillRepository(pool)
	directoryRepo := repository.NewDirectoryRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	tokenService := service.NewTokenService(cfg)
	eligibilityService := service.NewEligibilityService(directoryRepo)
	answerBuffer := service.NewRedisAnswerBuffer(rdb)
	skillQueue := service.NewRedisSkillQueue(rdb)
	sessionService := service.NewSessionService(
		assessmentRepo, questionRepo, submissionRepo, resultRepo,
		eligibilityService, answerBuffer, skillQueue,
	)
	assessmentService := service.NewAssessmentService(assessmentRepo, questionRepo, resultRepo)
	skillService := service.NewSkillService(assessmentRepo, skillRepo)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Eligibility: handler.NewEligibilityHandler(sessionService),
		Session:     handler.NewSessionHandler(sessionService),
		Assessment:  handler.NewAssessmentHandler(assessmentService),
		Skill:       handler.NewSkillHandler(skillService),
		Monitor:     handler.NewMonitorHandler(submissionRepo, rdb, cfg.MonitorInterval, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	answerWorker := worker.NewAnswerWorker(submissionRepo, rdb, log)
	skillWorker := worker.NewSkillWorker(skillService, rdb, log)

	go answerWorker.Start(workerCtx)
	go skillWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(tokenService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
