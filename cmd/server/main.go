package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/marksheet-backend/internal/config"
	"github.com/stemsi/marksheet-backend/internal/database"
	"github.com/stemsi/marksheet-backend/internal/feed"
	"github.com/stemsi/marksheet-backend/internal/handler"
	"github.com/stemsi/marksheet-backend/internal/logger"
	"github.com/stemsi/marksheet-backend/internal/marks"
	"github.com/stemsi/marksheet-backend/internal/repository"
	"github.com/stemsi/marksheet-backend/internal/repository/memory"
	"github.com/stemsi/marksheet-backend/internal/router"
	"github.com/stemsi/marksheet-backend/internal/service"
	"github.com/stemsi/marksheet-backend/internal/validator"
	"github.com/stemsi/marksheet-backend/internal/worker"
	"golang.org/x/text/language"
)

// stores is everything that differs between storage drivers.
type stores struct {
	students service.StudentStore
	subjects service.SubjectStore
	users    service.UserStore
	sessions service.SessionStore
	notifier feed.Notifier
	signal   feed.Signal
	// background runs driver-specific workers until ctx is done.
	background func(ctx context.Context)
	close      func()
}

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("storage", cfg.StorageDriver).
		Msg("Starting Marksheet Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect Storage ───────────────────────────────────────────────
	var st *stores
	switch cfg.StorageDriver {
	case config.DriverMemory:
		log.Warn().Msg("Memory storage selected, data is lost on restart")
		st = memoryStores()
	case config.DriverPostgres:
		var err error
		st, err = postgresStores(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect storage")
		}
	default:
		log.Fatal().Str("driver", cfg.StorageDriver).Msg("Unknown STORAGE_DRIVER")
	}
	defer st.close()

	// ─── Initialize Services ──────────────────────────────────────────
	composer := marks.NewComposerForLocale(cfg.Locale)
	locale := language.Make(cfg.Locale)

	authService := service.NewAuthService(cfg, st.users, st.sessions)
	studentService := service.NewStudentService(st.students, st.subjects, st.notifier, composer, log)
	subjectService := service.NewSubjectService(st.subjects, st.notifier, locale, log)
	reportService := service.NewReportService(st.students, st.subjects, composer)
	exportService := service.NewExportService(st.students, st.subjects, composer, cfg)

	liveFeed := feed.New(st.signal, studentService, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Student: handler.NewStudentHandler(studentService),
		Subject: handler.NewSubjectHandler(subjectService),
		Report:  handler.NewReportHandler(reportService),
		Export:  handler.NewExportHandler(exportService),
		WS:      handler.NewWSHandler(liveFeed, composer, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup
	workers.Add(1)
	go func() {
		defer workers.Done()
		st.background(workerCtx)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
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

	// 2. Stop background workers; the change worker flushes its last batch.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

func memoryStores() *stores {
	db := memory.NewDB()
	bus := feed.NewLocalBus()
	return &stores{
		students:   memory.NewStudentRepository(db),
		subjects:   memory.NewSubjectRepository(db),
		users:      memory.NewUserRepository(db),
		sessions:   memory.NewSessionRepository(db),
		notifier:   bus,
		signal:     bus,
		background: func(ctx context.Context) { <-ctx.Done() },
		close:      func() {},
	}
}

func postgresStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		pool.Close()
		return nil, err
	}

	changeWorker := worker.NewChangeWorker(rdb, log)

	// One Redis subscription per process, fanned out to WebSocket clients in memory.
	bus := feed.NewLocalBus()
	if err := bus.Relay(ctx, feed.NewRedisSignal(rdb, log)); err != nil {
		_ = rdb.Close()
		pool.Close()
		return nil, err
	}

	return &stores{
		students:   repository.NewStudentRepository(pool),
		subjects:   repository.NewSubjectRepository(pool),
		users:      repository.NewUserRepository(pool),
		sessions:   repository.NewSessionRepository(rdb),
		notifier:   feed.NewQueueNotifier(rdb, log),
		signal:     bus,
		background: changeWorker.Start,
		close: func() {
			_ = rdb.Close()
			pool.Close()
		},
	}, nil
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
