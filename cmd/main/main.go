package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/channel"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/composer"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/config"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/events"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/observer"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/quota"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/scheduler"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/server"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/storage"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/usecase"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/workerpool"
	"gitlab.com/timkado/api/daisi-lead-outreach/pkg/logger"
	"gitlab.com/timkado/api/daisi-lead-outreach/pkg/utils"
	"go.uber.org/zap"
)

func main() {
	// Set timezone to UTC
	time.Local = time.UTC

	// Load configuration
	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	observer.InitMetrics(cfg.Metrics.Enabled)

	logger.Log.Info("Starting Daisi Lead Outreach",
		zap.String("environment", cfg.Environment),
		zap.Int("daily_limit", cfg.Outreach.DailyLimit),
		zap.String("run_at", cfg.Outreach.RunAt),
	)

	// Initialize repositories
	postgresRepo, err := initPostgresRepo(cfg.Database.PostgresDSN, cfg.Database.PostgresAutoMigrate)
	if err != nil {
		logger.Log.Fatal("Failed to initialize Postgres repository", zap.Error(err))
	}

	leadRepo := storage.NewLeadRepoAdapter(postgresRepo)
	responseRepo := storage.NewResponseRepoAdapter(postgresRepo)
	jobRepo := storage.NewJobRepoAdapter(postgresRepo)
	summaryRepo := storage.NewSummaryRepoAdapter(postgresRepo)

	// Rehydrate the daily quota from today's send history so restarts do
	// not grant a fresh allowance.
	tracker := quota.NewTracker(cfg.Outreach.DailyLimit)
	if sent, err := countSentToday(responseRepo); err != nil {
		logger.Log.Warn("Failed to rehydrate quota from send history", zap.Error(err))
	} else {
		tracker.Seed(int(sent))
		logger.Log.Info("Quota rehydrated", zap.Int64("sent_today", sent), zap.Int("daily_limit", cfg.Outreach.DailyLimit))
	}

	// Delivery channels
	registry := channel.NewRegistry(
		channel.NewWhatsAppAdapter(channel.WhatsAppConfig{
			GatewayURL:  cfg.WhatsApp.GatewayURL,
			AccessToken: cfg.WhatsApp.AccessToken,
			SenderID:    cfg.WhatsApp.SenderID,
			Timeout:     cfg.WhatsApp.Timeout,
		}),
		channel.NewEmailAdapter(channel.EmailConfig{
			SMTPHost:     cfg.Email.SMTPHost,
			SMTPPort:     cfg.Email.SMTPPort,
			SMTPUser:     cfg.Email.SMTPUser,
			SMTPPassword: cfg.Email.SMTPPassword,
			FromAddress:  cfg.Email.FromAddress,
			FromName:     cfg.Email.FromName,
		}),
	)

	// AI composition. Without an API key the composer still works off its
	// deterministic templates.
	comp := composer.New(composer.NewGeminiClient(composer.GeminiConfig{
		APIKey:  cfg.Gemini.APIKey,
		BaseURL: cfg.Gemini.BaseURL,
		Model:   cfg.Gemini.Model,
		Timeout: cfg.Gemini.Timeout,
	}))
	if cfg.Gemini.APIKey == "" {
		logger.Log.Warn("Gemini API key not set, message composition will use templates")
	}

	// Event publishing is optional.
	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.NATS.URL != "" {
		natsPublisher, err := events.NewNatsPublisher(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
		if err != nil {
			logger.Log.Warn("Failed to connect to NATS, continuing without events", zap.Error(err))
		} else {
			publisher = natsPublisher
		}
	}

	dispatcher, err := workerpool.NewDispatcher(cfg.WorkerPools.Jobs, logger.Log)
	if err != nil {
		logger.Log.Fatal("Failed to initialize job worker pool", zap.Error(err))
	}

	service := usecase.NewService(
		leadRepo, responseRepo, jobRepo, summaryRepo,
		registry, comp, tracker, publisher, cfg.Outreach,
	)

	sched, err := scheduler.New(cfg.Outreach, tracker, func(ctx context.Context) {
		if _, err := service.RunDailyOutreach(ctx); err != nil {
			logger.FromContext(ctx).Error("Scheduled outreach run failed", zap.Error(err))
		}
	})
	if err != nil {
		logger.Log.Fatal("Failed to initialize scheduler", zap.Error(err))
	}
	if cfg.Outreach.AutoStart {
		if err := sched.Start(); err != nil {
			logger.Log.Fatal("Failed to start scheduler", zap.Error(err))
		}
	}

	apiServer := server.New(
		service, sched, dispatcher,
		cfg.Server.Port,
		cfg.Environment == "production",
		postgresRepo.Ping,
	)

	// Metrics on a dedicated port so it never mixes with the public API.
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{Addr: fmt.Sprintf(":%d", cfg.Metrics.Port), Handler: mux}
		utils.SafeGo(func() {
			logger.Log.Info("Metrics endpoint enabled", zap.Int("port", cfg.Metrics.Port))
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Log.Error("Metrics server failed", zap.Error(err))
			}
		}, nil)
	}

	sigChan := make(chan os.Signal, 1)
	utils.SafeGo(func() {
		if err := apiServer.Start(); err != nil {
			logger.Log.Error("HTTP server failed, initiating shutdown", zap.Error(err))
			select {
			case sigChan <- syscall.SIGTERM:
			default:
			}
		}
	}, nil)

	// Wait for termination signal
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Log.Info("Received termination signal", zap.String("signal", sig.String()))

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	logger.Log.Info("Starting graceful shutdown", zap.Duration("timeout", 30*time.Second))

	var wg sync.WaitGroup
	wg.Add(4)

	utils.SafeGo(func() {
		defer wg.Done()
		logger.Log.Info("[shutdown] Stopping HTTP server")
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("[shutdown] Error stopping HTTP server", zap.Error(err))
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Log.Error("[shutdown] Error stopping metrics server", zap.Error(err))
			}
		}
	}, func(r interface{}, stack []byte) {
		logger.Log.Error("[shutdown] Panic while stopping HTTP server",
			zap.Any("panic", r),
			zap.ByteString("stack", stack),
		)
		wg.Done()
	})

	utils.SafeGo(func() {
		defer wg.Done()
		logger.Log.Info("[shutdown] Stopping scheduler")
		sched.Shutdown()
	}, func(r interface{}, stack []byte) {
		logger.Log.Error("[shutdown] Panic while stopping scheduler",
			zap.Any("panic", r),
			zap.ByteString("stack", stack),
		)
		wg.Done()
	})

	utils.SafeGo(func() {
		defer wg.Done()
		logger.Log.Info("[shutdown] Stopping job worker pool")
		dispatcher.Release()
	}, func(r interface{}, stack []byte) {
		logger.Log.Error("[shutdown] Panic while stopping job worker pool",
			zap.Any("panic", r),
			zap.ByteString("stack", stack),
		)
		wg.Done()
	})

	utils.SafeGo(func() {
		defer wg.Done()
		logger.Log.Info("[shutdown] Closing NATS connection")
		publisher.Close()

		logger.Log.Info("[shutdown] Closing PostgreSQL connection")
		if err := postgresRepo.Close(shutdownCtx); err != nil {
			logger.Log.Error("[shutdown] Failed to close PostgreSQL connection", zap.Error(err))
		}
	}, func(r interface{}, stack []byte) {
		logger.Log.Error("[shutdown] Panic while closing connections",
			zap.Any("panic", r),
			zap.ByteString("stack", stack),
		)
		wg.Done()
	})

	waitCh := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		logger.Log.Info("[shutdown] All components stopped gracefully")
	case <-shutdownCtx.Done():
		logger.Log.Warn("[shutdown] Graceful shutdown timed out, forcing exit")
	}

	logger.Log.Info("Daisi Lead Outreach shutdown complete")
}

// Initialize PostgreSQL repository
func initPostgresRepo(dsn string, autoMigrate bool) (*storage.PostgresRepo, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	repo, err := storage.NewPostgresRepo(dsn, autoMigrate)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres repository: %w", err)
	}

	logger.Log.Info("Initialized PostgreSQL repository")
	return repo, nil
}

// countSentToday counts outgoing messages delivered since midnight UTC.
func countSentToday(responseRepo storage.ResponseRepo) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := utils.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return responseRepo.CountOutgoingSentSince(ctx, startOfDay)
}
