package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"maitred/internal/api"
	"maitred/internal/config"
	"maitred/internal/database"
	"maitred/internal/domain"
	"maitred/internal/events"
	"maitred/internal/google"
	"maitred/internal/logging"
	"maitred/internal/metrics"
	"maitred/internal/models"
	"maitred/internal/notify"
	"maitred/internal/reports"
	"maitred/internal/repository"
	"maitred/internal/service"
	"maitred/internal/worker"
	"maitred/internal/ws"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := initDatabase(cfg, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snapshots := initSnapshots(redisClient, &logger)
	eventBus := events.NewEventBus()

	notifier := initNotifier(cfg, db, &logger)
	sheetsService := initGoogleSheets(cfg, &logger)

	outbound := worker.NewOutboundWorker(db, sheetsWriter(sheetsService), notifier, redisClient,
		worker.RetryPolicy{}, log.New(os.Stdout, "", log.LstdFlags))
	go outbound.Start(ctx)

	backup := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
	go backup.Start(ctx)

	hub := ws.NewHub()
	go hub.Run()
	hub.SubscribeBus(eventBus)

	tableService := service.NewTableService(db, snapshots, eventBus, &logger)
	tableService.SubscribeInvalidation(eventBus)

	svcs := api.Services{
		Bookings:  service.NewBookingService(db, eventBus, outbound, &logger),
		Tables:    tableService,
		Menu:      service.NewMenuService(db, eventBus, &logger),
		Staff:     service.NewStaffService(db, &logger),
		Guests:    service.NewGuestService(db, &logger),
		Analytics: service.NewAnalyticsService(db, tableService, &logger),
		Exporter:  reports.NewExporter(db, cfg.Exports.Path, &logger),
		Hub:       hub,
	}

	httpServer := api.NewHTTPServer(cfg.API, svcs, &logger)

	startMetrics(ctx, cfg, &logger)

	return startServer(ctx, httpServer, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func initDatabase(cfg *config.Config, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, err
	}

	db.SetRestaurants(cfg.Restaurants)
	if err := db.SeedTables(context.Background(), cfg.TableModels()); err != nil {
		logger.Error().Err(err).Msg("seed tables")
		return nil, err
	}
	return db, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(context.Background(), redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// initSnapshots builds the availability cache: Redis with in-memory failover
// when Redis is configured, plain in-memory otherwise.
func initSnapshots(redisClient *redis.Client, logger *zerolog.Logger) domain.SnapshotRepository {
	ttl := models.AvailabilityCacheTTL * time.Second
	memory := repository.NewMemorySnapshotRepository(ttl)
	if redisClient == nil {
		return memory
	}
	primary := repository.NewRedisSnapshotRepository(redisClient, ttl)
	return repository.NewFailoverSnapshotRepository(primary, memory, logger)
}

func initNotifier(cfg *config.Config, db *database.DB, logger *zerolog.Logger) domain.Notifier {
	if !cfg.Telegram.Enabled {
		return nil
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, continuing without staff alerts")
		return nil
	}
	bot.Debug = cfg.Telegram.Debug
	logger.Info().Str("bot", bot.Self.UserName).Msg("telegram connected")

	sender := notify.NewTelegramNotifySender(notify.NewTelegramService(bot))
	return notify.NewStaffNotifier(db, sender, logger)
}

func initGoogleSheets(cfg *config.Config, logger *zerolog.Logger) *google.SheetsService {
	if cfg.Google.GoogleCredentialsFile == "" || cfg.Google.BookingSpreadSheetID == "" {
		return nil
	}

	sheetsService, err := google.NewSheetsService(
		cfg.Google.GoogleCredentialsFile,
		cfg.Google.BookingSpreadSheetID,
	)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}

	logger.Info().Msg("google sheets connected")
	return sheetsService
}

// sheetsWriter keeps the worker's nil check meaningful; a typed nil pointer
// inside a non-nil interface would defeat it.
func sheetsWriter(svc *google.SheetsService) domain.SheetsWriter {
	if svc == nil {
		return nil
	}
	return svc
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServer(ctx context.Context, httpServer *api.HTTPServer, logger *zerolog.Logger) error {
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown")
	}

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
