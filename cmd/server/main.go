package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"

	"prebook/internal/api"
	"prebook/internal/availability"
	"prebook/internal/config"
	"prebook/internal/database"
	"prebook/internal/domain"
	"prebook/internal/events"
	"prebook/internal/export"
	"prebook/internal/google"
	"prebook/internal/kakao"
	"prebook/internal/logging"
	"prebook/internal/metrics"
	"prebook/internal/models"
	"prebook/internal/notify"
	"prebook/internal/repository"
	"prebook/internal/service"
	"prebook/internal/worker"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, services, logger, closer, loadErr := loadConfigAndLogger()
	if loadErr != nil {
		return loadErr
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка инициализации базы данных")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := availability.NewEngine(cfg.Booking.TimeGrid, services)
	redisClient, slotCache := initSlotCache(ctx, cfg, &logger)
	if redisClient != nil {
		defer (func(c *redis.Client) { _ = repository.Close(c) })(redisClient)
	}

	scheduler := initCalendar(cfg, engine, services, &logger)
	chatSender := initKakao(cfg, &logger)

	eventBus := events.NewEventBus()
	notifier := initTelegram(cfg, eventBus, &logger)

	retryPolicy := worker.RetryPolicy{MaxRetries: 5, InitialDelay: 2 * time.Second, MaxDelay: time.Minute, BackoffFactor: 2}
	outboundWorker := worker.NewOutboundWorker(db, scheduler, chatSender, redisClient, retryPolicy, &logger)
	if notifier != nil {
		outboundWorker.SetNotifier(notifier)
	}
	go outboundWorker.Start(ctx)

	cacheTTL := time.Duration(cfg.Booking.SlotCacheTTL) * time.Second
	availabilitySv := service.NewAvailabilityService(db, slotCache, engine, cacheTTL, &logger)
	bookingSv := service.NewBookingService(db, engine, outboundWorker, availabilitySv, eventBus, cfg.Booking.MaxAdvanceDays, &logger)
	blockSv := service.NewBlockService(db, availabilitySv, eventBus, &logger)
	exporter := export.NewExporter(db, engine, cfg.Exports.Path, &logger)

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backupService.Start(ctx)
	}

	metrics.Register()
	if cfg.Monitoring.PrometheusEnabled {
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	apiServer := api.NewHTTPServer(cfg.API, availabilitySv, bookingSv, blockSv, exporter, &logger)
	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("Server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = apiServer.Shutdown(shutdownCtx)

	logger.Info().Msg("Shutdown complete.")
	return nil
}

func loadConfigAndLogger() (*config.Config, []models.Service, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, zerolog.Logger{}, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, zerolog.Logger{}, nil, err
	}
	logger := baseLogger.With().Str("component", "server-main").Logger()

	servicesPath := os.Getenv("SERVICES_PATH")
	if servicesPath == "" {
		servicesPath = "configs/services.yaml"
	}
	servicesData, err := os.ReadFile(servicesPath)
	if err != nil {
		logger.Error().Err(err).Msgf("Ошибка чтения %s", servicesPath)
		return nil, nil, zerolog.Logger{}, closer, err
	}

	var servicesConfig struct {
		Services []models.Service `yaml:"services"`
	}
	if err := yaml.Unmarshal(servicesData, &servicesConfig); err != nil {
		logger.Error().Err(err).Msg("Ошибка парсинга services.yaml")
		return nil, nil, zerolog.Logger{}, closer, err
	}

	if err := config.ValidateServices(servicesConfig.Services); err != nil {
		logger.Error().Err(err).Msg("Services validation failed")
		return nil, nil, zerolog.Logger{}, closer, err
	}

	return cfg, servicesConfig.Services, logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if cfg == nil {
		return os.ErrInvalid
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для базы данных")
		return err
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для экспорта")
		return err
	}
	return nil
}

// initSlotCache возвращает redis-клиент (может быть nil) и кэш слотов:
// redis с failover на память, либо чистая память, если redis не настроен.
func initSlotCache(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, domain.SlotCache) {
	memory := repository.NewMemorySlotCache()
	if cfg.Redis.Address == "" {
		return nil, memory
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable")
	}

	primary := repository.NewRedisSlotCache(redisClient)
	return redisClient, repository.NewFailoverSlotCache(primary, memory, logger)
}

func initCalendar(cfg *config.Config, engine *availability.Engine, services []models.Service, logger *zerolog.Logger) domain.Scheduler {
	if cfg.Calendar.CredentialsFile == "" || cfg.Calendar.CalendarID == "" {
		logger.Warn().Msg("Calendar is not configured, events will not be mirrored")
		return nil
	}

	durations := make(map[string]int, len(services))
	for _, svc := range services {
		durations[svc.Code] = engine.DurationHours(svc.Code)
	}

	calendarSvc, err := google.NewCalendarService(cfg.Calendar, durations)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize calendar service")
		return nil
	}

	logger.Info().Str("calendar_id", cfg.Calendar.CalendarID).Msg("Calendar service initialized")
	return calendarSvc
}

func initKakao(cfg *config.Config, logger *zerolog.Logger) domain.ChatSender {
	if cfg.Kakao.AccessToken == "" {
		logger.Warn().Msg("Kakao is not configured, chat messages will not be sent")
		return nil
	}
	return kakao.NewClient(cfg.Kakao, logger)
}

func initTelegram(cfg *config.Config, bus *events.EventBus, logger *zerolog.Logger) *notify.TelegramNotifier {
	if cfg.Telegram.BotToken == "" || cfg.Telegram.OperatorChatID == 0 {
		logger.Warn().Msg("Telegram is not configured, operator alerts disabled")
		return nil
	}

	notifier, err := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.OperatorChatID, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize telegram notifier")
		return nil
	}
	notifier.SubscribeBookingEvents(bus)
	logger.Info().Int64("chat_id", cfg.Telegram.OperatorChatID).Msg("Telegram notifier initialized")
	return notifier
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
