package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"perfectTipsBot/config"
	"perfectTipsBot/scheduler"
	"perfectTipsBot/services/betService"
	"perfectTipsBot/services/extService"
	"perfectTipsBot/services/generationService"
	"perfectTipsBot/services/logger"
	"perfectTipsBot/services/metricsService"
	"perfectTipsBot/services/notifyService"
	"perfectTipsBot/services/storeService"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	zlog, err := logger.New(logger.Options{Service: cfg.ServiceName, Env: cfg.Env, Level: cfg.LogLevel})
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	db, err := storeService.Open(cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := storeService.Migrate(db); err != nil {
		zlog.Fatal("error migrating database", zap.Error(err))
	}
	primary := extService.NewAPIFootball(cfg.Providers.Primary, cfg.Leagues)
	fallback := extService.NewFootballFeed(cfg.Providers.Fallback, cfg.Leagues)

	if err := storeService.RunDataMigrations(context.Background(), db, cfg.DefaultLeague, primary.Name(), logger.Component(zlog, "migrations")); err != nil {
		zlog.Fatal("error running data migrations", zap.Error(err))
	}
	store := storeService.New(db)

	metrics := metricsService.New()
	metricsServer := metricsService.StartMetricsServer(cfg.MetricsPort, metrics, func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})

	gateway := extService.NewGateway(primary, fallback, logger.Component(zlog, "gateway"), metrics)

	notifier := buildNotifier(cfg, logger.Component(zlog, "notify"))

	settler := betService.NewSettler(store, gateway, notifier, logger.Component(zlog, "settlement"), metrics, betService.SettlerConfig{
		DefaultLeague:        cfg.DefaultLeague,
		BatchLimit:           cfg.Settlement.BatchResultLimit,
		OpportunisticLimit:   cfg.Settlement.OpportunisticResultLimit,
		OpportunisticTimeout: cfg.Settlement.OpportunisticTimeout,
	})

	oracle := generationService.NewChatOracle(cfg.Oracle, &http.Client{Timeout: cfg.Oracle.Timeout})
	generator := generationService.NewGenerator(gateway, store, oracle, settler, logger.Component(zlog, "generation"), metrics, cfg.Generation)

	cronService, err := scheduler.SetupCron(cfg, scheduler.Jobs{
		Settler:   settler,
		Generator: generator,
		Archiver:  store,
	}, db, logger.Component(zlog, "scheduler"))
	if err != nil {
		zlog.Fatal("error scheduling jobs", zap.Error(err))
	}

	zlog.Info("tips engine running", zap.Strings("leagues", cfg.LeagueSlugs()), zap.Int("notifiers", notifier.Len()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	zlog.Info("shutting down")
	<-cronService.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Settlement.OpportunisticTimeout+10*time.Second)
	defer cancel()
	// opportunistic passes notify when they finish; the sinks must outlive them
	if err := settler.Wait(shutdownCtx); err != nil {
		zlog.Warn("opportunistic settlement still running at shutdown", zap.Error(err))
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		zlog.Warn("metrics server shutdown", zap.Error(err))
	}
	if err := notifier.Close(); err != nil {
		zlog.Warn("notifier close", zap.Error(err))
	}
}

func buildNotifier(cfg *config.Config, zlog *zap.Logger) *notifyService.MultiNotifier {
	var sinks []notifyService.Notifier

	if cfg.Notify.DiscordToken != "" && cfg.Notify.DiscordChannelID != "" {
		discord, err := notifyService.NewDiscordNotifier(cfg.Notify.DiscordToken, cfg.Notify.DiscordChannelID)
		if err != nil {
			zlog.Warn("discord notifier disabled", zap.Error(err))
		} else {
			sinks = append(sinks, discord)
		}
	}
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != 0 {
		telegram, err := notifyService.NewTelegramNotifier(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID)
		if err != nil {
			zlog.Warn("telegram notifier disabled", zap.Error(err))
		} else {
			sinks = append(sinks, telegram)
		}
	}
	if cfg.Notify.RedisAddr != "" {
		sinks = append(sinks, notifyService.NewRedisNotifier(cfg.Notify.RedisAddr, cfg.Notify.RedisChannel))
	}
	if brokers := notifyService.SplitBrokers(cfg.Notify.KafkaBrokers); len(brokers) > 0 {
		sinks = append(sinks, notifyService.NewKafkaNotifier(brokers, cfg.Notify.KafkaTopic))
	}

	return notifyService.NewMultiNotifier(zlog, sinks...)
}
