package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"LevelSentinel/internal/collector"
	"LevelSentinel/internal/config"
	"LevelSentinel/internal/logger"
	"LevelSentinel/internal/notifier"
	"LevelSentinel/internal/render"
	"LevelSentinel/internal/scheduler"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, relying on actual environment variables")
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Console)
	log.Info().Msg("LevelSentinel bot starting...")

	if err := cfg.ValidateBot(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	for _, w := range config.Warnings(cfg.Params()) {
		log.Warn().Msg(w)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("resolve timezone")
	}

	// Init data source and calendar
	fetcher, cal, err := collector.NewSources(cfg, loc)
	if err != nil {
		log.Fatal().Err(err).Msg("init data source")
	}
	log.Info().Str("source", fetcher.Name()).Str("symbol", cfg.DataSource.Symbol).Msg("data source ready")
	col := collector.NewCollector(fetcher, cfg.DataSource.SkipBarAt, loc)

	// Init Telegram notifier
	tn, err := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	if err != nil {
		log.Fatal().Err(err).Msg("init telegram notifier")
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, col, cal, tn, scheduler.Settings{
		Symbol:      cfg.DataSource.Symbol,
		Interval:    cfg.DataSource.Interval,
		Params:      cfg.Params(),
		CloseAt:     cfg.Calendar.CloseAt,
		RangeMonths: cfg.Calendar.RangeMonths,
		Location:    loc,
		SendChart:   cfg.Chart.Telegram,
		Chart: render.ChartOptions{
			Width:  cfg.Chart.Width,
			Height: cfg.Chart.Height,
			Theme:  cfg.Chart.Theme,
		},
	})
	if err := sched.RegisterAll(cfg.Schedule.ReportCron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	go tn.StartPolling(ctx, sched.HandleCommand)
	log.Info().Msg("telegram polling started")

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, executing report now")
		go sched.RunReportNow()
	}

	log.Info().Str("cron", cfg.Schedule.ReportCron).Msg("LevelSentinel is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping...")
	cancel()
	log.Info().Msg("LevelSentinel stopped")
}
