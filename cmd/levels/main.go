// Command levels runs one support/resistance detection and prints the result.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"LevelSentinel/internal/calendar"
	"LevelSentinel/internal/collector"
	"LevelSentinel/internal/config"
	"LevelSentinel/internal/logger"
	"LevelSentinel/internal/model"
	"LevelSentinel/internal/render"
)

const (
	exitOK     = 0
	exitError  = 1
	exitNoData = 2
)

type options struct {
	configPath string
	symbol     string
	start, end string
	lookback   int
	minTouch   int
	tolerance  float64
	chart      string
	provider   string

	set map[string]bool // flags given on the command line
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, relying on actual environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, time.Now())
	stop()
	os.Exit(code)
}

func parseFlags(args []string) (*options, error) {
	o := &options{set: map[string]bool{}}
	fs := flag.NewFlagSet("levels", flag.ContinueOnError)
	defaultConfig := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultConfig = v
	}
	fs.StringVar(&o.configPath, "config", defaultConfig, "path to the YAML config")
	fs.StringVar(&o.symbol, "symbol", "", "instrument code, overrides data_source.symbol")
	fs.StringVar(&o.start, "start", "", "first date YYYYMMDD (default: end minus calendar.range_months)")
	fs.StringVar(&o.end, "end", "", "last date YYYYMMDD (default: last completed trading day)")
	fs.IntVar(&o.lookback, "lookback", 0, "bars to scan, overrides detection.lookback_period")
	fs.IntVar(&o.minTouch, "min-touch", 0, "touches required, overrides detection.min_touch")
	fs.Float64Var(&o.tolerance, "tolerance", 0, "price tolerance, overrides detection.tolerance")
	fs.StringVar(&o.chart, "chart", "", "write an HTML chart to this path, overrides chart.output")
	fs.StringVar(&o.provider, "provider", "", "data provider: tushare, yahoo, csv or mock")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

func run(ctx context.Context, args []string, stdout io.Writer, now time.Time) int {
	o, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitError
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return exitError
	}
	applyFlags(cfg, o)
	logger.Setup(cfg.Log.Level, cfg.Log.Console)

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation")
		return exitError
	}
	for _, w := range config.Warnings(cfg.Params()) {
		log.Warn().Msg(w)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Error().Err(err).Msg("resolve timezone")
		return exitError
	}

	fetcher, cal, err := collector.NewSources(cfg, loc)
	if err != nil {
		log.Error().Err(err).Msg("init data source")
		return exitError
	}

	start, end, err := resolveRange(ctx, cal, cfg, o, now.In(loc), loc)
	if err != nil {
		log.Error().Err(err).Msg("resolve date range")
		return exitError
	}

	col := collector.NewCollector(fetcher, cfg.DataSource.SkipBarAt, loc)
	req := model.BarRequest{Symbol: cfg.DataSource.Symbol, Interval: cfg.DataSource.Interval, Start: start, End: end}
	report, err := col.Collect(ctx, req, cfg.Params())
	if errors.Is(err, collector.ErrNoData) {
		fmt.Fprintf(stdout, "no data for %s between %s and %s\n",
			req.Symbol, start.Format("2006-01-02"), end.Format("2006-01-02"))
		return exitNoData
	}
	if err != nil {
		log.Error().Err(err).Msg("detection failed")
		return exitError
	}

	if err := render.WriteTable(stdout, report); err != nil {
		log.Error().Err(err).Msg("print table")
		return exitError
	}

	if cfg.Chart.Output != "" {
		if err := writeChart(cfg, report); err != nil {
			log.Error().Err(err).Msg("write chart")
			return exitError
		}
		log.Info().Str("path", cfg.Chart.Output).Msg("chart written")
	}
	return exitOK
}

func applyFlags(cfg *config.Config, o *options) {
	if o.provider != "" {
		cfg.DataSource.Provider = o.provider
	}
	if o.symbol != "" {
		cfg.DataSource.Symbol = o.symbol
	}
	if o.set["lookback"] {
		cfg.Detection.LookbackPeriod = o.lookback
	}
	if o.set["min-touch"] {
		cfg.Detection.MinTouch = o.minTouch
	}
	if o.set["tolerance"] {
		cfg.Detection.Tolerance = o.tolerance
	}
	if o.chart != "" {
		cfg.Chart.Output = o.chart
	}
}

// resolveRange parses -start/-end and fills what is missing from the trading calendar.
func resolveRange(ctx context.Context, cal calendar.Calendar, cfg *config.Config, o *options, now time.Time, loc *time.Location) (start, end time.Time, err error) {
	if o.end != "" {
		if end, err = time.ParseInLocation("20060102", o.end, loc); err != nil {
			return start, end, fmt.Errorf("-end: %w", err)
		}
	}
	if o.start != "" {
		if start, err = time.ParseInLocation("20060102", o.start, loc); err != nil {
			return start, end, fmt.Errorf("-start: %w", err)
		}
	}
	if end.IsZero() {
		defStart, defEnd, err := calendar.DefaultRange(ctx, cal, now, cfg.Calendar.CloseAt, cfg.Calendar.RangeMonths)
		if err != nil {
			return start, end, err
		}
		end = defEnd
		if start.IsZero() {
			start = defStart
		}
	}
	if start.IsZero() {
		start = end.AddDate(0, -cfg.Calendar.RangeMonths, 0)
	}
	if end.Before(start) {
		return start, end, fmt.Errorf("end %s is before start %s", end.Format("20060102"), start.Format("20060102"))
	}
	return start, end, nil
}

func writeChart(cfg *config.Config, report *model.Report) error {
	f, err := os.Create(cfg.Chart.Output)
	if err != nil {
		return err
	}
	if err := render.WriteChart(f, report, render.ChartOptions{
		Width:  cfg.Chart.Width,
		Height: cfg.Chart.Height,
		Theme:  cfg.Chart.Theme,
	}); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
