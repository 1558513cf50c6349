package scheduler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"LevelSentinel/internal/calendar"
	"LevelSentinel/internal/collector"
	"LevelSentinel/internal/config"
	"LevelSentinel/internal/model"
	"LevelSentinel/internal/notifier"
	"LevelSentinel/internal/render"
)

// Sender delivers reports to the chat.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
	SendDocument(name string, data []byte, caption string) error
}

// Settings are the defaults every scheduled or on-demand run starts from.
type Settings struct {
	Symbol      string
	Interval    string
	Params      model.Params
	CloseAt     string // session close, "HH:MM"
	RangeMonths int
	Location    *time.Location
	SendChart   bool
	Chart       render.ChartOptions
}

// Scheduler manages the cron report task and bot commands.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Calendar  calendar.Calendar
	Notifier  Sender
	Settings  Settings
	Ctx       context.Context
	Now       func() time.Time

	logger zerolog.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, cal calendar.Calendar, sender Sender, settings Settings) *Scheduler {
	if settings.Location == nil {
		settings.Location = time.Local
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds(), cron.WithLocation(settings.Location)),
		Collector: col,
		Calendar:  cal,
		Notifier:  sender,
		Settings:  settings,
		Ctx:       ctx,
		Now:       time.Now,
		logger:    log.With().Str("component", "scheduler").Logger(),
	}
}

// RegisterAll registers the periodic report task.
func (s *Scheduler) RegisterAll(reportCron string) error {
	if _, err := s.Cron.AddFunc(reportCron, s.reportTask); err != nil {
		return fmt.Errorf("register report task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

// RunReportNow executes the report task immediately (for RUN_ON_START).
func (s *Scheduler) RunReportNow() {
	s.reportTask()
}

func (s *Scheduler) reportTask() {
	s.logger.Info().Msg("running scheduled report")
	s.report(s.Settings.Params)
}

// report runs one detection over the default range and sends the outcome. p is a copy owned by
// this run.
func (s *Scheduler) report(p model.Params) {
	start, end, err := calendar.DefaultRange(s.Ctx, s.Calendar, s.Now().In(s.Settings.Location),
		s.Settings.CloseAt, s.Settings.RangeMonths)
	if err != nil {
		s.logger.Error().Err(err).Msg("resolve date range")
		s.trySend(notifier.FormatFailure(err))
		return
	}

	req := model.BarRequest{Symbol: s.Settings.Symbol, Interval: s.Settings.Interval, Start: start, End: end}
	report, err := s.Collector.Collect(s.Ctx, req, p)
	switch {
	case errors.Is(err, collector.ErrNoData):
		s.trySend(notifier.FormatNoData(req.Symbol, start, end))
		return
	case err != nil:
		s.logger.Error().Err(err).Str("symbol", req.Symbol).Msg("detection failed")
		s.trySend(notifier.FormatFailure(err))
		return
	}

	s.trySend(notifier.FormatLevelReport(report))
	if s.Settings.SendChart {
		s.sendChart(report)
	}
}

func (s *Scheduler) sendChart(report *model.Report) {
	var buf bytes.Buffer
	if err := render.WriteChart(&buf, report, s.Settings.Chart); err != nil {
		s.logger.Error().Err(err).Msg("render chart")
		return
	}
	name := fmt.Sprintf("%s_%s.html", strings.ReplaceAll(report.Symbol, ".", "_"), report.End.Format("20060102"))
	if err := s.Notifier.SendDocument(name, buf.Bytes(), report.Symbol); err != nil {
		s.logger.Error().Err(err).Msg("send chart")
	}
}

const levelsUsage = "用法: /levels [回看周期 最少触及次数 价格容差]\n例如: /levels 48 3 10"

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	name := fields[0]
	if i := strings.Index(name, "@"); i > 0 {
		name = name[:i]
	}

	switch name {
	case "/levels", "识别":
		p, err := parseParams(s.Settings.Params, fields[1:])
		if err != nil {
			return fmt.Sprintf("⚠️ %v\n\n%s", err, levelsUsage)
		}
		for _, w := range config.Warnings(p) {
			s.trySend("⚠️ " + w)
		}
		s.report(p)
		return ""
	case "/params", "参数":
		return notifier.FormatParams(s.Settings.Symbol, s.Settings.Interval, s.Settings.Params)
	default:
		return notifier.FormatHelp()
	}
}

// parseParams returns defaults when args is empty, otherwise exactly three values overriding
// lookback, min touch and tolerance.
func parseParams(defaults model.Params, args []string) (model.Params, error) {
	if len(args) == 0 {
		return defaults, nil
	}
	if len(args) != 3 {
		return model.Params{}, fmt.Errorf("需要 3 个参数, 收到 %d 个", len(args))
	}
	lookback, err := strconv.Atoi(args[0])
	if err != nil {
		return model.Params{}, fmt.Errorf("回看周期无效: %q", args[0])
	}
	minTouch, err := strconv.Atoi(args[1])
	if err != nil {
		return model.Params{}, fmt.Errorf("最少触及次数无效: %q", args[1])
	}
	tolerance, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return model.Params{}, fmt.Errorf("价格容差无效: %q", args[2])
	}
	p := model.Params{LookbackPeriod: lookback, MinTouch: minTouch, Tolerance: tolerance}
	if err := p.Validate(); err != nil {
		return model.Params{}, err
	}
	return p, nil
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.logger.Error().Err(err).Msg("send notification")
	}
}
