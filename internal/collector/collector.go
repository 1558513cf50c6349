package collector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"LevelSentinel/internal/model"
	"LevelSentinel/internal/strategy"
)

// ErrNoData means the data source answered with no bars for the requested range.
var ErrNoData = errors.New("no data for the requested range")

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Bars  []model.Bar
	Err   error
	Calls int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, req model.BarRequest) ([]model.Bar, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		out := make([]model.Bar, len(m.Bars))
		copy(out, m.Bars)
		return out, nil
	}
	if m.Price == 0 {
		return nil, nil
	}
	return generateMockBars(m.Price, req.End, 96), nil
}

// generateMockBars produces count half-hourly bars ending on end, oscillating around basePrice.
func generateMockBars(basePrice float64, end time.Time, count int) []model.Bar {
	last := time.Date(end.Year(), end.Month(), end.Day(), 15, 0, 0, 0, end.Location())
	bars := make([]model.Bar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + 0.01*math.Sin(float64(i)/5))
		bars[i] = model.Bar{
			Time:   last.Add(-time.Duration(count-1-i) * 30 * time.Minute),
			Open:   p * 0.999,
			High:   p * 1.002,
			Low:    p * 0.997,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector orchestrates data fetching and level detection.
type Collector struct {
	Fetcher   Fetcher
	SkipBarAt string // "HH:MM" of a session-opening bar to drop, empty keeps every bar
	Location  *time.Location
	logger    zerolog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, skipBarAt string, loc *time.Location) *Collector {
	if loc == nil {
		loc = time.Local
	}
	return &Collector{
		Fetcher:   fetcher,
		SkipBarAt: skipBarAt,
		Location:  loc,
		logger:    log.With().Str("component", "collector").Str("source", fetcher.Name()).Logger(),
	}
}

// Collect fetches bars for req and runs one detection pass with p.
// ErrNoData is returned when the source has no bars; detection is not run in that case.
func (c *Collector) Collect(ctx context.Context, req model.BarRequest, p model.Params) (*model.Report, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if !req.End.IsZero() && req.End.Before(req.Start) {
		return nil, fmt.Errorf("end date %s is before start date %s",
			req.End.Format("2006-01-02"), req.Start.Format("2006-01-02"))
	}

	bars, err := c.Fetcher.FetchBars(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch bars from %s: %w", c.Fetcher.Name(), err)
	}
	fetched := len(bars)
	bars = c.dropOpeningBars(bars)
	if len(bars) == 0 {
		c.logger.Warn().Str("symbol", req.Symbol).Msg("no bars for range")
		return nil, ErrNoData
	}

	series, err := model.NewSeries(bars)
	if err != nil {
		return nil, fmt.Errorf("build series: %w", err)
	}

	levels, err := strategy.Evaluate(series, p)
	if err != nil {
		return nil, err
	}

	c.logger.Info().
		Str("symbol", req.Symbol).
		Int("fetched", fetched).
		Int("bars", series.Len()).
		Int("supports", len(levels.Supports)).
		Int("resistances", len(levels.Resistances)).
		Msg("detection complete")

	return &model.Report{
		Symbol:   req.Symbol,
		Interval: req.Interval,
		Start:    req.Start,
		End:      req.End,
		Params:   p,
		Series:   series,
		Levels:   levels,
	}, nil
}

func (c *Collector) dropOpeningBars(bars []model.Bar) []model.Bar {
	if c.SkipBarAt == "" {
		return bars
	}
	kept := bars[:0:0]
	for _, b := range bars {
		if b.Time.In(c.Location).Format("15:04") == c.SkipBarAt {
			continue
		}
		kept = append(kept, b)
	}
	return kept
}
