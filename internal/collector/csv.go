package collector

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"LevelSentinel/internal/model"
)

// CSVFetcher reads bars from a local CSV file with a header row naming at least
// time, open, high, low and close columns. A "{symbol}" placeholder in Path is replaced with
// the requested symbol.
type CSVFetcher struct {
	Path     string
	Location *time.Location
}

// NewCSVFetcher creates a file-backed fetcher.
func NewCSVFetcher(path string, loc *time.Location) *CSVFetcher {
	if loc == nil {
		loc = time.Local
	}
	return &CSVFetcher{Path: path, Location: loc}
}

func (f *CSVFetcher) Name() string { return "csv" }

var csvTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"20060102",
}

var csvTimeColumns = []string{"time", "datetime", "trade_time", "date", "trade_date"}

func (f *CSVFetcher) FetchBars(ctx context.Context, req model.BarRequest) ([]model.Bar, error) {
	path := strings.ReplaceAll(f.Path, "{symbol}", req.Symbol)
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	timeCol := -1
	for _, name := range csvTimeColumns {
		if i, ok := cols[name]; ok {
			timeCol = i
			break
		}
	}
	if timeCol < 0 {
		return nil, fmt.Errorf("csv %s: no time column", path)
	}
	for _, name := range []string{"open", "high", "low", "close"} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("csv %s: missing %q column", path, name)
		}
	}

	from := dayStart(req.Start, f.Location)
	to := dayStart(req.End, f.Location).AddDate(0, 0, 1)

	var bars []model.Bar
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		t, err := parseTime(rec[timeCol], csvTimeLayouts, f.Location)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		if !req.Start.IsZero() && t.Before(from) {
			continue
		}
		if !req.End.IsZero() && !t.Before(to) {
			continue
		}

		bar := model.Bar{Time: t}
		fields := []struct {
			name string
			dst  *float64
		}{
			{"open", &bar.Open}, {"high", &bar.High}, {"low", &bar.Low}, {"close", &bar.Close}, {"volume", &bar.Volume},
		}
		for _, fld := range fields {
			i, ok := cols[fld.name]
			if !ok || i >= len(rec) || strings.TrimSpace(rec[i]) == "" {
				if fld.name == "volume" {
					continue
				}
				return nil, fmt.Errorf("csv line %d: empty %s", line, fld.name)
			}
			d, err := decimal.NewFromString(strings.TrimSpace(rec[i]))
			if err != nil {
				return nil, fmt.Errorf("csv line %d: %s: %w", line, fld.name, err)
			}
			*fld.dst = d.InexactFloat64()
		}
		bars = append(bars, bar)
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func dayStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
