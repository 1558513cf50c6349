package collector

import (
	"fmt"
	"time"

	"LevelSentinel/internal/calendar"
	"LevelSentinel/internal/config"
)

// NewSources builds the configured data source and trading calendar. HTTP-backed sources share
// one rate-limited client.
func NewSources(cfg *config.Config, loc *time.Location) (Fetcher, calendar.Calendar, error) {
	httpClient := NewHTTPClient(HTTPClientOptions{
		Timeout:        time.Duration(cfg.DataSource.TimeoutSec) * time.Second,
		RequestsPerSec: cfg.DataSource.RequestsPerSec,
		Proxy:          cfg.Proxy,
	})

	var tushare *TushareClient
	tushareClient := func() *TushareClient {
		if tushare == nil {
			baseURL := ""
			if cfg.DataSource.Provider == config.ProviderTushare {
				baseURL = cfg.DataSource.BaseURL
			}
			tushare = NewTushareClient(baseURL, cfg.DataSource.Token, httpClient)
		}
		return tushare
	}

	var fetcher Fetcher
	switch cfg.DataSource.Provider {
	case config.ProviderTushare:
		fetcher = NewTushareFetcher(tushareClient(), cfg.DataSource.APIName, loc)
	case config.ProviderYahoo:
		fetcher = NewYahooFetcher(cfg.DataSource.BaseURL, httpClient, loc)
	case config.ProviderCSV:
		fetcher = NewCSVFetcher(cfg.DataSource.CSVPath, loc)
	case config.ProviderMock:
		fetcher = &MockFetcher{Price: 3500}
	default:
		return nil, nil, fmt.Errorf("unsupported data provider %q", cfg.DataSource.Provider)
	}

	var cal calendar.Calendar
	switch cfg.Calendar.Source {
	case config.ProviderTushare:
		cal = NewTushareCalendar(tushareClient(), cfg.Calendar.Exchange)
	case "weekday":
		wc, err := calendar.NewWeekdayCalendar(cfg.Calendar.Holidays)
		if err != nil {
			return nil, nil, err
		}
		cal = wc
	default:
		return nil, nil, fmt.Errorf("unsupported calendar source %q", cfg.Calendar.Source)
	}

	return fetcher, cal, nil
}
