package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"LevelSentinel/internal/model"
)

// YahooBaseURL is the Yahoo Finance public chart endpoint host.
const YahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	BaseURL   string
	Location  *time.Location
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker

	http   *HTTPClient
	logger zerolog.Logger
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(baseURL string, httpClient *HTTPClient, loc *time.Location) *YahooFetcher {
	if baseURL == "" {
		baseURL = YahooBaseURL
	}
	if loc == nil {
		loc = time.Local
	}
	return &YahooFetcher{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Location: loc,
		SymbolMap: map[string]string{
			"000300.SH": "000300.SS",
			"SPX500":    "^GSPC",
			"SPX":       "^GSPC",
		},
		http:   httpClient,
		logger: log.With().Str("component", "yahoo").Logger(),
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	if strings.HasSuffix(symbol, ".SH") {
		return strings.TrimSuffix(symbol, ".SH") + ".SS"
	}
	return symbol
}

// yahooInterval translates provider-neutral intervals such as "30min" to Yahoo's form.
func yahooInterval(interval string) string {
	switch interval {
	case "1min", "5min", "15min", "30min", "60min", "90min":
		return strings.TrimSuffix(interval, "in")
	case "D", "1day", "daily":
		return "1d"
	case "W", "1week", "weekly":
		return "1wk"
	}
	return interval
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func at(vals []*float64, i int) (float64, bool) {
	if i >= len(vals) || vals[i] == nil {
		return 0, false
	}
	return *vals[i], true
}

func (f *YahooFetcher) FetchBars(ctx context.Context, req model.BarRequest) ([]model.Bar, error) {
	q := url.Values{}
	q.Set("interval", yahooInterval(req.Interval))
	q.Set("period1", fmt.Sprint(req.Start.Unix()))
	q.Set("period2", fmt.Sprint(req.End.AddDate(0, 0, 1).Unix()))
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", f.BaseURL, url.PathEscape(f.yahooSymbol(req.Symbol)), q.Encode())

	body, err := f.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		r.Header.Set("User-Agent", "Mozilla/5.0")
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		f.logger.Warn().Str("symbol", req.Symbol).Msg("no candles in response")
		return nil, nil
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.Bar, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o, okO := at(quote.Open, i)
		h, okH := at(quote.High, i)
		l, okL := at(quote.Low, i)
		c, okC := at(quote.Close, i)
		if !okO || !okH || !okL || !okC {
			continue // skip null bars (holidays, halts)
		}
		v, _ := at(quote.Volume, i)
		bars = append(bars, model.Bar{
			Time:   time.Unix(ts, 0).In(f.Location),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: v,
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	f.logger.Debug().Str("symbol", req.Symbol).Int("count", len(bars)).Msg("fetched bars")
	return bars, nil
}
