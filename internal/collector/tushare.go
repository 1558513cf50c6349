package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"LevelSentinel/internal/model"
)

// TushareBaseURL is the Tushare Pro HTTP endpoint.
const TushareBaseURL = "http://api.tushare.pro"

// TushareClient is a handle on the Tushare Pro API. The token is owned by the handle.
type TushareClient struct {
	BaseURL string
	token   string
	http    *HTTPClient
	logger  zerolog.Logger
}

// NewTushareClient creates a client. An empty baseURL selects TushareBaseURL.
func NewTushareClient(baseURL, token string, httpClient *HTTPClient) *TushareClient {
	if baseURL == "" {
		baseURL = TushareBaseURL
	}
	return &TushareClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
		logger:  log.With().Str("component", "tushare").Logger(),
	}
}

type tushareRequest struct {
	APIName string            `json:"api_name"`
	Token   string            `json:"token"`
	Params  map[string]string `json:"params"`
	Fields  string            `json:"fields"`
}

type tushareResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data *struct {
		Fields []string            `json:"fields"`
		Items  [][]json.RawMessage `json:"items"`
	} `json:"data"`
}

// tushareTable is a decoded response with column lookup by field name.
type tushareTable struct {
	cols  map[string]int
	items [][]json.RawMessage
}

func (t *tushareTable) raw(row []json.RawMessage, field string) (json.RawMessage, bool) {
	i, ok := t.cols[field]
	if !ok || i >= len(row) {
		return nil, false
	}
	if string(row[i]) == "null" {
		return nil, false
	}
	return row[i], true
}

func (t *tushareTable) str(row []json.RawMessage, field string) (string, error) {
	raw, ok := t.raw(row, field)
	if !ok {
		return "", fmt.Errorf("missing field %q", field)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("field %q: %w", field, err)
	}
	return s, nil
}

func (t *tushareTable) num(row []json.RawMessage, field string) (float64, error) {
	raw, ok := t.raw(row, field)
	if !ok {
		return 0, fmt.Errorf("missing field %q", field)
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(raw); err != nil {
		return 0, fmt.Errorf("field %q: %w", field, err)
	}
	return d.InexactFloat64(), nil
}

func (c *TushareClient) query(ctx context.Context, apiName string, params map[string]string, fields string) (*tushareTable, error) {
	payload, err := json.Marshal(tushareRequest{APIName: apiName, Token: c.token, Params: params, Fields: fields})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	c.logger.Debug().Str("api", apiName).Interface("params", params).Msg("querying tushare")
	body, err := c.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("tushare %s: %w", apiName, err)
	}

	var resp tushareResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("tushare %s decode: %w", apiName, err)
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("tushare %s api error %d: %s", apiName, resp.Code, resp.Msg)
	}

	table := &tushareTable{cols: map[string]int{}}
	if resp.Data == nil {
		return table, nil
	}
	for i, f := range resp.Data.Fields {
		table.cols[f] = i
	}
	table.items = resp.Data.Items
	return table, nil
}

// TushareFetcher implements Fetcher on top of a Tushare bar API such as stk_mins.
type TushareFetcher struct {
	Client   *TushareClient
	APIName  string
	Location *time.Location
}

// NewTushareFetcher creates a fetcher. An empty apiName selects "stk_mins".
func NewTushareFetcher(client *TushareClient, apiName string, loc *time.Location) *TushareFetcher {
	if apiName == "" {
		apiName = "stk_mins"
	}
	if loc == nil {
		loc = time.Local
	}
	return &TushareFetcher{Client: client, APIName: apiName, Location: loc}
}

func (f *TushareFetcher) Name() string { return "tushare" }

var tushareTimeLayouts = []string{"2006-01-02 15:04:05", "20060102"}

func (f *TushareFetcher) FetchBars(ctx context.Context, req model.BarRequest) ([]model.Bar, error) {
	params := map[string]string{
		"ts_code":    req.Symbol,
		"freq":       req.Interval,
		"start_date": req.Start.Format("2006-01-02") + " 09:00:00",
		"end_date":   req.End.Format("2006-01-02") + " 19:00:00",
	}
	table, err := f.Client.query(ctx, f.APIName, params, "ts_code,trade_time,trade_date,open,high,low,close,vol")
	if err != nil {
		return nil, err
	}

	timeField := "trade_time"
	if _, ok := table.cols[timeField]; !ok {
		timeField = "trade_date"
	}

	bars := make([]model.Bar, 0, len(table.items))
	for i, row := range table.items {
		if _, ok := table.raw(row, "close"); !ok {
			continue // suspended or empty bar
		}
		bar, err := f.parseRow(table, row, timeField)
		if err != nil {
			return nil, fmt.Errorf("tushare row %d: %w", i, err)
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	f.Client.logger.Debug().Str("symbol", req.Symbol).Int("count", len(bars)).Msg("fetched bars")
	return bars, nil
}

func (f *TushareFetcher) parseRow(table *tushareTable, row []json.RawMessage, timeField string) (model.Bar, error) {
	var bar model.Bar
	ts, err := table.str(row, timeField)
	if err != nil {
		return bar, err
	}
	if bar.Time, err = parseTime(ts, tushareTimeLayouts, f.Location); err != nil {
		return bar, err
	}
	if bar.Open, err = table.num(row, "open"); err != nil {
		return bar, err
	}
	if bar.High, err = table.num(row, "high"); err != nil {
		return bar, err
	}
	if bar.Low, err = table.num(row, "low"); err != nil {
		return bar, err
	}
	if bar.Close, err = table.num(row, "close"); err != nil {
		return bar, err
	}
	if v, err := table.num(row, "vol"); err == nil {
		bar.Volume = v
	}
	return bar, nil
}

// TushareCalendar answers trading-day questions from the trade_cal API. Each month is fetched
// once per handle.
type TushareCalendar struct {
	Client   *TushareClient
	Exchange string

	mu     sync.Mutex
	months map[string]map[string]bool
}

// NewTushareCalendar creates a calendar for the exchange, "SSE" when empty.
func NewTushareCalendar(client *TushareClient, exchange string) *TushareCalendar {
	if exchange == "" {
		exchange = "SSE"
	}
	return &TushareCalendar{Client: client, Exchange: exchange, months: map[string]map[string]bool{}}
}

// IsTradingDay reports whether the exchange is open on day.
func (c *TushareCalendar) IsTradingDay(ctx context.Context, day time.Time) (bool, error) {
	monthKey := day.Format("200601")

	c.mu.Lock()
	month, ok := c.months[monthKey]
	c.mu.Unlock()

	if !ok {
		var err error
		month, err = c.fetchMonth(ctx, day)
		if err != nil {
			return false, err
		}
		c.mu.Lock()
		c.months[monthKey] = month
		c.mu.Unlock()
	}
	return month[day.Format("20060102")], nil
}

func (c *TushareCalendar) fetchMonth(ctx context.Context, day time.Time) (map[string]bool, error) {
	first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
	last := first.AddDate(0, 1, -1)
	table, err := c.Client.query(ctx, "trade_cal", map[string]string{
		"exchange":   c.Exchange,
		"start_date": first.Format("20060102"),
		"end_date":   last.Format("20060102"),
	}, "exchange,cal_date,is_open")
	if err != nil {
		return nil, err
	}

	open := make(map[string]bool, len(table.items))
	for _, row := range table.items {
		date, err := table.str(row, "cal_date")
		if err != nil {
			return nil, fmt.Errorf("trade_cal: %w", err)
		}
		isOpen, err := table.num(row, "is_open")
		if err != nil {
			return nil, fmt.Errorf("trade_cal: %w", err)
		}
		open[date] = isOpen == 1
	}
	return open, nil
}

func parseTime(s string, layouts []string, loc *time.Location) (time.Time, error) {
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}
