package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"LevelSentinel/internal/model"
)

const (
	supportColor    = "#1f77b4"
	resistanceColor = "#d62728"
	upColor         = "#ef4444"
	downColor       = "#3b82f6"
)

// ChartOptions controls page size and theme. Zero values fall back to defaults.
type ChartOptions struct {
	Width  string
	Height string
	Theme  string
}

func (o ChartOptions) withDefaults() ChartOptions {
	if o.Width == "" {
		o.Width = "1200px"
	}
	if o.Height == "" {
		o.Height = "600px"
	}
	if o.Theme == "" {
		o.Theme = "white"
	}
	return o
}

// WriteChart renders an HTML candlestick chart of the report's bars with one horizontal dashed
// line per detected level.
func WriteChart(w io.Writer, report *model.Report, o ChartOptions) error {
	if report == nil || report.Series == nil || report.Series.Len() == 0 {
		return fmt.Errorf("render chart: empty report")
	}
	o = o.withDefaults()

	bars := report.Series.Bars()
	xAxis := make([]string, 0, len(bars))
	klineData := make([]opts.KlineData, 0, len(bars))
	for _, b := range bars {
		xAxis = append(xAxis, b.Time.Format("2006-01-02 15:04"))
		klineData = append(klineData, opts.KlineData{Value: [4]float64{b.Open, b.Close, b.Low, b.High}})
	}

	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s %s Support & Resistance", report.Symbol, report.Interval),
			Subtitle: paramsLine(report),
			Left:     "center",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			SplitNumber: 20,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale:     true,
			SplitLine: &opts.SplitLine{Show: true},
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:       "inside",
			XAxisIndex: []int{0},
			Start:      0,
			End:        100,
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:       "slider",
			XAxisIndex: []int{0},
			Start:      0,
			End:        100,
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: true,
			Top:  "8%",
		}),
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: fmt.Sprintf("%s levels", report.Symbol),
			Width:     o.Width,
			Height:    o.Height,
			Theme:     o.Theme,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:        true,
			Trigger:     "axis",
			AxisPointer: &opts.AxisPointer{Type: "cross"},
		}),
	)

	kline.SetXAxis(xAxis).AddSeries("Candlestick", klineData,
		charts.WithItemStyleOpts(opts.ItemStyle{
			Color:        upColor,
			Color0:       downColor,
			BorderColor:  upColor,
			BorderColor0: downColor,
		}),
	)

	if report.Levels != nil {
		line := charts.NewLine()
		line.SetXAxis(xAxis)
		addLevelSeries(line, "Support", supportColor, report.Levels.Supports, len(xAxis))
		addLevelSeries(line, "Resistance", resistanceColor, report.Levels.Resistances, len(xAxis))
		kline.Overlap(line)
	}

	if err := kline.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func addLevelSeries(line *charts.Line, role, color string, levels []model.Level, width int) {
	for _, lv := range levels {
		data := make([]opts.LineData, width)
		for i := range data {
			data[i] = opts.LineData{Value: lv.Price}
		}
		line.AddSeries(fmt.Sprintf("%s %.2f", role, lv.Price), data,
			charts.WithLineChartOpts(opts.LineChart{Smooth: false}),
			charts.WithLineStyleOpts(opts.LineStyle{
				Color:   color,
				Width:   1,
				Type:    "dashed",
				Opacity: 0.8,
			}),
		)
	}
}

func paramsLine(r *model.Report) string {
	return fmt.Sprintf("lookback %d, min touch %d, tolerance %g",
		r.Params.LookbackPeriod, r.Params.MinTouch, r.Params.Tolerance)
}
