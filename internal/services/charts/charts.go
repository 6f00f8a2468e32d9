// Package charts renders the dashboard figures as self-contained ECharts
// HTML documents.
package charts

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"StockInsight/internal/domain/models"
	"StockInsight/internal/services/features"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	Theme            = "dark"
	Height           = "400px"
	ComparisonHeight = "450px"
	PieHeight        = "500px"
	Width            = "100%"

	// MovingAverageWindow is how many recent bars the MA chart covers.
	MovingAverageWindow = 100

	timeLabel = "01-02 15:04"
)

// Renderer is any chart that can write itself as an HTML page.
type Renderer interface {
	Render(w io.Writer) error
}

// RecentPrices plots the close of every bar as a line with markers.
func RecentPrices(symbol string, bars []models.Bar) *charts.Line {
	line := newLine(fmt.Sprintf("%s - Recent Closing Prices", symbol), "Time", "Price (USD)", Height)
	line.SetXAxis(timeLabels(bars)).
		AddSeries("Close", lineData(models.Closes(bars)),
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}),
		)
	return line
}

// MovingAverages plots the close with its 3- and 7-bar averages over the
// most recent bars.
func MovingAverages(symbol string, bars []models.Bar) *charts.Line {
	if len(bars) > MovingAverageWindow {
		bars = bars[len(bars)-MovingAverageWindow:]
	}
	closes := models.Closes(bars)

	line := newLine(fmt.Sprintf("%s - Moving Averages", symbol), "Time", "Price", Height)
	line.SetXAxis(timeLabels(bars)).
		AddSeries("Close", lineData(closes)).
		AddSeries("MA 3", lineData(features.MovingAverage(closes, features.ShortWindow))).
		AddSeries("MA 7", lineData(features.MovingAverage(closes, features.LongWindow)))
	return line
}

// ActualVsPredicted compares held-out closes with the model's predictions.
func ActualVsPredicted(points []models.TestPoint) *charts.Line {
	xs := make([]int, len(points))
	actual := make([]float64, len(points))
	predicted := make([]float64, len(points))
	for i, p := range points {
		xs[i] = i
		actual[i] = p.Actual
		predicted[i] = p.Predicted
	}

	line := newLine("Actual vs Predicted Close Prices", "Index", "Price", Height)
	line.SetXAxis(xs).
		AddSeries("Actual", lineData(actual)).
		AddSeries("Predicted", lineData(predicted))
	return line
}

// Comparison draws one close line per symbol on a shared time axis. Symbols
// are drawn in the given order; gaps appear where a symbol has no bar.
func Comparison(symbols []string, lines map[string][]models.LinePoint) *charts.Line {
	seen := map[int64]time.Time{}
	for _, pts := range lines {
		for _, p := range pts {
			seen[p.Time.Unix()] = p.Time
		}
	}
	axis := make([]time.Time, 0, len(seen))
	for _, t := range seen {
		axis = append(axis, t)
	}
	sort.Slice(axis, func(i, j int) bool { return axis[i].Before(axis[j]) })

	labels := make([]string, len(axis))
	index := make(map[int64]int, len(axis))
	for i, t := range axis {
		labels[i] = t.Format(timeLabel)
		index[t.Unix()] = i
	}

	line := newLine("Price Fluctuation of Major Stocks (Last 100 Records)", "Time", "Price (USD)", ComparisonHeight)
	line.SetXAxis(labels)
	for _, symbol := range symbols {
		pts, ok := lines[symbol]
		if !ok {
			continue
		}
		values := make([]float64, len(axis))
		for i := range values {
			values[i] = math.NaN()
		}
		for _, p := range pts {
			values[index[p.Time.Unix()]] = p.Close
		}
		line.AddSeries(symbol, lineData(values),
			charts.WithLineChartOpts(opts.LineChart{ConnectNulls: opts.Bool(true)}),
		)
	}
	return line
}

// VolumeShare is a donut of today's volume per symbol.
func VolumeShare(symbols []string, volumes map[string]float64) *charts.Pie {
	data := make([]opts.PieData, 0, len(symbols))
	for _, symbol := range symbols {
		if v, ok := volumes[symbol]; ok {
			data = append(data, opts.PieData{Name: symbol, Value: v})
		}
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: Theme, Width: Width, Height: PieHeight}),
		charts.WithTitleOpts(opts.Title{Title: "Trading Volume Distribution"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	)
	pie.AddSeries("Volume", data).
		SetSeriesOptions(
			charts.WithPieChartOpts(opts.PieChart{Radius: []string{"40%", "70%"}}),
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {d}%"}),
		)
	return pie
}

// Render writes c as a standalone HTML document.
func Render(c Renderer, w io.Writer) error {
	if err := c.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// RenderString renders c into a string, suitable for an iframe srcdoc.
func RenderString(c Renderer) (string, error) {
	var buf bytes.Buffer
	if err := Render(c, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func newLine(title, xName, yName, height string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: Theme, Width: Width, Height: height}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: xName}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName, Scale: opts.Bool(true)}),
	)
	return line
}

func timeLabels(bars []models.Bar) []string {
	out := make([]string, len(bars))
	for i, b := range bars {
		out[i] = b.Time.Format(timeLabel)
	}
	return out
}

// lineData maps missing values to ECharts' "-" placeholder.
func lineData(values []float64) []opts.LineData {
	out := make([]opts.LineData, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			out[i] = opts.LineData{Value: "-"}
			continue
		}
		out[i] = opts.LineData{Value: v}
	}
	return out
}
