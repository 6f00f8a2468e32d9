package charts

import (
	"math"
	"strings"
	"testing"
	"time"

	"StockInsight/internal/domain/models"
)

var start = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

func testBars(n int) []models.Bar {
	bars := make([]models.Bar, n)
	for i := range bars {
		c := 100 + float64(i)
		bars[i] = models.Bar{Time: start.Add(time.Duration(i) * time.Hour), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 10}
	}
	return bars
}

func render(t *testing.T, c Renderer) string {
	t.Helper()
	s, err := RenderString(c)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return s
}

func TestLineChartsCarryTitlesAndAxes(t *testing.T) {
	bars := testBars(30)
	points := []models.TestPoint{{Actual: 1, Predicted: 1.5}, {Actual: 2, Predicted: 2.1}}

	tests := []struct {
		name string
		c    Renderer
		want []string
	}{
		{"recent", RecentPrices("AAPL", bars), []string{"AAPL - Recent Closing Prices", "Price (USD)", "Time"}},
		{"moving averages", MovingAverages("AAPL", bars), []string{"AAPL - Moving Averages", "MA 3", "MA 7"}},
		{"actual vs predicted", ActualVsPredicted(points), []string{"Actual vs Predicted Close Prices", "Index", "Predicted"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := render(t, tt.c)
			for _, w := range append(tt.want, Height, Theme) {
				if !strings.Contains(html, w) {
					t.Errorf("output missing %q", w)
				}
			}
		})
	}
}

func TestMovingAveragesUsesRecentWindow(t *testing.T) {
	line := MovingAverages("MSFT", testBars(150))
	html := render(t, line)
	// the first 50 bars fall outside the window
	if strings.Contains(html, start.Format(timeLabel)) {
		t.Fatalf("oldest bars should be dropped")
	}
	if !strings.Contains(html, start.Add(149*time.Hour).Format(timeLabel)) {
		t.Fatalf("latest bar missing")
	}
}

func TestLineDataMarksGaps(t *testing.T) {
	data := lineData([]float64{1, math.NaN(), math.Inf(1), 2})
	if data[1].Value != "-" || data[2].Value != "-" {
		t.Fatalf("gaps not marked: %+v", data)
	}
	if data[3].Value != 2.0 {
		t.Fatalf("value = %v", data[3].Value)
	}
}

func TestOverviewCharts(t *testing.T) {
	lines := map[string][]models.LinePoint{
		"AAPL": {{Time: start, Close: 180}, {Time: start.Add(time.Hour), Close: 181}},
		"MSFT": {{Time: start.Add(time.Hour), Close: 410}},
	}
	cmp := render(t, Comparison([]string{"AAPL", "MSFT", "TSLA"}, lines))
	for _, w := range []string{"Price Fluctuation of Major Stocks", ComparisonHeight, "AAPL", "MSFT"} {
		if !strings.Contains(cmp, w) {
			t.Errorf("comparison missing %q", w)
		}
	}
	if strings.Contains(cmp, "TSLA") {
		t.Errorf("symbols without a line should be skipped")
	}

	pie := render(t, VolumeShare([]string{"AAPL", "MSFT"}, map[string]float64{"AAPL": 300, "MSFT": 900}))
	for _, w := range []string{"Trading Volume Distribution", PieHeight, "{b}: {d}%", "40%"} {
		if !strings.Contains(pie, w) {
			t.Errorf("pie missing %q", w)
		}
	}
}
