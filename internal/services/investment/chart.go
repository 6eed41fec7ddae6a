package investment

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"investcore/internal/models"
)

// RenderProfitChart renders the daily and cumulative profit series as a PNG line chart.
// Returns raw PNG bytes.
func RenderProfitChart(points []ChartPoint) ([]byte, error) {
	if len(points) < 2 {
		return nil, newError(KindValidation, "need at least 2 data points, got %d", len(points))
	}

	xValues := make([]time.Time, len(points))
	profitY := make([]float64, len(points))
	cumulativeY := make([]float64, len(points))

	var running, peak float64
	for i, p := range points {
		d, err := models.ParseDate(p.Date)
		if err != nil {
			return nil, newError(KindValidation, "bad chart date %q", p.Date)
		}
		xValues[i] = d
		profitY[i] = p.TotalProfit.InexactFloat64()
		running += profitY[i]
		cumulativeY[i] = running
		if profitY[i] > peak {
			peak = profitY[i]
		}
	}

	dailySeries := chart.TimeSeries{
		Name: "Daily Profit",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("16a34a"),
			StrokeWidth: 2.5,
		},
		XValues: xValues,
		YValues: profitY,
	}

	cumulativeSeries := chart.TimeSeries{
		Name: "Cumulative",
		Style: chart.Style{
			StrokeColor:     drawing.ColorFromHex("9ca3af"),
			StrokeWidth:     1.5,
			StrokeDashArray: []float64{5.0, 3.0},
		},
		YAxis:   chart.YAxisSecondary,
		XValues: xValues,
		YValues: cumulativeY,
	}

	graph := chart.Chart{
		Title:  "Daily Profits",
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 02")
				}
				return ""
			},
		},
		// Fixed ranges: go-chart refuses to render a flat series with an auto range.
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: axisMax(peak)},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.2f", f)
				}
				return ""
			},
		},
		YAxisSecondary: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: axisMax(running)},
		},
		Series: []chart.Series{
			dailySeries,
			cumulativeSeries,
		},
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

func axisMax(v float64) float64 {
	if v <= 0 {
		return 1
	}
	return v * 1.1
}
