package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/df07/go-progressive-acoustics/pkg/simulator"
)

// maxChartPoints bounds the points sent to the browser per series
const maxChartPoints = 2000

// WriteHTML renders a page with the binned energy, the reconstructed
// response and the early taps of one source result.
func WriteHTML(w io.Writer, result *simulator.SourceResult, title string) error {
	if result == nil || result.Histogram == nil {
		return fmt.Errorf("no simulation result to render")
	}

	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(
		histogramChart(result, title),
		responseChart(result),
		tapsChart(result),
	)
	return page.Render(w)
}

func histogramChart(result *simulator.SourceResult, title string) *charts.Line {
	layout := result.Histogram.Layout()
	x := make([]string, layout.Bins)
	for b := range x {
		x[b] = fmt.Sprintf("%.1f", 1000*float64(b)*layout.BinDuration)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1000px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("tick=%d connected=%d/%d occlusion=%.2f", result.Tick, result.Stats.Connected, result.Stats.Attempted, result.Occlusion),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "ms"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "energy"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}),
	)
	line.SetXAxis(x)
	for c := 0; c < layout.Channels; c++ {
		bins := result.Histogram.Channel(c)
		data := make([]opts.LineData, len(bins))
		for b, e := range bins {
			data[b] = opts.LineData{Value: e}
		}
		line.AddSeries(fmt.Sprintf("energy ch %d", c), data)
	}
	return line
}

func responseChart(result *simulator.SourceResult) *charts.Line {
	ir := result.Response
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1000px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "Impulse response", Subtitle: fmt.Sprintf("%d Hz, %d samples", ir.SampleRate, ir.Len())}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "ms"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}),
	)

	for c, samples := range ir.Channels {
		idx, values := Decimate(samples, maxChartPoints)
		if c == 0 {
			x := make([]string, len(idx))
			for i, s := range idx {
				x[i] = fmt.Sprintf("%.2f", 1000*float64(s)/float64(max(ir.SampleRate, 1)))
			}
			line.SetXAxis(x)
		}
		data := make([]opts.LineData, len(values))
		for i, v := range values {
			data[i] = opts.LineData{Value: v}
		}
		line.AddSeries(fmt.Sprintf("ir ch %d", c), data)
	}
	return line
}

func tapsChart(result *simulator.SourceResult) *charts.Bar {
	x := make([]string, len(result.Taps))
	y := make([]opts.BarData, len(result.Taps))
	for i, tap := range result.Taps {
		x[i] = fmt.Sprintf("%.1f ms", 1000*tap.DelaySeconds)
		y[i] = opts.BarData{Value: tap.Gain}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1000px", Height: "300px"}),
		charts.WithTitleOpts(opts.Title{Title: "Early reflections", Subtitle: fmt.Sprintf("%d taps", len(result.Taps))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).AddSeries("gain", y)
	return bar
}
