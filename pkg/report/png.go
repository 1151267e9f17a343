// Package report renders impulse responses as PNG plots and HTML charts.
package report

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/df07/go-progressive-acoustics/pkg/analysis"
	"github.com/df07/go-progressive-acoustics/pkg/impulse"
)

// maxPlotPoints bounds the points drawn per channel
const maxPlotPoints = 4000

// WritePNG plots every channel of ir against time in milliseconds
func WritePNG(path string, ir impulse.ImpulseResponse, title string) error {
	if ir.NumChannels() == 0 || ir.SampleRate <= 0 {
		return fmt.Errorf("cannot plot impulse response with %d channels at %d Hz", ir.NumChannels(), ir.SampleRate)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time (ms)"
	p.Y.Label.Text = "Amplitude"

	for c, samples := range ir.Channels {
		idx, values := Decimate(samples, maxPlotPoints)
		pts := make(plotter.XYs, len(idx))
		for i := range idx {
			pts[i] = plotter.XY{X: 1000 * float64(idx[i]) / float64(ir.SampleRate), Y: values[i]}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = plotutil.Color(c)
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("ch %d", c), line)
	}
	p.Legend.Top = true
	p.Legend.Left = false

	return save(p, path)
}

// WriteDecayPNG plots the Schroeder decay curve of one channel in dB
func WriteDecayPNG(path string, ir impulse.ImpulseResponse, channel int, title string) error {
	curve, err := analysis.SchroederIntegral(ir.Float64(channel))
	if err != nil {
		return err
	}
	if ir.SampleRate <= 0 {
		return analysis.ErrInvalidSampleRate
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time (ms)"
	p.Y.Label.Text = "Level (dB)"
	p.Y.Min = -80
	p.Y.Max = 0

	step := max(1, len(curve)/maxPlotPoints)
	pts := make(plotter.XYs, 0, len(curve)/step+1)
	for i := 0; i < len(curve); i += step {
		pts = append(pts, plotter.XY{X: 1000 * float64(i) / float64(ir.SampleRate), Y: max(curve[i], -80)})
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = plotutil.Color(0)
	line.Width = vg.Points(1)
	p.Add(line)

	return save(p, path)
}

func save(p *plot.Plot, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}

// Decimate reduces samples to at most maxPoints by keeping the largest
// magnitude sample of each window. It returns the kept sample indices and
// values.
func Decimate(samples []float32, maxPoints int) ([]int, []float64) {
	if maxPoints <= 0 {
		return nil, nil
	}
	window := (len(samples) + maxPoints - 1) / maxPoints
	if window < 1 {
		window = 1
	}

	idx := make([]int, 0, len(samples)/window+1)
	values := make([]float64, 0, len(samples)/window+1)
	for start := 0; start < len(samples); start += window {
		end := min(start+window, len(samples))
		best := start
		for i := start + 1; i < end; i++ {
			if abs(samples[i]) > abs(samples[best]) {
				best = i
			}
		}
		idx = append(idx, best)
		values = append(values, float64(samples[best]))
	}
	return idx, values
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
