package impulse

import (
	"fmt"
	"math"

	"github.com/df07/go-progressive-acoustics/pkg/config"
)

// DefaultEpsilon is the energy below which a bin counts as silent
const DefaultEpsilon = 1e-6

// ImpulseResponse is a dense per-channel response at SampleRate
type ImpulseResponse struct {
	SampleRate int
	Channels   [][]float32
}

// NumChannels returns the channel count
func (ir ImpulseResponse) NumChannels() int {
	return len(ir.Channels)
}

// Len returns the per-channel sample count
func (ir ImpulseResponse) Len() int {
	if len(ir.Channels) == 0 {
		return 0
	}
	return len(ir.Channels[0])
}

// Duration returns the response length in seconds
func (ir ImpulseResponse) Duration() float64 {
	if ir.SampleRate <= 0 {
		return 0
	}
	return float64(ir.Len()) / float64(ir.SampleRate)
}

// Peak returns the index and value of the largest magnitude sample
func (ir ImpulseResponse) Peak(channel int) (int, float32) {
	if channel < 0 || channel >= len(ir.Channels) {
		return -1, 0
	}
	idx, peak := -1, float32(0)
	for i, v := range ir.Channels[channel] {
		if idx < 0 || abs32(v) > abs32(peak) {
			idx, peak = i, v
		}
	}
	return idx, peak
}

// Float64 returns a float64 copy of one channel
func (ir ImpulseResponse) Float64(channel int) []float64 {
	if channel < 0 || channel >= len(ir.Channels) {
		return nil
	}
	out := make([]float64, len(ir.Channels[channel]))
	for i, v := range ir.Channels[channel] {
		out[i] = float64(v)
	}
	return out
}

// IsUnitImpulse reports whether every channel is the silent fallback
func (ir ImpulseResponse) IsUnitImpulse() bool {
	if len(ir.Channels) == 0 {
		return false
	}
	for _, ch := range ir.Channels {
		if len(ch) == 0 || ch[0] != 1 {
			return false
		}
		for _, v := range ch[1:] {
			if v != 0 {
				return false
			}
		}
	}
	return true
}

// Reconstructor converts histograms of a fixed layout into impulse
// responses. It holds no state between calls, so the same histogram always
// yields bit-identical output.
type Reconstructor struct {
	Layout      Layout
	FilterAlpha float32 // one-pole smoothing coefficient in (0, 1]
	Normalize   bool    // scale each channel to unit L2 norm
	Epsilon     float32 // bins with |energy| below this are silent
}

// NewReconstructor creates a reconstructor for the layout described by cfg
func NewReconstructor(cfg config.Config) (*Reconstructor, error) {
	layout, err := LayoutFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &Reconstructor{
		Layout:      layout,
		FilterAlpha: float32(cfg.FilterAlpha),
		Normalize:   cfg.NormalizeIR,
		Epsilon:     DefaultEpsilon,
	}, nil
}

// Reconstruct builds one dense channel per histogram channel:
//
//  1. amplitude per bin: sign-preserving sqrt(e / 4pi), 0 under Epsilon
//  2. linear ramp from the previous bin's amplitude to this bin's across
//     the bin's samples (the first bin ramps from itself)
//  3. one-pole low-pass y[n] = a x[n] + (1-a) y[n-1], y[0] = x[0]
//  4. optional L2 normalization
//
// A channel whose bins are all silent becomes a unit impulse at sample 0.
func (r *Reconstructor) Reconstruct(h *EnergyHistogram) (ImpulseResponse, error) {
	if h == nil {
		return ImpulseResponse{}, fmt.Errorf("%w: nil histogram", ErrLayoutMismatch)
	}
	if got := h.Layout(); got != r.Layout {
		return ImpulseResponse{}, fmt.Errorf("%w: histogram has %d channels x %d bins of %gs at %d Hz, reconstructor expects %d x %d of %gs at %d Hz",
			ErrLayoutMismatch, got.Channels, got.Bins, got.BinDuration, got.SampleRate,
			r.Layout.Channels, r.Layout.Bins, r.Layout.BinDuration, r.Layout.SampleRate)
	}

	ir := ImpulseResponse{
		SampleRate: r.Layout.SampleRate,
		Channels:   make([][]float32, r.Layout.Channels),
	}
	for c := range ir.Channels {
		ir.Channels[c] = r.reconstructChannel(h.Channel(c))
	}
	return ir, nil
}

func (r *Reconstructor) reconstructChannel(bins []float32) []float32 {
	numSamples := r.Layout.NumSamples()
	out := make([]float32, numSamples)

	if r.silent(bins) {
		out[0] = 1
		return out
	}

	perBin := r.Layout.SamplesPerBin()
	prev := float32(0)
	for b, e := range bins {
		cur := r.amplitude(e)
		if b == 0 {
			prev = cur
		}
		start := b * perBin
		for s := 0; s < perBin && start+s < numSamples; s++ {
			w := float32(s) / float32(perBin)
			out[start+s] = (1-w)*prev + w*cur
		}
		prev = cur
	}

	alpha := r.FilterAlpha
	if alpha <= 0 || alpha > 1 {
		alpha = 1
	}
	for i := 1; i < len(out); i++ {
		out[i] = alpha*out[i] + (1-alpha)*out[i-1]
	}

	if r.Normalize {
		normalize(out)
	}
	for i, v := range out {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			out[i] = 0
		}
	}
	return out
}

func (r *Reconstructor) silent(bins []float32) bool {
	for _, e := range bins {
		if abs32(e) >= r.Epsilon {
			return false
		}
	}
	return true
}

func (r *Reconstructor) amplitude(e float32) float32 {
	if abs32(e) < r.Epsilon {
		return 0
	}
	a := float32(math.Sqrt(float64(abs32(e)) / (4 * math.Pi)))
	if e < 0 {
		return -a
	}
	return a
}

// normalize scales x to unit L2 norm; near-silent input is left alone
func normalize(x []float32) {
	sum := 0.0
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	if norm < 1e-12 {
		return
	}
	inv := float32(1 / norm)
	for i := range x {
		x[i] *= inv
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
