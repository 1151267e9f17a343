// Package impulse turns binned path energy into dense impulse responses.
package impulse

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-progressive-acoustics/pkg/config"
)

var (
	// ErrInvalidLayout is returned for layouts with non-positive dimensions
	ErrInvalidLayout = errors.New("invalid histogram layout")
	// ErrLayoutMismatch is returned when a histogram does not match the
	// layout a reconstructor was built for
	ErrLayoutMismatch = errors.New("histogram layout mismatch")
)

// Layout fixes the shape of a histogram and of the impulse response
// reconstructed from it.
type Layout struct {
	Channels    int
	Bins        int
	BinDuration float64 // seconds
	SampleRate  int
}

// NewLayout builds a layout covering duration seconds with bins of
// binDuration seconds.
func NewLayout(channels int, duration, binDuration float64, sampleRate int) (Layout, error) {
	l := Layout{
		Channels:    channels,
		Bins:        config.BinCount(duration, binDuration),
		BinDuration: binDuration,
		SampleRate:  sampleRate,
	}
	if err := l.validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// LayoutFromConfig builds the layout described by cfg
func LayoutFromConfig(cfg config.Config) (Layout, error) {
	return NewLayout(cfg.Channels, cfg.SimulatedDurationSeconds, cfg.BinDurationSeconds, cfg.SampleRate)
}

func (l Layout) validate() error {
	switch {
	case l.Channels <= 0:
		return fmt.Errorf("%w: channels must be positive, got %d", ErrInvalidLayout, l.Channels)
	case l.Bins <= 0:
		return fmt.Errorf("%w: bin count must be positive, got %d", ErrInvalidLayout, l.Bins)
	case l.BinDuration <= 0 || math.IsNaN(l.BinDuration) || math.IsInf(l.BinDuration, 0):
		return fmt.Errorf("%w: bin duration must be positive, got %g", ErrInvalidLayout, l.BinDuration)
	case l.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidLayout, l.SampleRate)
	}
	return nil
}

// SamplesPerBin is ceil(binDuration * sampleRate), at least 1
func (l Layout) SamplesPerBin() int {
	n := int(math.Ceil(l.BinDuration*float64(l.SampleRate) - 1e-9))
	if n < 1 {
		n = 1
	}
	return n
}

// NumSamples is the length of each reconstructed channel
func (l Layout) NumSamples() int {
	n := int(math.Ceil(float64(l.Bins)*l.BinDuration*float64(l.SampleRate) - 1e-9))
	if n < 1 {
		n = 1
	}
	return n
}

// Duration is the simulated time span covered by the bins
func (l Layout) Duration() float64 {
	return float64(l.Bins) * l.BinDuration
}

// BinIndex returns clamp(floor(delay/binDuration), 0, Bins-1)
func (l Layout) BinIndex(delaySeconds float64) int {
	if l.Bins <= 0 || math.IsNaN(delaySeconds) || delaySeconds <= 0 {
		return 0
	}
	idx := math.Floor(delaySeconds / l.BinDuration)
	if idx >= float64(l.Bins-1) {
		return l.Bins - 1
	}
	return int(idx)
}

// EnergyHistogram accumulates path energy into fixed-width time bins, one
// row per output channel. It is owned by a single pipeline and is not safe
// for concurrent use.
type EnergyHistogram struct {
	layout Layout
	bins   [][]float32
}

// NewEnergyHistogram allocates a zeroed histogram for layout
func NewEnergyHistogram(layout Layout) (*EnergyHistogram, error) {
	if err := layout.validate(); err != nil {
		return nil, err
	}
	h := &EnergyHistogram{layout: layout, bins: make([][]float32, layout.Channels)}
	for c := range h.bins {
		h.bins[c] = make([]float32, layout.Bins)
	}
	return h, nil
}

// Layout returns the histogram shape
func (h *EnergyHistogram) Layout() Layout {
	return h.layout
}

// Accumulate adds energy to the bin that delaySeconds falls in, clamped to
// the first and last bin. Unknown channels and non-finite energy are dropped.
func (h *EnergyHistogram) Accumulate(channel int, delaySeconds, energy float32) {
	if channel < 0 || channel >= len(h.bins) {
		return
	}
	e := float64(energy)
	if math.IsNaN(e) || math.IsInf(e, 0) {
		return
	}
	h.bins[channel][h.layout.BinIndex(float64(delaySeconds))] += energy
}

// Flush zeroes one channel
func (h *EnergyHistogram) Flush(channel int) {
	if channel < 0 || channel >= len(h.bins) {
		return
	}
	clear(h.bins[channel])
}

// FlushAll zeroes every channel
func (h *EnergyHistogram) FlushAll() {
	for c := range h.bins {
		clear(h.bins[c])
	}
}

// Channel returns the bins of one channel. The slice is owned by the
// histogram and must not be modified; nil for unknown channels.
func (h *EnergyHistogram) Channel(channel int) []float32 {
	if channel < 0 || channel >= len(h.bins) {
		return nil
	}
	return h.bins[channel]
}

// Total returns the summed energy of one channel
func (h *EnergyHistogram) Total(channel int) float64 {
	total := 0.0
	for _, e := range h.Channel(channel) {
		total += float64(e)
	}
	return total
}

// Clone returns a deep copy
func (h *EnergyHistogram) Clone() *EnergyHistogram {
	c := &EnergyHistogram{layout: h.layout, bins: make([][]float32, len(h.bins))}
	for i := range h.bins {
		c.bins[i] = append([]float32(nil), h.bins[i]...)
	}
	return c
}
