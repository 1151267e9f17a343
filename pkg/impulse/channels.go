package impulse

import (
	"math"

	"github.com/df07/go-progressive-acoustics/pkg/config"
	"github.com/df07/go-progressive-acoustics/pkg/core"
)

// ChannelMapper spreads the energy of one arrival over the output channels
type ChannelMapper struct {
	Mode     string
	Channels int
	Right    core.Vec3 // listener's right axis, used by stereo panning
}

// NewChannelMapper creates a mapper for the configured channel mode
func NewChannelMapper(cfg config.Config, right core.Vec3) ChannelMapper {
	return ChannelMapper{Mode: cfg.ChannelMode, Channels: cfg.Channels, Right: right.Normalize()}
}

// Gains writes the per-channel energy share of an arrival into gains and
// returns it. arrival points from the listener toward where the sound came
// from; the zero vector pans to the center.
//
// Duplicate mode gives every channel the full energy. Stereo pan splits
// channels 0 (left) and 1 (right) with an equal-power law; any further
// channels receive the unpanned energy.
func (m ChannelMapper) Gains(arrival core.Vec3, gains []float32) []float32 {
	if cap(gains) < m.Channels {
		gains = make([]float32, m.Channels)
	}
	gains = gains[:m.Channels]
	for i := range gains {
		gains[i] = 1
	}
	if m.Mode != config.ChannelModeStereoPan || m.Channels < 2 {
		return gains
	}

	pan := 0.0
	if dir := arrival.Normalize(); !dir.IsNearlyZero(1e-12) {
		pan = math.Max(-1, math.Min(1, dir.Dot(m.Right)))
	}
	theta := (pan + 1) * math.Pi / 4
	left, right := math.Cos(theta), math.Sin(theta)
	gains[0] = float32(left * left)
	gains[1] = float32(right * right)
	return gains
}

// Accumulate bins one arrival into every channel of h
func (m ChannelMapper) Accumulate(h *EnergyHistogram, arrival core.Vec3, delaySeconds, energy float32, scratch []float32) []float32 {
	scratch = m.Gains(arrival, scratch)
	for c, g := range scratch {
		if g != 0 {
			h.Accumulate(c, delaySeconds, energy*g)
		}
	}
	return scratch
}
