package impulse

import (
	"math"
	"sort"
)

// Tap is one discrete early reflection
type Tap struct {
	DelaySeconds float32 `json:"delay_seconds"`
	Gain         float32 `json:"gain"` // amplitude, sqrt(e / 4pi)
}

// ExtractTaps picks the maxTaps strongest bins of one channel whose start
// lies inside window seconds and returns them in order of arrival.
func ExtractTaps(h *EnergyHistogram, channel, maxTaps int, window float64) []Tap {
	bins := h.Channel(channel)
	if maxTaps <= 0 || len(bins) == 0 || window <= 0 {
		return nil
	}

	layout := h.Layout()
	type candidate struct {
		bin    int
		energy float32
	}
	var candidates []candidate
	for b, e := range bins {
		if float64(b)*layout.BinDuration >= window {
			break
		}
		if e > 0 && !math.IsInf(float64(e), 0) {
			candidates = append(candidates, candidate{bin: b, energy: e})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].energy != candidates[j].energy {
			return candidates[i].energy > candidates[j].energy
		}
		return candidates[i].bin < candidates[j].bin
	})
	if len(candidates) > maxTaps {
		candidates = candidates[:maxTaps]
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].bin < candidates[j].bin
	})

	taps := make([]Tap, len(candidates))
	for i, c := range candidates {
		taps[i] = Tap{
			DelaySeconds: float32(float64(c.bin) * layout.BinDuration),
			Gain:         float32(math.Sqrt(float64(c.energy) / (4 * math.Pi))),
		}
	}
	return taps
}
