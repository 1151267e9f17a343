// Package analysis derives room-acoustic decay metrics from impulse responses.
package analysis

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/df07/go-progressive-acoustics/pkg/impulse"
)

var (
	ErrEmptyIR           = errors.New("analysis: impulse response is empty")
	ErrInvalidSampleRate = errors.New("analysis: sample rate must be positive")
)

const (
	// schroederFloor is the level assigned to samples with no remaining energy
	schroederFloor = -200.0
	// clarityLimit bounds C50/C80 when one side of the boundary is silent
	clarityLimit = 100.0
)

// Metrics are the standard decay and energy-ratio measures of one channel.
// Reverberation times are 0 when the response does not decay far enough.
type Metrics struct {
	RT60       float64 `json:"rt60"`        // seconds, T30 when available, else T20
	EDT        float64 `json:"edt"`         // seconds, 0 to -10 dB extrapolated
	T20        float64 `json:"t20"`         // seconds, -5 to -25 dB extrapolated
	T30        float64 `json:"t30"`         // seconds, -5 to -35 dB extrapolated
	C50        float64 `json:"c50"`         // dB
	C80        float64 `json:"c80"`         // dB
	D50        float64 `json:"d50"`         // early energy ratio, 0..1
	D80        float64 `json:"d80"`         // early energy ratio, 0..1
	CenterTime float64 `json:"center_time"` // seconds
	PeakIndex  int     `json:"peak_index"`  // sample of the absolute maximum
	PeakTime   float64 `json:"peak_time"`   // seconds
}

// Analyze measures ir sampled at sampleRate. All metrics are taken from the
// peak onward so pre-delay does not count as early energy.
func Analyze(ir []float64, sampleRate float64) (Metrics, error) {
	if len(ir) == 0 {
		return Metrics{}, ErrEmptyIR
	}
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return Metrics{}, ErrInvalidSampleRate
	}

	peak := peakIndex(ir)
	tail := ir[peak:]
	schroeder := schroederIntegral(tail)

	m := Metrics{
		PeakIndex:  peak,
		PeakTime:   float64(peak) / sampleRate,
		EDT:        reverbTime(schroeder, sampleRate, 0, -10),
		T20:        reverbTime(schroeder, sampleRate, -5, -25),
		T30:        reverbTime(schroeder, sampleRate, -5, -35),
		C50:        clarity(tail, boundary(50, sampleRate)),
		C80:        clarity(tail, boundary(80, sampleRate)),
		D50:        definition(tail, boundary(50, sampleRate)),
		D80:        definition(tail, boundary(80, sampleRate)),
		CenterTime: centerTime(tail, sampleRate),
	}
	m.RT60 = m.T30
	if m.RT60 == 0 {
		m.RT60 = m.T20
	}
	return m, nil
}

// AnalyzeChannel measures one channel of a reconstructed response
func AnalyzeChannel(ir impulse.ImpulseResponse, channel int) (Metrics, error) {
	return Analyze(ir.Float64(channel), float64(ir.SampleRate))
}

// SchroederIntegral returns the backward-integrated energy decay of ir in
// dB relative to its total energy:
//
//	S(t) = 10 log10( sum_{k>=t} h[k]^2 / sum_k h[k]^2 )
func SchroederIntegral(ir []float64) ([]float64, error) {
	if len(ir) == 0 {
		return nil, ErrEmptyIR
	}
	return schroederIntegral(ir), nil
}

func schroederIntegral(ir []float64) []float64 {
	n := len(ir)
	out := make([]float64, n)
	for i, v := range ir {
		out[n-1-i] = v * v
	}
	floats.CumSum(out, out)
	floats.Reverse(out)

	total := out[0]
	if total <= 0 {
		return out
	}
	for i, v := range out {
		if ratio := v / total; ratio > 0 {
			out[i] = 10 * math.Log10(ratio)
		} else {
			out[i] = schroederFloor
		}
	}
	return out
}

// reverbTime fits a line to the decay curve between startDB and endDB and
// extrapolates it to -60 dB.
func reverbTime(schroeder []float64, sampleRate, startDB, endDB float64) float64 {
	start, end := -1, -1
	for i, v := range schroeder {
		if start < 0 && v <= startDB {
			start = i
		}
		if start >= 0 && v <= endDB {
			end = i
			break
		}
	}
	if start < 0 || end <= start {
		return 0
	}

	xs := make([]float64, end-start+1)
	for i := range xs {
		xs[i] = float64(i) / sampleRate
	}
	_, slope := stat.LinearRegression(xs, schroeder[start:end+1], nil, false)
	if slope >= 0 || math.IsNaN(slope) {
		return 0
	}
	return -60 / slope
}

func boundary(ms, sampleRate float64) int {
	return int(math.Round(ms * 1e-3 * sampleRate))
}

// energies returns the energy before and from the boundary sample
func energies(ir []float64, boundary int) (early, late float64) {
	if boundary > len(ir) {
		boundary = len(ir)
	}
	early = floats.Dot(ir[:boundary], ir[:boundary])
	late = floats.Dot(ir[boundary:], ir[boundary:])
	return early, late
}

func definition(ir []float64, boundary int) float64 {
	if boundary <= 0 {
		return 0
	}
	early, late := energies(ir, boundary)
	if early+late <= 0 {
		return 0
	}
	return early / (early + late)
}

func clarity(ir []float64, boundary int) float64 {
	if boundary <= 0 {
		return -clarityLimit
	}
	early, late := energies(ir, boundary)
	switch {
	case late <= 0:
		return clarityLimit
	case early <= 0:
		return -clarityLimit
	}
	return math.Max(-clarityLimit, math.Min(clarityLimit, 10*math.Log10(early/late)))
}

func centerTime(ir []float64, sampleRate float64) float64 {
	var weighted, total float64
	for i, v := range ir {
		e := v * v
		weighted += float64(i) / sampleRate * e
		total += e
	}
	if total <= 0 {
		return 0
	}
	return weighted / total
}

func peakIndex(ir []float64) int {
	idx, peak := 0, 0.0
	for i, v := range ir {
		if a := math.Abs(v); a > peak {
			idx, peak = i, a
		}
	}
	return idx
}
