package analysis

import (
	"math"
	"testing"

	"github.com/df07/go-progressive-acoustics/pkg/impulse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exponentialIR is h[n] = exp(-n / (tau fs)), whose energy decays by
// 60 dB in 3 ln(10) tau seconds.
func exponentialIR(tau, sampleRate, seconds float64) []float64 {
	n := int(seconds * sampleRate)
	ir := make([]float64, n)
	for i := range ir {
		ir[i] = math.Exp(-float64(i) / (tau * sampleRate))
	}
	return ir
}

func TestAnalyzeExponentialDecay(t *testing.T) {
	const tau, fs = 0.1, 1000.0
	ir := append([]float64{0, 0, 0, 0, 0}, exponentialIR(tau, fs, 2)...)

	m, err := Analyze(ir, fs)
	require.NoError(t, err)

	rt60 := 3 * math.Ln10 * tau
	assert.Equal(t, 5, m.PeakIndex)
	assert.InDelta(t, 0.005, m.PeakTime, 1e-12)
	assert.InEpsilon(t, rt60, m.RT60, 1e-3)
	assert.InEpsilon(t, rt60, m.T30, 1e-3)
	assert.InEpsilon(t, rt60, m.T20, 1e-3)
	assert.InEpsilon(t, rt60, m.EDT, 1e-2)

	// early fraction of exp(-2t/tau) energy before 50ms is 1 - e^-1
	d50 := 1 - math.Exp(-1)
	assert.InDelta(t, d50, m.D50, 1e-3)
	assert.InDelta(t, 10*math.Log10(d50/(1-d50)), m.C50, 1e-2)
	assert.Greater(t, m.D80, m.D50)
	assert.Greater(t, m.C80, m.C50)
	assert.InDelta(t, tau/2, m.CenterTime, 1e-3)
}

func TestAnalyzeUnitImpulse(t *testing.T) {
	ir := make([]float64, 100)
	ir[0] = 1

	m, err := Analyze(ir, 1000)
	require.NoError(t, err)
	assert.Equal(t, 0, m.PeakIndex)
	assert.Equal(t, 1.0, m.D50)
	assert.Equal(t, clarityLimit, m.C50)
	assert.Zero(t, m.CenterTime)
	assert.False(t, math.IsInf(m.C80, 0))
}

func TestAnalyzeSilent(t *testing.T) {
	m, err := Analyze(make([]float64, 64), 1000)
	require.NoError(t, err)
	assert.Zero(t, m.RT60)
	assert.Zero(t, m.EDT)
	assert.Zero(t, m.D50)
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name       string
		ir         []float64
		sampleRate float64
		want       error
	}{
		{"empty", nil, 48000, ErrEmptyIR},
		{"zero rate", []float64{1}, 0, ErrInvalidSampleRate},
		{"negative rate", []float64{1}, -1, ErrInvalidSampleRate},
		{"nan rate", []float64{1}, math.NaN(), ErrInvalidSampleRate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Analyze(tt.ir, tt.sampleRate)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSchroederIntegral(t *testing.T) {
	s, err := SchroederIntegral([]float64{1, 1, 0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0, s[0], 1e-12)
	assert.InDelta(t, 10*math.Log10(0.5), s[1], 1e-12)
	assert.Equal(t, schroederFloor, s[2])
	assert.Equal(t, schroederFloor, s[3])

	_, err = SchroederIntegral(nil)
	assert.ErrorIs(t, err, ErrEmptyIR)
}

func TestAnalyzeChannel(t *testing.T) {
	ir := impulse.ImpulseResponse{SampleRate: 1000, Channels: [][]float32{{0, 1, 0.5}, {1, 0, 0}}}
	m, err := AnalyzeChannel(ir, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, m.PeakIndex)

	_, err = AnalyzeChannel(ir, 4)
	assert.ErrorIs(t, err, ErrEmptyIR)
}
