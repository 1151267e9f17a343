package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-progressive-acoustics/pkg/impulse"
	"github.com/df07/go-progressive-acoustics/pkg/simulator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResult(t *testing.T) *simulator.SourceResult {
	t.Helper()
	layout := impulse.Layout{Channels: 2, Bins: 50, BinDuration: 0.001, SampleRate: 8000}
	h, err := impulse.NewEnergyHistogram(layout)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		h.Accumulate(i%2, float32(i)*0.001, 1/float32(i+1))
	}
	r := &impulse.Reconstructor{Layout: layout, FilterAlpha: 0.25, Epsilon: impulse.DefaultEpsilon}
	ir, err := r.Reconstruct(h)
	require.NoError(t, err)
	return &simulator.SourceResult{
		Tick:      3,
		Histogram: h,
		Response:  ir,
		Taps:      impulse.ExtractTaps(h, 0, 4, 0.02),
		Occlusion: 1,
	}
}

func TestWritePNG(t *testing.T) {
	result := testResult(t)
	path := filepath.Join(t.TempDir(), "plots", "ir.png")

	require.NoError(t, WritePNG(path, result.Response, "shoebox"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")), "not a PNG file")

	err = WritePNG(path, impulse.ImpulseResponse{}, "empty")
	assert.Error(t, err)
}

func TestWriteDecayPNG(t *testing.T) {
	result := testResult(t)
	path := filepath.Join(t.TempDir(), "decay.png")
	require.NoError(t, WriteDecayPNG(path, result.Response, 0, "decay"))
	_, err := os.Stat(path)
	require.NoError(t, err)

	assert.Error(t, WriteDecayPNG(path, result.Response, 7, "missing channel"))
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, testResult(t), "Shoebox IR"))

	html := buf.String()
	assert.True(t, strings.Contains(html, "echarts"), "page should load echarts")
	assert.Contains(t, html, "Shoebox IR")
	assert.Contains(t, html, "energy ch 1")
	assert.Contains(t, html, "Early reflections")

	assert.Error(t, WriteHTML(&buf, nil, "none"))
}

func TestDecimate(t *testing.T) {
	samples := []float32{0.1, -0.9, 0.2, 0.3, 0.5, -0.1, 0, 0.05}
	tests := []struct {
		name       string
		maxPoints  int
		wantIdx    []int
		wantValues []float64
	}{
		{"no reduction", 10, []int{0, 1, 2, 3, 4, 5, 6, 7}, nil},
		{"pairs", 4, []int{1, 3, 4, 7}, []float64{float64(float32(-0.9)), float64(float32(0.3)), 0.5, float64(float32(0.05))}},
		{"uneven windows", 3, []int{1, 4, 7}, nil},
		{"zero", 0, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, values := Decimate(samples, tt.maxPoints)
			assert.Equal(t, tt.wantIdx, idx)
			assert.Len(t, values, len(tt.wantIdx))
			if tt.wantValues != nil {
				assert.Equal(t, tt.wantValues, values)
			}
		})
	}
}
