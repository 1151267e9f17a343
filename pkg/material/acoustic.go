package material

import (
	"fmt"
	"math"
)

// Band indices of the default three-band layout
const (
	BandLow = iota
	BandMid
	BandHigh
	DefaultBandCount
)

// AverageBand selects the mean over all bands instead of a single band
const AverageBand = -1

// AcousticMaterial describes how a surface treats incident sound, per frequency band.
// Every coefficient lies in [0,1] and absorption+transmission <= 1 for each band
// once ApplyClamp has run.
type AcousticMaterial struct {
	Name         string
	Absorption   []float32
	Transmission []float32
	Scattering   []float32
	ThicknessCm  float32
}

// NewAcousticMaterial creates a material from per-band coefficients and clamps it.
// Shorter slices are padded with zeros to the length of absorption.
func NewAcousticMaterial(name string, absorption, transmission, scattering []float32) *AcousticMaterial {
	n := len(absorption)
	m := &AcousticMaterial{
		Name:         name,
		Absorption:   padBands(absorption, n),
		Transmission: padBands(transmission, n),
		Scattering:   padBands(scattering, n),
		ThicknessCm:  2.5,
	}
	m.ApplyClamp()
	return m
}

// Default returns the three-band material with every coefficient zero:
// a perfectly reflective, opaque, specular surface.
func Default() *AcousticMaterial {
	zero := make([]float32, DefaultBandCount)
	return NewAcousticMaterial("default", zero, zero, zero)
}

// Uniform returns a material with the same coefficients in every default band
func Uniform(name string, absorption, transmission, scattering float32) *AcousticMaterial {
	return NewAcousticMaterial(name,
		repeatBand(absorption), repeatBand(transmission), repeatBand(scattering))
}

func repeatBand(v float32) []float32 {
	out := make([]float32, DefaultBandCount)
	for i := range out {
		out[i] = v
	}
	return out
}

func padBands(values []float32, n int) []float32 {
	out := make([]float32, n)
	copy(out, values)
	return out
}

// BandCount returns the number of frequency bands
func (m *AcousticMaterial) BandCount() int {
	return len(m.Absorption)
}

// ApplyClamp forces every coefficient into [0,1] and then transmission to at
// most the reflectivity (1 - absorption) of its band. Never fails.
func (m *AcousticMaterial) ApplyClamp() {
	clamp01(m.Absorption)
	clamp01(m.Transmission)
	clamp01(m.Scattering)
	for i := range m.Transmission {
		if i >= len(m.Absorption) {
			m.Transmission[i] = 0
			continue
		}
		reflectivity := 1 - m.Absorption[i]
		if m.Transmission[i] > reflectivity {
			m.Transmission[i] = reflectivity
		}
	}
}

func clamp01(values []float32) {
	for i, v := range values {
		switch {
		case math.IsNaN(float64(v)) || v < 0:
			values[i] = 0
		case v > 1:
			values[i] = 1
		}
	}
}

// Reflectivity returns 1 - absorption for band, or the mean over bands for AverageBand.
// Out-of-range bands behave as perfectly reflective.
func (m *AcousticMaterial) Reflectivity(band int) float32 {
	return 1 - m.bandValue(m.Absorption, band)
}

// TransmissionAt returns the transmission coefficient for band
func (m *AcousticMaterial) TransmissionAt(band int) float32 {
	return m.bandValue(m.Transmission, band)
}

// ScatteringAt returns the scattering coefficient for band
func (m *AcousticMaterial) ScatteringAt(band int) float32 {
	return m.bandValue(m.Scattering, band)
}

// SplitReflection divides the reflected energy of band into its specular and
// diffuse parts by the scattering coefficient.
func (m *AcousticMaterial) SplitReflection(band int) (specular, diffuse float32) {
	refl := m.Reflectivity(band)
	s := m.ScatteringAt(band)
	return refl * (1 - s), refl * s
}

func (m *AcousticMaterial) bandValue(values []float32, band int) float32 {
	if band == AverageBand {
		if len(values) == 0 {
			return 0
		}
		var sum float32
		for _, v := range values {
			sum += v
		}
		return sum / float32(len(values))
	}
	if band < 0 || band >= len(values) {
		return 0
	}
	return values[band]
}

// Validate reports whether the band layout is consistent
func (m *AcousticMaterial) Validate() error {
	if len(m.Absorption) == 0 {
		return fmt.Errorf("material %q: no bands", m.Name)
	}
	if len(m.Transmission) != len(m.Absorption) || len(m.Scattering) != len(m.Absorption) {
		return fmt.Errorf("material %q: band count mismatch (absorption %d, transmission %d, scattering %d)",
			m.Name, len(m.Absorption), len(m.Transmission), len(m.Scattering))
	}
	return nil
}

// Clone returns a deep copy
func (m *AcousticMaterial) Clone() *AcousticMaterial {
	return &AcousticMaterial{
		Name:         m.Name,
		Absorption:   append([]float32(nil), m.Absorption...),
		Transmission: append([]float32(nil), m.Transmission...),
		Scattering:   append([]float32(nil), m.Scattering...),
		ThicknessCm:  m.ThicknessCm,
	}
}
