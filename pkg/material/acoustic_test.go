package material

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyClamp_TransmissionBoundedByReflectivity(t *testing.T) {
	m := &AcousticMaterial{
		Absorption:   []float32{0.9},
		Transmission: []float32{0.5},
		Scattering:   []float32{0},
	}
	m.ApplyClamp()
	assert.LessOrEqual(t, m.Transmission[0], float32(0.1)+1e-6)
	assert.LessOrEqual(t, m.Absorption[0]+m.Transmission[0], float32(1)+1e-6)
}

func TestApplyClamp_OutOfRange(t *testing.T) {
	tests := []struct {
		name     string
		in       AcousticMaterial
		expected AcousticMaterial
	}{
		{
			name: "negative and above one",
			in: AcousticMaterial{
				Absorption:   []float32{-0.5, 1.5},
				Transmission: []float32{0.2, 0.2},
				Scattering:   []float32{2, -1},
			},
			expected: AcousticMaterial{
				Absorption:   []float32{0, 1},
				Transmission: []float32{0.2, 0},
				Scattering:   []float32{1, 0},
			},
		},
		{
			name: "already valid",
			in: AcousticMaterial{
				Absorption:   []float32{0.3},
				Transmission: []float32{0.1},
				Scattering:   []float32{0.5},
			},
			expected: AcousticMaterial{
				Absorption:   []float32{0.3},
				Transmission: []float32{0.1},
				Scattering:   []float32{0.5},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.in.Clone()
			m.ApplyClamp()
			if diff := cmp.Diff(&tt.expected, m); diff != "" {
				t.Errorf("ApplyClamp mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNewAcousticMaterial_PadsBands(t *testing.T) {
	m := NewAcousticMaterial("short", []float32{0.1, 0.2, 0.3}, []float32{0.05}, nil)
	require.NoError(t, m.Validate())
	assert.Equal(t, []float32{0.05, 0, 0}, m.Transmission)
	assert.Equal(t, []float32{0, 0, 0}, m.Scattering)
}

func TestDefault(t *testing.T) {
	m := Default()
	assert.Equal(t, DefaultBandCount, m.BandCount())
	for b := 0; b < m.BandCount(); b++ {
		assert.Equal(t, float32(1), m.Reflectivity(b))
	}
}

func TestReflectivity_BandSelection(t *testing.T) {
	m := NewAcousticMaterial("m", []float32{0.1, 0.4, 0.7}, nil, nil)
	assert.InDelta(t, 0.9, m.Reflectivity(BandLow), 1e-6)
	assert.InDelta(t, 0.3, m.Reflectivity(BandHigh), 1e-6)
	assert.InDelta(t, 0.6, m.Reflectivity(AverageBand), 1e-6)
	assert.Equal(t, float32(1), m.Reflectivity(10), "unknown band reflects fully")
}

func TestSplitReflection(t *testing.T) {
	m := Uniform("half", 0.2, 0, 0.25)
	specular, diff := m.SplitReflection(BandMid)
	assert.InDelta(t, 0.6, specular, 1e-6)
	assert.InDelta(t, 0.2, diff, 1e-6)
	assert.InDelta(t, m.Reflectivity(BandMid), specular+diff, 1e-6)
}

func TestValidate(t *testing.T) {
	assert.Error(t, (&AcousticMaterial{Name: "empty"}).Validate())
	bad := &AcousticMaterial{Name: "bad", Absorption: []float32{0}, Transmission: []float32{0, 0}, Scattering: []float32{0}}
	assert.Error(t, bad.Validate())
	assert.NoError(t, Concrete().Validate())
}

func TestPresetsSatisfyEnergyBound(t *testing.T) {
	for _, m := range []*AcousticMaterial{Concrete(), Carpet(), Glass(), Wood(), Curtain(), Anechoic()} {
		for b := 0; b < m.BandCount(); b++ {
			assert.LessOrEqual(t, m.Absorption[b]+m.Transmission[b], float32(1)+1e-6, "%s band %d", m.Name, b)
		}
	}
}
