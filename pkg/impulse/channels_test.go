package impulse

import (
	"testing"

	"github.com/df07/go-progressive-acoustics/pkg/config"
	"github.com/df07/go-progressive-acoustics/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelMapperGains(t *testing.T) {
	right := core.NewVec3(1, 0, 0)
	tests := []struct {
		name     string
		mode     string
		channels int
		arrival  core.Vec3
		want     []float32
	}{
		{"duplicate", config.ChannelModeDuplicate, 2, core.NewVec3(1, 0, 0), []float32{1, 1}},
		{"duplicate mono", config.ChannelModeDuplicate, 1, core.NewVec3(0, 0, 1), []float32{1}},
		{"pan right", config.ChannelModeStereoPan, 2, core.NewVec3(5, 0, 0), []float32{0, 1}},
		{"pan left", config.ChannelModeStereoPan, 2, core.NewVec3(-1, 0, 0), []float32{1, 0}},
		{"pan front", config.ChannelModeStereoPan, 2, core.NewVec3(0, 0, -1), []float32{0.5, 0.5}},
		{"pan zero arrival", config.ChannelModeStereoPan, 2, core.Vec3{}, []float32{0.5, 0.5}},
		{"pan extra channel", config.ChannelModeStereoPan, 3, core.NewVec3(1, 0, 0), []float32{0, 1, 1}},
		{"pan mono falls back", config.ChannelModeStereoPan, 1, core.NewVec3(1, 0, 0), []float32{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ChannelMapper{Mode: tt.mode, Channels: tt.channels, Right: right}
			got := m.Gains(tt.arrival, nil)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], got[i], 1e-6, "channel %d", i)
			}
		})
	}
}

func TestChannelMapperPanPreservesEnergy(t *testing.T) {
	m := ChannelMapper{Mode: config.ChannelModeStereoPan, Channels: 2, Right: core.NewVec3(1, 0, 0)}
	for _, arrival := range []core.Vec3{
		core.NewVec3(0.3, 0.2, -0.9),
		core.NewVec3(-0.8, 0.1, 0.1),
		core.NewVec3(0, 1, 0),
	} {
		g := m.Gains(arrival, nil)
		assert.InDelta(t, 1.0, g[0]+g[1], 1e-6)
	}
}

func TestChannelMapperAccumulate(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ChannelMode = config.ChannelModeStereoPan
	m := NewChannelMapper(cfg, core.NewVec3(2, 0, 0))

	h, err := NewEnergyHistogram(smallLayout(2, 4))
	require.NoError(t, err)
	scratch := m.Accumulate(h, core.NewVec3(-1, 0, 0), 0.0012, 0.8, nil)
	m.Accumulate(h, core.Vec3{}, 0.0032, 1, scratch)

	assert.InDelta(t, 0.8, h.Channel(0)[1], 1e-6)
	assert.InDelta(t, 0, h.Channel(1)[1], 1e-6)
	assert.InDelta(t, 0.5, h.Channel(0)[3], 1e-6)
	assert.InDelta(t, 0.5, h.Channel(1)[3], 1e-6)
}
