package integrator

import (
	"github.com/df07/go-progressive-acoustics/pkg/core"
	"github.com/df07/go-progressive-acoustics/pkg/material"
	"github.com/df07/go-progressive-acoustics/pkg/scene"
)

// occlusionStep moves the ray past a surface it just went through
const occlusionStep = 1e-4

// EstimateOcclusion casts the direct line from -> to and multiplies the
// transmission of every surface crossed. 1 means a clear line of sight,
// 0 fully blocked. Surfaces without a resolvable material block completely.
// After maxLayers surfaces the gain accumulated so far is returned.
func EstimateOcclusion(q scene.Query, materials material.Provider, from, to core.Vec3, band, maxLayers int, skip []core.Handle) float32 {
	delta := to.Subtract(from)
	remaining := delta.Length()
	if remaining <= coincidentDistance {
		return 1
	}
	direction := delta.Multiply(1 / remaining)

	gain := float32(1)
	origin := from
	for layer := 0; layer < maxLayers; layer++ {
		hit, ok := q.Query(origin, direction, remaining, skip)
		if !ok {
			return gain
		}

		transmission := float32(0)
		if materials != nil {
			if m, found := materials.Lookup(hit.Material); found {
				transmission = m.TransmissionAt(band)
			}
		}
		gain *= transmission
		if gain <= 0 {
			return 0
		}

		advance := hit.Distance + occlusionStep
		origin = origin.Add(direction.Multiply(advance))
		remaining -= advance
		if remaining <= 0 {
			return gain
		}
	}
	return gain
}
