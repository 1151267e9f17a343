package store

import (
	"fmt"

	"github.com/df07/go-progressive-acoustics/pkg/analysis"
	"github.com/df07/go-progressive-acoustics/pkg/simulator"
)

// TickRecordFrom summarises a published source result and its decay metrics
func TickRecordFrom(r *simulator.SourceResult, m analysis.Metrics) TickRecord {
	return TickRecord{
		Tick:        r.Tick,
		Source:      fmt.Sprintf("%d:%d", r.Source.Index, r.Source.Generation),
		Attempted:   r.Stats.Attempted,
		Connected:   r.Stats.Connected,
		TotalEnergy: r.Stats.TotalEnergy,
		Occlusion:   float64(r.Occlusion),
		RT60:        m.RT60,
		C50:         m.C50,
		Duration:    r.Stats.Duration,
	}
}
