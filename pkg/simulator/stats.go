package simulator

import "time"

// TickStats describes one pipeline run for one source
type TickStats struct {
	Tick          int           `json:"tick"`
	ForwardNodes  int           `json:"forward_nodes"`  // nodes over all forward subpaths
	BackwardNodes int           `json:"backward_nodes"` // nodes over all backward subpaths
	Attempted     int           `json:"attempted"`      // connection attempts
	Connected     int           `json:"connected"`      // evaluated connected paths
	SkippedDirect int           `json:"skipped_direct"` // direct connections dropped by configuration
	MaxBounces    int           `json:"max_bounces"`    // longest connected path, in bounces
	TotalEnergy   float64       `json:"total_energy"`   // weighted energy binned this tick
	Duration      time.Duration `json:"duration"`
}

// ConnectionRate returns the fraction of connection attempts that succeeded
func (s TickStats) ConnectionRate() float64 {
	if s.Attempted == 0 {
		return 0
	}
	return float64(s.Connected) / float64(s.Attempted)
}

// addPath records one connected path
func (s *TickStats) addPath(bounces int, energy float32) {
	s.Connected++
	s.TotalEnergy += float64(energy)
	s.MaxBounces = max(s.MaxBounces, bounces)
}

// TickSummary aggregates one simulator tick across all sources
type TickSummary struct {
	Tick     int             `json:"tick"`
	Sources  int             `json:"sources"`
	Dropped  int             `json:"dropped"` // stale sources compacted before the tick
	Results  []*SourceResult `json:"-"`
	Duration time.Duration   `json:"duration"`

	// WarmingUp marks a tick skipped because the warm-up period has not
	// elapsed. Nothing was traced or published.
	WarmingUp bool `json:"warming_up"`
}

// Connected returns the connected path count over all sources
func (s TickSummary) Connected() int {
	total := 0
	for _, r := range s.Results {
		total += r.Stats.Connected
	}
	return total
}
