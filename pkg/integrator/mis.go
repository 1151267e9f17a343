package integrator

import "math"

// StratumKey identifies the sampling technique that produced a connected
// path: how many bounces came from each side.
type StratumKey struct {
	Forward  int
	Backward int
}

// Stratum summarises the evaluated paths of one technique
type Stratum struct {
	Key             StratumKey
	Count           int
	MeanProbability float64
	MeanEnergy      float64
	Weight          float64 // balance-heuristic weight within its bounce count
}

// MISCombiner weights connected paths with the balance heuristic. Paths of
// the same total bounce count that were built by different techniques
// (forward/backward splits) estimate the same quantity; each technique k is
// weighted by w_k = c_k p_k / sum_j c_j p_j, where c_k is its share of the
// paths and p_k its mean sampling probability.
//
// Internal sums are float64; inputs and outputs stay float32.
type MISCombiner struct {
	Enabled bool
}

// Strata groups the evaluated paths by technique and computes their weights
func (m *MISCombiner) Strata(paths []SoundPath) map[StratumKey]*Stratum {
	strata := make(map[StratumKey]*Stratum)
	for i := range paths {
		p := &paths[i]
		key := StratumKey{Forward: p.ForwardBounces, Backward: p.BackwardBounces}
		s, ok := strata[key]
		if !ok {
			s = &Stratum{Key: key}
			strata[key] = s
		}
		s.Count++
		s.MeanProbability += float64(p.SamplingProbability)
		s.MeanEnergy += float64(p.EnergyContribution)
	}

	// per total bounce count: sum of n_k and of c_k p_k
	totals := make(map[int]float64)
	for _, s := range strata {
		s.MeanProbability /= float64(s.Count)
		s.MeanEnergy /= float64(s.Count)
		totals[s.Key.Forward+s.Key.Backward] += float64(s.Count)
	}
	denominators := make(map[int]float64)
	for _, s := range strata {
		bounces := s.Key.Forward + s.Key.Backward
		denominators[bounces] += float64(s.Count) / totals[bounces] * s.MeanProbability
	}

	for _, s := range strata {
		bounces := s.Key.Forward + s.Key.Backward
		share := float64(s.Count) / totals[bounces]
		denom := denominators[bounces]
		if !m.Enabled || denom <= 0 || math.IsNaN(denom) || math.IsInf(denom, 0) {
			s.Weight = share
			continue
		}
		s.Weight = share * s.MeanProbability / denom
	}
	return strata
}

// PathWeights returns, for each path, the scale n_i w_k / n_k. Binning
// weight times energy then sums to n_i times the combined estimate
// sum_k w_k F_k of its bounce count. Uniform probabilities give 1.
func (m *MISCombiner) PathWeights(paths []SoundPath) []float32 {
	weights := make([]float32, len(paths))
	if !m.Enabled {
		for i := range weights {
			weights[i] = 1
		}
		return weights
	}

	strata := m.Strata(paths)
	totals := make(map[int]int)
	for _, s := range strata {
		totals[s.Key.Forward+s.Key.Backward] += s.Count
	}
	for i := range paths {
		key := StratumKey{Forward: paths[i].ForwardBounces, Backward: paths[i].BackwardBounces}
		s := strata[key]
		w := float64(totals[key.Forward+key.Backward]) * s.Weight / float64(s.Count)
		if math.IsNaN(w) || math.IsInf(w, 0) {
			w = 1
		}
		weights[i] = float32(w)
	}
	return weights
}

// CombinedEstimate returns sum_k w_k F_k per total bounce count
func (m *MISCombiner) CombinedEstimate(paths []SoundPath) map[int]float64 {
	estimates := make(map[int]float64)
	for _, s := range m.Strata(paths) {
		estimates[s.Key.Forward+s.Key.Backward] += s.Weight * s.MeanEnergy
	}
	return estimates
}
