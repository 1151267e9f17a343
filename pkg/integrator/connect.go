package integrator

import (
	"github.com/df07/go-progressive-acoustics/pkg/core"
	"github.com/df07/go-progressive-acoustics/pkg/scene"
)

// coincidentDistance is the separation below which endpoints are treated as the same point
const coincidentDistance = 1e-9

// Connector joins a forward and a backward subpath with one visibility query
type Connector struct {
	Query scene.Query
	Arena *Arena
	Bias  float64       // the query stops this far short of the backward endpoint
	Skip  []core.Handle // actors the visibility ray passes through
}

// ConnectSubpaths returns the forward nodes followed by the reversed backward
// nodes when the endpoints see each other. Empty inputs never connect.
func (c *Connector) ConnectSubpaths(fwd, bwd *SoundPath) (SoundPath, bool) {
	a, ok := fwd.Endpoint()
	if !ok {
		return SoundPath{}, false
	}
	b, ok := bwd.Endpoint()
	if !ok {
		return SoundPath{}, false
	}

	delta := b.Position.Subtract(a.Position)
	distance := delta.Length()
	if distance > coincidentDistance {
		reach := distance - c.Bias
		if reach > 0 {
			if _, blocked := c.Query.Query(a.Position, delta.Multiply(1/distance), reach, c.Skip); blocked {
				return SoundPath{}, false
			}
		}
	}

	n := len(fwd.Nodes) + len(bwd.Nodes)
	var nodes []PathNode
	var generation uint32
	if c.Arena != nil {
		nodes = c.Arena.alloc(n)
		generation = c.Arena.generation
	} else {
		nodes = make([]PathNode, n)
	}
	copy(nodes, fwd.Nodes)
	for i, j := len(fwd.Nodes), len(bwd.Nodes)-1; j >= 0; i, j = i+1, j-1 {
		nodes[i] = bwd.Nodes[j]
	}

	return SoundPath{
		Nodes:              nodes,
		Connected:          true,
		ForwardConnection:  a.Position,
		BackwardConnection: b.Position,
		ForwardBounces:     len(fwd.Nodes) - 1,
		BackwardBounces:    len(bwd.Nodes) - 1,
		generation:         generation,
	}, true
}

// ConnectSubpaths joins fwd and bwd against q without arena storage
func ConnectSubpaths(q scene.Query, fwd, bwd *SoundPath, bias float64) (SoundPath, bool) {
	c := Connector{Query: q, Bias: bias}
	return c.ConnectSubpaths(fwd, bwd)
}
