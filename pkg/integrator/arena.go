package integrator

// Arena hands out node storage for one tick. Reset recycles everything at
// once and bumps the generation so paths from earlier ticks can be detected.
// Not safe for concurrent use; each pipeline owns its own arena.
type Arena struct {
	nodes      []PathNode
	generation uint32
	allocated  int
}

const (
	minArenaChunk = 1024
	maxArenaChunk = 64 * 1024
)

// NewArena creates an arena with room for capacity nodes, clamped to a
// modest first slab. Larger ticks grow the arena in slabs.
func NewArena(capacity int) *Arena {
	capacity = min(max(capacity, minArenaChunk), maxArenaChunk)
	return &Arena{nodes: make([]PathNode, 0, capacity), generation: 1}
}

// Reset releases every allocation at once
func (a *Arena) Reset() {
	a.nodes = a.nodes[:0]
	a.allocated = 0
	a.generation++
}

// Generation identifies the current tick
func (a *Arena) Generation() uint32 {
	return a.generation
}

// Allocated returns the number of nodes handed out since the last Reset
func (a *Arena) Allocated() int {
	return a.allocated
}

// alloc returns a zeroed slice of n nodes whose capacity is exactly n
func (a *Arena) alloc(n int) []PathNode {
	if len(a.nodes)+n > cap(a.nodes) {
		// Start a new slab; slices from the old one stay valid until Reset
		size := 2 * cap(a.nodes)
		if size < n {
			size = n
		}
		if size < minArenaChunk {
			size = minArenaChunk
		}
		a.nodes = make([]PathNode, 0, size)
	}
	start := len(a.nodes)
	a.nodes = a.nodes[:start+n]
	out := a.nodes[start : start+n : start+n]
	for i := range out {
		out[i] = PathNode{}
	}
	a.allocated += n
	return out
}

// NewPath copies nodes into arena storage
func (a *Arena) NewPath(nodes []PathNode) SoundPath {
	stored := a.alloc(len(nodes))
	copy(stored, nodes)
	return SoundPath{Nodes: stored, generation: a.generation}
}

// Owns reports whether p was allocated during the current tick
func (a *Arena) Owns(p *SoundPath) bool {
	return p.generation == a.generation
}
