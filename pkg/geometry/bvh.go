package geometry

import (
	"sort"

	"github.com/df07/go-progressive-acoustics/pkg/core"
)

// BVHNode represents a node in the Bounding Volume Hierarchy
type BVHNode struct {
	BoundingBox AABB
	Left        *BVHNode
	Right       *BVHNode
	Shapes      []Shape // leaf contents, nil for internal nodes
}

// BVH accelerates nearest-hit queries. It is read-only once built and may be
// queried from any number of goroutines.
type BVH struct {
	Root *BVHNode
}

// Leaf threshold: groups this small are searched linearly
const leafThreshold = 8

// NewBVH constructs a BVH from a slice of shapes
func NewBVH(shapes []Shape) *BVH {
	if len(shapes) == 0 {
		return &BVH{}
	}
	// Sorting reorders the slice, keep the caller's copy intact
	own := make([]Shape, len(shapes))
	copy(own, shapes)
	return &BVH{Root: buildBVH(own)}
}

func buildBVH(shapes []Shape) *BVHNode {
	box := shapes[0].BoundingBox()
	for _, s := range shapes[1:] {
		box = box.Union(s.BoundingBox())
	}

	if len(shapes) <= leafThreshold {
		return &BVHNode{BoundingBox: box, Shapes: shapes}
	}

	// Median split along the longest axis
	axis := box.LongestAxis()
	sort.Slice(shapes, func(i, j int) bool {
		return shapes[i].BoundingBox().Center().Component(axis) < shapes[j].BoundingBox().Center().Component(axis)
	})
	mid := len(shapes) / 2
	return &BVHNode{
		BoundingBox: box,
		Left:        buildBVH(shapes[:mid]),
		Right:       buildBVH(shapes[mid:]),
	}
}

// Hit returns the closest hit in (tMin, tMax), skipping shapes owned by any
// actor in ignore. Uses an explicit stack instead of recursion.
func (bvh *BVH) Hit(ray core.Ray, tMin, tMax float64, ignore []core.Handle) (*HitRecord, bool) {
	if bvh.Root == nil {
		return nil, false
	}

	var closest *HitRecord
	closestT := tMax
	stack := make([]*BVHNode, 0, 32)
	stack = append(stack, bvh.Root)

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !node.BoundingBox.Hit(ray, tMin, closestT) {
			continue
		}
		if node.Shapes == nil {
			if node.Left != nil {
				stack = append(stack, node.Left)
			}
			if node.Right != nil {
				stack = append(stack, node.Right)
			}
			continue
		}
		for _, shape := range node.Shapes {
			if isIgnored(shape.Owner(), ignore) {
				continue
			}
			if hit, ok := shape.Hit(ray, tMin, closestT); ok {
				closestT = hit.T
				closest = hit
			}
		}
	}
	return closest, closest != nil
}

func isIgnored(owner core.Handle, ignore []core.Handle) bool {
	if owner.IsZero() {
		return false
	}
	for _, h := range ignore {
		if h == owner {
			return true
		}
	}
	return false
}

// bvhStats contains statistics about the BVH structure
type bvhStats struct {
	totalNodes  int
	leafNodes   int
	maxDepth    int
	totalShapes int
}

func (bvh *BVH) getStats() bvhStats {
	var stats bvhStats
	if bvh.Root != nil {
		collectStats(bvh.Root, 0, &stats)
	}
	return stats
}

func collectStats(node *BVHNode, depth int, stats *bvhStats) {
	stats.totalNodes++
	if depth > stats.maxDepth {
		stats.maxDepth = depth
	}
	if node.Shapes != nil {
		stats.leafNodes++
		stats.totalShapes += len(node.Shapes)
		return
	}
	if node.Left != nil {
		collectStats(node.Left, depth+1, stats)
	}
	if node.Right != nil {
		collectStats(node.Right, depth+1, stats)
	}
}
