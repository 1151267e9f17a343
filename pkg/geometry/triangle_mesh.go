package geometry

import (
	"fmt"

	"github.com/df07/go-progressive-acoustics/pkg/core"
	"github.com/df07/go-progressive-acoustics/pkg/material"
)

// TriangleMesh represents a collection of triangles with efficient ray intersection
// It uses an internal BVH (Bounding Volume Hierarchy) for fast intersection tests
type TriangleMesh struct {
	triangles []Shape
	bvh       *BVH
	bbox      AABB
	actor     core.Handle
}

// TriangleMeshOptions contains optional parameters for triangle mesh creation
type TriangleMeshOptions struct {
	Materials []material.Handle // Optional per-triangle materials
	Transform *MeshTransform    // Optional placement applied to vertices
}

// MeshTransform rotates vertices around Center and then translates them
type MeshTransform struct {
	Rotation    core.Vec3 // radians around X, Y, Z
	Center      core.Vec3
	Translation core.Vec3
}

// NewTriangleMesh creates a new triangle mesh from vertices and face indices.
// Each group of 3 indices in faces forms a triangle owned by actor with the
// default material mat unless options supplies per-triangle materials.
func NewTriangleMesh(vertices []core.Vec3, faces []int, actor core.Handle, mat material.Handle, options *TriangleMeshOptions) (*TriangleMesh, error) {
	if len(faces)%3 != 0 {
		return nil, fmt.Errorf("face indices must be a multiple of 3, got %d", len(faces))
	}
	numTriangles := len(faces) / 3
	if options != nil && options.Materials != nil && len(options.Materials) != numTriangles {
		return nil, fmt.Errorf("got %d materials for %d triangles", len(options.Materials), numTriangles)
	}

	workingVertices := vertices
	if options != nil && options.Transform != nil {
		xf := options.Transform
		workingVertices = make([]core.Vec3, len(vertices))
		for i, vertex := range vertices {
			vertex = vertex.Subtract(xf.Center).Rotate(xf.Rotation).Add(xf.Center)
			workingVertices[i] = vertex.Add(xf.Translation)
		}
	}

	triangles := make([]Shape, 0, numTriangles)
	for i := 0; i < numTriangles; i++ {
		i0, i1, i2 := faces[i*3], faces[i*3+1], faces[i*3+2]
		if i0 >= len(workingVertices) || i1 >= len(workingVertices) || i2 >= len(workingVertices) ||
			i0 < 0 || i1 < 0 || i2 < 0 {
			return nil, fmt.Errorf("triangle %d has an index out of bounds", i)
		}

		triangleMaterial := mat
		if options != nil && options.Materials != nil {
			triangleMaterial = options.Materials[i]
		}

		v0, v1, v2 := workingVertices[i0], workingVertices[i1], workingVertices[i2]
		// Degenerate triangles have no normal and are never hit
		if v1.Subtract(v0).Cross(v2.Subtract(v0)).IsNearlyZero(1e-12) {
			continue
		}
		triangles = append(triangles, NewTriangle(v0, v1, v2, Surface{Actor: actor, Material: triangleMaterial}))
	}

	var bbox AABB
	if len(triangles) > 0 {
		bbox = triangles[0].BoundingBox()
		for _, tri := range triangles[1:] {
			bbox = bbox.Union(tri.BoundingBox())
		}
	}

	return &TriangleMesh{
		triangles: triangles,
		bvh:       NewBVH(triangles),
		bbox:      bbox,
		actor:     actor,
	}, nil
}

// Hit tests if a ray intersects with any triangle in the mesh
func (tm *TriangleMesh) Hit(ray core.Ray, tMin, tMax float64) (*HitRecord, bool) {
	return tm.bvh.Hit(ray, tMin, tMax, nil)
}

// BoundingBox returns the axis-aligned bounding box for the entire mesh
func (tm *TriangleMesh) BoundingBox() AABB {
	return tm.bbox
}

// Owner returns the actor that owns every triangle of the mesh
func (tm *TriangleMesh) Owner() core.Handle {
	return tm.actor
}

// TriangleCount returns the number of non-degenerate triangles in this mesh
func (tm *TriangleMesh) TriangleCount() int {
	return len(tm.triangles)
}
