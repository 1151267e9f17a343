package scene

import (
	"fmt"
	"path/filepath"

	"github.com/df07/go-progressive-acoustics/pkg/core"
	"github.com/df07/go-progressive-acoustics/pkg/geometry"
	"github.com/df07/go-progressive-acoustics/pkg/loaders"
	"github.com/df07/go-progressive-acoustics/pkg/material"
)

// AddMesh adds a loaded mesh owned by actor. Material slots stored in the mesh
// index into mats; meshes without slots use mats[0] throughout.
func (s *Scene) AddMesh(actor core.Handle, mesh *loaders.PLYMesh, mats []material.Handle, xf *geometry.MeshTransform) (*geometry.TriangleMesh, error) {
	if len(mats) == 0 {
		return nil, fmt.Errorf("mesh needs at least one material")
	}

	options := &geometry.TriangleMeshOptions{Transform: xf}
	if len(mesh.MaterialSlots) > 0 {
		options.Materials = make([]material.Handle, len(mesh.MaterialSlots))
		for i, slot := range mesh.MaterialSlots {
			if slot < 0 || slot >= len(mats) {
				return nil, fmt.Errorf("triangle %d uses material slot %d, only %d given", i, slot, len(mats))
			}
			options.Materials[i] = mats[slot]
		}
	}

	tm, err := geometry.NewTriangleMesh(mesh.Vertices, mesh.Faces, actor, mats[0], options)
	if err != nil {
		return nil, err
	}
	s.AddShapes(tm)
	return tm, nil
}

// LoadPLY reads a PLY mesh from path and adds it under a new actor named
// after the file
func (s *Scene) LoadPLY(path string, mats ...material.Handle) (core.Handle, error) {
	mesh, err := loaders.LoadPLY(path)
	if err != nil {
		return core.Handle{}, err
	}

	actor := s.AddActor("mesh:"+filepath.Base(path), Transform{})
	if _, err := s.AddMesh(actor, mesh, mats, nil); err != nil {
		s.RemoveActor(actor)
		return core.Handle{}, fmt.Errorf("%s: %w", path, err)
	}
	return actor, nil
}
