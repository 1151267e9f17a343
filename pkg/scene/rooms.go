package scene

import (
	"github.com/df07/go-progressive-acoustics/pkg/core"
	"github.com/df07/go-progressive-acoustics/pkg/material"
)

// RoomMaterials assigns a material to each of the six room surfaces
type RoomMaterials struct {
	Floor, Ceiling, Front, Back, Left, Right material.Handle
}

// AddRoom encloses the box [min, max] with six quads owned by actor
func (s *Scene) AddRoom(actor core.Handle, min, max core.Vec3, mats RoomMaterials) {
	size := max.Subtract(min)
	w := core.NewVec3(size.X, 0, 0)
	h := core.NewVec3(0, size.Y, 0)
	d := core.NewVec3(0, 0, size.Z)

	s.AddWall(actor, mats.Floor, min, w, d)
	s.AddWall(actor, mats.Ceiling, min.Add(h), w, d)
	s.AddWall(actor, mats.Back, min, w, h)
	s.AddWall(actor, mats.Front, min.Add(d), w, h)
	s.AddWall(actor, mats.Left, min, d, h)
	s.AddWall(actor, mats.Right, min.Add(w), d, h)
}

// UniformRoom uses one material for every surface
func UniformRoom(m material.Handle) RoomMaterials {
	return RoomMaterials{Floor: m, Ceiling: m, Front: m, Back: m, Left: m, Right: m}
}

func placeEndpoints(s *Scene, source, listener core.Vec3) {
	s.Source = s.AddActor("source", Transform{Position: source})
	s.Listener = s.AddActor("listener", Transform{Position: listener})
}

// NewShoeboxScene creates an 8 x 3 x 5 m room with carpet, concrete and glass surfaces
func NewShoeboxScene() *Scene {
	s := New("shoebox")
	s.Description = "8x3x5 m room with carpet floor, concrete walls and a glass front"

	concrete := s.Materials.Register(material.Concrete())
	carpet := s.Materials.Register(material.Carpet())
	glass := s.Materials.Register(material.Glass())
	wood := s.Materials.Register(material.Wood())

	room := s.AddActor("room", Transform{})
	s.AddRoom(room, core.NewVec3(-4, 0, -2.5), core.NewVec3(4, 3, 2.5), RoomMaterials{
		Floor:   carpet,
		Ceiling: concrete,
		Front:   glass,
		Back:    concrete,
		Left:    wood,
		Right:   concrete,
	})

	placeEndpoints(s, core.NewVec3(-2, 1.5, 0), core.NewVec3(2, 1.5, 0.5))
	return s
}

// NewPartitionScene creates the shoebox room with a curtained partition
// standing across the line of sight. The partition stops short of the
// ceiling, so sound also reaches the listener around it.
func NewPartitionScene() *Scene {
	s := New("partition")
	s.Description = "8x3x5 m room split by a curtained partition between source and listener"

	concrete := s.Materials.Register(material.Concrete())
	carpet := s.Materials.Register(material.Carpet())
	curtain := s.Materials.Register(material.Curtain())

	room := s.AddActor("room", Transform{})
	mats := UniformRoom(concrete)
	mats.Floor = carpet
	s.AddRoom(room, core.NewVec3(-4, 0, -2.5), core.NewVec3(4, 3, 2.5), mats)

	partition := s.AddActor("partition", Transform{Position: core.NewVec3(0, 1.25, 0.25)})
	s.AddBox(partition, curtain, core.NewVec3(0, 1.25, 0.25), core.NewVec3(0.1, 1.25, 1.5))

	placeEndpoints(s, core.NewVec3(-2, 1.5, 0), core.NewVec3(2, 1.5, 0.5))
	return s
}

// NewWallScene creates open space with one fully absorptive wall running beside
// the direct line between source and listener
func NewWallScene() *Scene {
	s := New("wall")
	s.Description = "Anechoic wall beside a clear line of sight"

	anechoic := s.Materials.Register(material.Anechoic())
	wall := s.AddActor("wall", Transform{})
	s.AddWall(wall, anechoic, core.NewVec3(-2, 0, 1), core.NewVec3(8, 0, 0), core.NewVec3(0, 3, 0))

	placeEndpoints(s, core.NewVec3(0, 1.5, 0), core.NewVec3(4, 1.5, 0))
	return s
}

// NewEmptyScene creates a scene with a source and listener and no geometry
func NewEmptyScene() *Scene {
	s := New("empty")
	s.Description = "Free field, no geometry"
	placeEndpoints(s, core.NewVec3(0, 1.5, 0), core.NewVec3(3, 1.5, 0))
	return s
}

// NewCorridorScene creates a long, narrow concrete corridor with a wooden floor
func NewCorridorScene() *Scene {
	s := New("corridor")
	s.Description = "20 m concrete corridor, source and listener at opposite ends"

	concrete := s.Materials.Register(material.Concrete())
	wood := s.Materials.Register(material.Wood())

	room := s.AddActor("corridor", Transform{})
	mats := UniformRoom(concrete)
	mats.Floor = wood
	s.AddRoom(room, core.NewVec3(-10, 0, -1), core.NewVec3(10, 3, 1), mats)

	placeEndpoints(s, core.NewVec3(-8, 1.5, 0), core.NewVec3(8, 1.5, 0))
	return s
}
