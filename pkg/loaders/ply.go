// Package loaders reads room geometry from mesh files.
package loaders

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/df07/go-progressive-acoustics/pkg/core"
)

// ErrUnsupportedPLY is returned for PLY features the loader does not read
var ErrUnsupportedPLY = errors.New("unsupported PLY file")

// PLYHeader represents the parsed header information from a PLY file
type PLYHeader struct {
	Format      string // "binary_little_endian", "binary_big_endian", or "ascii"
	Version     string // Usually "1.0"
	VertexCount int
	FaceCount   int
	VertexProps []PLYProperty
	FaceProps   []PLYProperty
}

// PLYProperty represents a property definition in the PLY header
type PLYProperty struct {
	Name     string
	Type     string
	IsList   bool
	ListType string // For list properties, the type of the count
	DataType string // For list properties, the type of the data
}

// PLYMesh is the triangle soup read from a PLY file. Polygons are fanned
// into triangles.
type PLYMesh struct {
	Vertices []core.Vec3
	Faces    []int // Triangle indices (3 per triangle)

	// Per-triangle material slot from an optional integer face property
	// named "material", empty if not present
	MaterialSlots []int
}

// TriangleCount returns the number of triangles in the mesh
func (m *PLYMesh) TriangleCount() int {
	return len(m.Faces) / 3
}

// LoadPLY loads a PLY file
func LoadPLY(filename string) (*PLYMesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PLY file: %w", err)
	}
	defer file.Close()

	mesh, err := ReadPLY(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return mesh, nil
}

// ReadPLY reads an ASCII or binary PLY stream
func ReadPLY(r io.Reader) (*PLYMesh, error) {
	reader := bufio.NewReaderSize(r, 1024*1024) // 1MB buffer

	header, err := parsePLYHeader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PLY header: %w", err)
	}

	var values valueReader
	switch header.Format {
	case "ascii":
		scanner := bufio.NewScanner(reader)
		scanner.Split(bufio.ScanWords)
		values = &asciiValues{scanner: scanner}
	case "binary_little_endian":
		values = &binaryValues{reader: reader, order: binary.LittleEndian}
	case "binary_big_endian":
		values = &binaryValues{reader: reader, order: binary.BigEndian}
	default:
		return nil, fmt.Errorf("%w: format %q", ErrUnsupportedPLY, header.Format)
	}

	mesh, err := readBody(header, values)
	if err != nil {
		return nil, fmt.Errorf("failed to read PLY data: %w", err)
	}
	return mesh, nil
}

// parsePLYHeader reads up to and including the end_header line
func parsePLYHeader(reader *bufio.Reader) (*PLYHeader, error) {
	header := &PLYHeader{}
	var currentElement string

	for lineNo := 0; ; lineNo++ {
		raw, err := reader.ReadString('\n')
		if err != nil && (err != io.EOF || raw == "") {
			return nil, fmt.Errorf("header ended before end_header: %w", err)
		}
		line := strings.TrimSpace(raw)

		if lineNo == 0 {
			if line != "ply" {
				return nil, fmt.Errorf("%w: missing ply magic", ErrUnsupportedPLY)
			}
			continue
		}
		if line == "end_header" {
			break
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "format":
			if len(parts) >= 3 {
				header.Format = parts[1]
				header.Version = parts[2]
			}
		case "comment", "obj_info":
			// Ignore comments
		case "element":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid element line: %q", line)
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("invalid element count: %s", parts[2])
			}
			currentElement = parts[1]
			switch currentElement {
			case "vertex":
				header.VertexCount = count
			case "face":
				header.FaceCount = count
			default:
				// Elements other than vertex and face would need skipping
				// in file order, which the body reader does not track
				if count > 0 {
					return nil, fmt.Errorf("%w: element %q", ErrUnsupportedPLY, currentElement)
				}
			}
		case "property":
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, fmt.Errorf("failed to parse property: %w", err)
			}
			switch currentElement {
			case "vertex":
				header.VertexProps = append(header.VertexProps, prop)
			case "face":
				header.FaceProps = append(header.FaceProps, prop)
			}
		}

		if err == io.EOF {
			return nil, fmt.Errorf("header ended before end_header")
		}
	}

	if header.Format == "" {
		return nil, fmt.Errorf("missing format line")
	}
	return header, nil
}

// parsePLYProperty parses a property line from the PLY header
func parsePLYProperty(parts []string) (PLYProperty, error) {
	if len(parts) < 2 {
		return PLYProperty{}, fmt.Errorf("invalid property definition")
	}

	if parts[0] == "list" {
		if len(parts) < 4 {
			return PLYProperty{}, fmt.Errorf("invalid list property definition")
		}
		return PLYProperty{IsList: true, ListType: parts[1], DataType: parts[2], Name: parts[3]}, nil
	}
	return PLYProperty{Type: parts[0], Name: parts[1]}, nil
}

// readBody reads the vertex element followed by the face element
func readBody(header *PLYHeader, values valueReader) (*PLYMesh, error) {
	mesh := &PLYMesh{
		Vertices: make([]core.Vec3, 0, header.VertexCount),
		Faces:    make([]int, 0, header.FaceCount*3),
	}

	for i := 0; i < header.VertexCount; i++ {
		var xyz [3]float64
		for _, prop := range header.VertexProps {
			if prop.IsList {
				if err := skipList(values, prop); err != nil {
					return nil, fmt.Errorf("vertex %d: %w", i, err)
				}
				continue
			}
			value, err := values.next(prop.Type)
			if err != nil {
				return nil, fmt.Errorf("vertex %d property %s: %w", i, prop.Name, err)
			}
			switch prop.Name {
			case "x":
				xyz[0] = value
			case "y":
				xyz[1] = value
			case "z":
				xyz[2] = value
			}
		}
		mesh.Vertices = append(mesh.Vertices, core.NewVec3(xyz[0], xyz[1], xyz[2]))
	}

	hasSlots := false
	for _, prop := range header.FaceProps {
		if prop.Name == "material" && !prop.IsList {
			hasSlots = true
		}
	}

	for i := 0; i < header.FaceCount; i++ {
		var polygon []int
		slot := 0
		for _, prop := range header.FaceProps {
			switch {
			case prop.IsList && (prop.Name == "vertex_indices" || prop.Name == "vertex_index"):
				indices, err := readList(values, prop)
				if err != nil {
					return nil, fmt.Errorf("face %d: %w", i, err)
				}
				polygon = indices
			case prop.IsList:
				if err := skipList(values, prop); err != nil {
					return nil, fmt.Errorf("face %d: %w", i, err)
				}
			default:
				value, err := values.next(prop.Type)
				if err != nil {
					return nil, fmt.Errorf("face %d property %s: %w", i, prop.Name, err)
				}
				if prop.Name == "material" {
					slot = int(value)
				}
			}
		}

		if len(polygon) < 3 {
			return nil, fmt.Errorf("face %d has %d vertices", i, len(polygon))
		}
		for _, index := range polygon {
			if index < 0 || index >= len(mesh.Vertices) {
				return nil, fmt.Errorf("face %d index %d out of range", i, index)
			}
		}
		// Fan triangulation around the first vertex
		for k := 1; k+1 < len(polygon); k++ {
			mesh.Faces = append(mesh.Faces, polygon[0], polygon[k], polygon[k+1])
			if hasSlots {
				mesh.MaterialSlots = append(mesh.MaterialSlots, slot)
			}
		}
	}

	return mesh, nil
}

func readList(values valueReader, prop PLYProperty) ([]int, error) {
	count, err := values.next(prop.ListType)
	if err != nil {
		return nil, fmt.Errorf("list %s count: %w", prop.Name, err)
	}
	out := make([]int, int(count))
	for k := range out {
		value, err := values.next(prop.DataType)
		if err != nil {
			return nil, fmt.Errorf("list %s item %d: %w", prop.Name, k, err)
		}
		out[k] = int(value)
	}
	return out, nil
}

func skipList(values valueReader, prop PLYProperty) error {
	_, err := readList(values, prop)
	return err
}

// valueReader yields successive scalar values of the declared PLY type
type valueReader interface {
	next(dataType string) (float64, error)
}

type asciiValues struct {
	scanner *bufio.Scanner
}

func (a *asciiValues) next(dataType string) (float64, error) {
	if !a.scanner.Scan() {
		if err := a.scanner.Err(); err != nil {
			return 0, err
		}
		return 0, io.ErrUnexpectedEOF
	}
	return strconv.ParseFloat(a.scanner.Text(), 64)
}

type binaryValues struct {
	reader io.Reader
	order  binary.ByteOrder
	buf    [8]byte
}

func (b *binaryValues) next(dataType string) (float64, error) {
	size := getTypeSize(dataType)
	if size == 0 {
		return 0, fmt.Errorf("%w: property type %q", ErrUnsupportedPLY, dataType)
	}
	data := b.buf[:size]
	if _, err := io.ReadFull(b.reader, data); err != nil {
		return 0, err
	}

	switch dataType {
	case "char", "int8":
		return float64(int8(data[0])), nil
	case "uchar", "uint8":
		return float64(data[0]), nil
	case "short", "int16":
		return float64(int16(b.order.Uint16(data))), nil
	case "ushort", "uint16":
		return float64(b.order.Uint16(data)), nil
	case "int", "int32":
		return float64(int32(b.order.Uint32(data))), nil
	case "uint", "uint32":
		return float64(b.order.Uint32(data)), nil
	case "float", "float32":
		return float64(math.Float32frombits(b.order.Uint32(data))), nil
	default: // double, float64
		return math.Float64frombits(b.order.Uint64(data)), nil
	}
}

// getTypeSize returns the size in bytes of a PLY data type, or 0 if unknown
func getTypeSize(dataType string) int {
	switch dataType {
	case "float", "float32", "int", "int32", "uint", "uint32":
		return 4
	case "double", "float64":
		return 8
	case "short", "int16", "ushort", "uint16":
		return 2
	case "char", "int8", "uchar", "uint8":
		return 1
	default:
		return 0
	}
}
