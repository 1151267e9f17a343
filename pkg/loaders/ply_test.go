package loaders

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-progressive-acoustics/pkg/core"
)

const asciiQuad = `ply
format ascii 1.0
comment a 1x1 floor tile
element vertex 4
property float x
property float y
property float z
property float nx
element face 1
property list uchar int vertex_indices
property uchar material
end_header
0 0 0 9
1 0 0 9
1 0 1 9
0 0 1 9
4 0 1 2 3 1
`

func TestReadPLY_ASCII(t *testing.T) {
	mesh, err := ReadPLY(strings.NewReader(asciiQuad))
	require.NoError(t, err)

	assert.Equal(t, []core.Vec3{
		core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(1, 0, 1), core.NewVec3(0, 0, 1),
	}, mesh.Vertices)
	// The quad is fanned into two triangles, each keeping the face's slot
	assert.Equal(t, []int{0, 1, 2, 0, 2, 3}, mesh.Faces)
	assert.Equal(t, []int{1, 1}, mesh.MaterialSlots)
	assert.Equal(t, 2, mesh.TriangleCount())
}

// binaryTriangle writes a one-triangle binary PLY with double vertices and
// uint32 indices
func binaryTriangle(t *testing.T, order binary.ByteOrder, format string) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("ply\nformat " + format + " 1.0\n")
	buf.WriteString("element vertex 3\nproperty double x\nproperty double y\nproperty double z\n")
	buf.WriteString("element face 1\nproperty list uchar uint vertex_indices\nend_header\n")

	for _, v := range [][3]float64{{0, 0, 0}, {2, 0, 0}, {0, 2, 0}} {
		require.NoError(t, binary.Write(&buf, order, v))
	}
	require.NoError(t, binary.Write(&buf, order, uint8(3)))
	require.NoError(t, binary.Write(&buf, order, [3]uint32{0, 1, 2}))
	return buf.Bytes()
}

func TestReadPLY_Binary(t *testing.T) {
	tests := []struct {
		name   string
		order  binary.ByteOrder
		format string
	}{
		{"little endian", binary.LittleEndian, "binary_little_endian"},
		{"big endian", binary.BigEndian, "binary_big_endian"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mesh, err := ReadPLY(bytes.NewReader(binaryTriangle(t, tt.order, tt.format)))
			require.NoError(t, err)
			assert.Equal(t, []core.Vec3{core.NewVec3(0, 0, 0), core.NewVec3(2, 0, 0), core.NewVec3(0, 2, 0)}, mesh.Vertices)
			assert.Equal(t, []int{0, 1, 2}, mesh.Faces)
			assert.Empty(t, mesh.MaterialSlots)
		})
	}
}

func TestReadPLY_Errors(t *testing.T) {
	header := "ply\nformat ascii 1.0\nelement vertex 3\nproperty float x\nproperty float y\nproperty float z\n"
	faces := "element face 1\nproperty list uchar int vertex_indices\nend_header\n"
	verts := "0 0 0\n1 0 0\n0 1 0\n"

	tests := []struct {
		name  string
		input string
	}{
		{"missing magic", "format ascii 1.0\nend_header\n"},
		{"no end_header", "ply\nformat ascii 1.0\n"},
		{"missing format", "ply\nelement vertex 0\nend_header\n"},
		{"unknown format", "ply\nformat binary_middle_endian 1.0\nend_header\n"},
		{"extra element", "ply\nformat ascii 1.0\nelement edge 2\nend_header\n"},
		{"truncated body", header + faces + "0 0 0\n"},
		{"index out of range", header + faces + verts + "3 0 1 7\n"},
		{"two vertex face", header + faces + verts + "2 0 1\n"},
		{"bad number", header + faces + "0 0 zero\n1 0 0\n0 1 0\n3 0 1 2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadPLY(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestReadPLY_UnsupportedIsTyped(t *testing.T) {
	_, err := ReadPLY(strings.NewReader("ply\nformat binary_middle_endian 1.0\nend_header\n"))
	assert.ErrorIs(t, err, ErrUnsupportedPLY)
}

func TestLoadPLY(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tile.ply")
	require.NoError(t, os.WriteFile(path, []byte(asciiQuad), 0644))

	mesh, err := LoadPLY(path)
	require.NoError(t, err)
	assert.Equal(t, 2, mesh.TriangleCount())

	_, err = LoadPLY(filepath.Join(t.TempDir(), "missing.ply"))
	assert.Error(t, err)
}
