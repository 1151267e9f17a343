package scene

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownScene is returned by Create for names not in the catalog
var ErrUnknownScene = errors.New("unknown scene")

// SceneInfo describes a built-in scene for listings
type SceneInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
}

var builders = map[string]func() *Scene{
	"shoebox":   NewShoeboxScene,
	"partition": NewPartitionScene,
	"wall":      NewWallScene,
	"empty":     NewEmptyScene,
	"corridor":  NewCorridorScene,
}

// Names returns the built-in scene names in sorted order
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create builds the named scene
func Create(name string) (*Scene, error) {
	build, ok := builders[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownScene, name, strings.Join(Names(), ", "))
	}
	return build(), nil
}

// ListScenes returns metadata for every built-in scene, sorted by ID
func ListScenes() []SceneInfo {
	var infos []SceneInfo
	for _, name := range Names() {
		s := builders[name]()
		infos = append(infos, SceneInfo{
			ID:          name,
			DisplayName: titleCase(name),
			Description: s.Description,
		})
	}
	return infos
}

// titleCase converts a filename-style string to title case
// e.g., "shoebox-small" -> "Shoebox Small"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	return strings.Join(words, " ")
}
