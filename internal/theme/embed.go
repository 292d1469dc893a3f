package theme

import (
	"embed"
	"io/fs"
	"sort"
	"strings"
)

//go:embed defaults/*.theme
var EmbeddedThemes embed.FS

// EmbeddedNames lists the built-in theme names.
func EmbeddedNames() []string {
	entries, _ := fs.ReadDir(EmbeddedThemes, "defaults")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".theme"))
	}
	sort.Strings(names)
	return names
}
