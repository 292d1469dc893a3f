// Package config reads the maskpaint rc file and environment overrides.
package config

import (
	"fmt"
	"image/color"
	"sort"
	"strings"
	"time"

	"github.com/example/maskpaint/internal/theme"
)

// Notify selects which events raise a desktop notification.
type Notify struct {
	Apply bool
	Save  bool
	Copy  bool
}

// Service locates the background removal service.
type Service struct {
	URL      string
	Token    string
	Timeout  time.Duration
	Watchdog time.Duration
}

// Brush bounds the brush size control, in logical pixels.
type Brush struct {
	Size float64
	Min  float64
	Max  float64
}

// Mask controls how compiled masks are encoded.
type Mask struct {
	Format    string
	Threshold bool
}

// Config holds the application configuration.
type Config struct {
	Theme   string
	SaveDir string
	Notify  Notify
	Service Service
	Brush   Brush
	Mask    Mask
	Themes  map[string]*theme.Theme
}

// New returns a Config with defaults.
func New() *Config {
	return &Config{
		Service: Service{
			Timeout:  2 * time.Minute,
			Watchdog: 90 * time.Second,
		},
		Brush:  Brush{Size: 30, Min: 10, Max: 80},
		Mask:   Mask{Format: "png"},
		Themes: make(map[string]*theme.Theme),
	}
}

// String renders the configuration in rc format. The service token is
// never written out.
func (c *Config) String() string {
	var sb strings.Builder

	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.SaveDir != "" {
		fmt.Fprintf(&sb, "save_dir = %s\n", c.SaveDir)
	}
	sb.WriteString("\n[notify]\n")
	fmt.Fprintf(&sb, "apply = %v\n", c.Notify.Apply)
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)

	sb.WriteString("\n[service]\n")
	if c.Service.URL != "" {
		fmt.Fprintf(&sb, "url = %s\n", c.Service.URL)
	}
	if c.Service.Timeout > 0 {
		fmt.Fprintf(&sb, "timeout = %s\n", c.Service.Timeout)
	}
	if c.Service.Watchdog > 0 {
		fmt.Fprintf(&sb, "watchdog = %s\n", c.Service.Watchdog)
	}

	sb.WriteString("\n[brush]\n")
	fmt.Fprintf(&sb, "size = %g\n", c.Brush.Size)
	fmt.Fprintf(&sb, "min = %g\n", c.Brush.Min)
	fmt.Fprintf(&sb, "max = %g\n", c.Brush.Max)

	sb.WriteString("\n[mask]\n")
	fmt.Fprintf(&sb, "format = %s\n", c.Mask.Format)
	fmt.Fprintf(&sb, "threshold = %v\n", c.Mask.Threshold)

	names := make([]string, 0, len(c.Themes))
	for name := range c.Themes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t := c.Themes[name]
		fmt.Fprintf(&sb, "\n[theme.%s]\n", name)
		fmt.Fprintf(&sb, "Name: %s\n", t.Name)
		t.Fields(func(field string, col color.RGBA) {
			fmt.Fprintf(&sb, "%s: %s\n", field, theme.Hex(col))
		})
	}
	return sb.String()
}
