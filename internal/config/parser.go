package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/example/maskpaint/internal/theme"
)

// Parse reads configuration in rc format: "key = value" lines grouped in
// [sections], with [theme.<name>] sections defining inline themes.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)

	var section string
	var current *theme.Theme
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.ToLower(strings.TrimSpace(line[1 : len(line)-1]))
			current = nil
			if name, ok := strings.CutPrefix(section, "theme."); ok {
				current = theme.Default()
				current.Name = name
				cfg.Themes[name] = current
			}
			continue
		}

		key, value, ok := cutKeyValue(line)
		if !ok {
			continue
		}

		var err error
		switch {
		case current != nil:
			err = current.Set(key, value)
		case section == "":
			err = setRootField(cfg, key, value)
		case section == "notify":
			err = setNotifyField(&cfg.Notify, key, value)
		case section == "service":
			err = setServiceField(&cfg.Service, key, value)
		case section == "brush":
			err = setBrushField(&cfg.Brush, key, value)
		case section == "mask":
			err = setMaskField(&cfg.Mask, key, value)
		}
		if err != nil {
			if section == "" {
				return nil, fmt.Errorf("line %d: error in root section: %w", lineNo, err)
			}
			return nil, fmt.Errorf("line %d: error in section [%s]: %w", lineNo, section, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if cfg.Brush.Min > cfg.Brush.Max {
		return nil, fmt.Errorf("brush min %g exceeds max %g", cfg.Brush.Min, cfg.Brush.Max)
	}
	return cfg, nil
}

func cutKeyValue(line string) (string, string, bool) {
	sep := strings.IndexAny(line, "=:")
	if sep < 0 {
		return "", "", false
	}
	key := strings.ToLower(strings.TrimSpace(line[:sep]))
	value := strings.TrimSpace(line[sep+1:])
	if len(value) >= 2 && strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") {
		value = value[1 : len(value)-1]
	}
	return key, value, true
}

func setRootField(cfg *Config, key, value string) error {
	switch key {
	case "theme":
		cfg.Theme = value
	case "save_dir":
		cfg.SaveDir = value
	}
	return nil
}

func setNotifyField(n *Notify, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean for key %s: %w", key, err)
	}
	switch key {
	case "apply":
		n.Apply = b
	case "save":
		n.Save = b
	case "copy":
		n.Copy = b
	}
	return nil
}

func setServiceField(s *Service, key, value string) error {
	switch key {
	case "url":
		s.URL = value
	case "token":
		s.Token = value
	case "timeout", "watchdog":
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid duration for key %s: %q", key, value)
		}
		if key == "timeout" {
			s.Timeout = d
		} else {
			s.Watchdog = d
		}
	}
	return nil
}

func setBrushField(b *Brush, key, value string) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || v <= 0 {
		return fmt.Errorf("invalid size for key %s: %q", key, value)
	}
	switch key {
	case "size":
		b.Size = v
	case "min":
		b.Min = v
	case "max":
		b.Max = v
	}
	return nil
}

func setMaskField(m *Mask, key, value string) error {
	switch key {
	case "format":
		f := strings.ToLower(value)
		if f != "png" && f != "webp" {
			return fmt.Errorf("unsupported mask format %q", value)
		}
		m.Format = f
	case "threshold":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for key %s: %w", key, err)
		}
		m.Threshold = b
	}
	return nil
}
