package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	input := `
theme = my_custom_theme
save_dir = /tmp/masks

[notify]
apply = true
save = false
copy = true

[service]
url = "https://media.example.com/api"
token = abc123
watchdog = 45s

[brush]
size = 24
min = 8
max = 64

[mask]
format = webp
threshold = true

[theme.my_custom_theme]
Background = #111111
Foreground = #FFFFFF
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Theme != "my_custom_theme" {
		t.Errorf("Expected theme 'my_custom_theme', got '%s'", cfg.Theme)
	}
	if cfg.SaveDir != "/tmp/masks" {
		t.Errorf("Expected save_dir '/tmp/masks', got '%s'", cfg.SaveDir)
	}
	if cfg.Notify != (Notify{Apply: true, Copy: true}) {
		t.Errorf("Unexpected notify settings: %+v", cfg.Notify)
	}
	if cfg.Service.URL != "https://media.example.com/api" || cfg.Service.Token != "abc123" {
		t.Errorf("Unexpected service settings: %+v", cfg.Service)
	}
	if cfg.Service.Watchdog != 45*time.Second {
		t.Errorf("Expected watchdog 45s, got %s", cfg.Service.Watchdog)
	}
	if cfg.Service.Timeout != 2*time.Minute {
		t.Errorf("Timeout default lost: %s", cfg.Service.Timeout)
	}
	if cfg.Brush != (Brush{Size: 24, Min: 8, Max: 64}) {
		t.Errorf("Unexpected brush settings: %+v", cfg.Brush)
	}
	if cfg.Mask.Format != "webp" || !cfg.Mask.Threshold {
		t.Errorf("Unexpected mask settings: %+v", cfg.Mask)
	}

	th, ok := cfg.Themes["my_custom_theme"]
	if !ok {
		t.Fatal("Expected theme 'my_custom_theme' to be loaded")
	}
	if th.Background.R != 0x11 || th.Background.G != 0x11 || th.Background.B != 0x11 {
		t.Errorf("Unexpected Background color: %+v", th.Background)
	}
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"bool":     "[notify]\napply = maybe\n",
		"duration": "[service]\nwatchdog = soon\n",
		"brush":    "[brush]\nsize = -3\n",
		"range":    "[brush]\nmin = 50\nmax = 20\n",
		"format":   "[mask]\nformat = jpeg\n",
		"colour":   "[theme.x]\nBackground = #12\n",
	}
	for name, input := range cases {
		if _, err := Parse(strings.NewReader(input)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestCircular(t *testing.T) {
	input := `theme = dark
save_dir = /home/user/masks

[notify]
apply = true
save = true
copy = false

[service]
url = http://localhost:8080
token = secret
timeout = 30s

[brush]
size = 40

[theme.custom]
Name = custom
Background = #000000
Foreground = #FFFFFF
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Initial parse failed: %v", err)
	}
	generated := cfg.String()
	if strings.Contains(generated, "secret") {
		t.Errorf("token leaked into output:\n%s", generated)
	}
	cfg2, err := Parse(strings.NewReader(generated))
	if err != nil {
		t.Fatalf("Circular parse failed: %v\n%s", err, generated)
	}

	if cfg.Theme != cfg2.Theme {
		t.Errorf("Theme mismatch: %q vs %q", cfg.Theme, cfg2.Theme)
	}
	if cfg.SaveDir != cfg2.SaveDir {
		t.Errorf("SaveDir mismatch: %q vs %q", cfg.SaveDir, cfg2.SaveDir)
	}
	if cfg.Notify != cfg2.Notify {
		t.Errorf("Notify mismatch: %+v vs %+v", cfg.Notify, cfg2.Notify)
	}
	if cfg.Service.URL != cfg2.Service.URL || cfg.Service.Timeout != cfg2.Service.Timeout {
		t.Errorf("Service mismatch: %+v vs %+v", cfg.Service, cfg2.Service)
	}
	if cfg.Brush != cfg2.Brush {
		t.Errorf("Brush mismatch: %+v vs %+v", cfg.Brush, cfg2.Brush)
	}

	t1 := cfg.Themes["custom"]
	t2 := cfg2.Themes["custom"]
	if t1 == nil || t2 == nil {
		t.Fatalf("Custom theme missing in one config")
	}
	if *t1 != *t2 {
		t.Errorf("Theme mismatch: %+v vs %+v", t1, t2)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := New()
	cfg.Service.URL = "http://from-file"
	env := map[string]string{
		"MASKPAINT_SERVICE_URL":      "http://from-env",
		"MASKPAINT_SERVICE_WATCHDOG": "5s",
		"MASKPAINT_THEME":            "dark",
	}
	ApplyEnv(cfg, func(k string) string { return env[k] })
	if cfg.Service.URL != "http://from-env" {
		t.Errorf("env should override file: %s", cfg.Service.URL)
	}
	if cfg.Service.Watchdog != 5*time.Second {
		t.Errorf("watchdog = %s", cfg.Service.Watchdog)
	}
	if cfg.Theme != "dark" {
		t.Errorf("theme = %s", cfg.Theme)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("MASKPAINT_TEST_DOTENV=loaded\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MASKPAINT_TEST_DOTENV", "")
	os.Unsetenv("MASKPAINT_TEST_DOTENV")
	LoadDotEnv(path, filepath.Join(dir, "missing.env"))
	if got := os.Getenv("MASKPAINT_TEST_DOTENV"); got != "loaded" {
		t.Fatalf("expected value from .env file, got %q", got)
	}
}

func TestLoaderOverridePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.rc")
	if err := Save(&Config{Theme: "dark", Mask: Mask{Format: "png"}, Brush: Brush{Size: 30, Min: 10, Max: 80}}, path); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MASKPAINT_THEME", "")
	l := NewLoader("1.0.0", path)
	if got := l.GetConfigPath(); got != path {
		t.Fatalf("GetConfigPath = %q", got)
	}
	cfg, err := l.Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Theme != "dark" {
		t.Errorf("theme = %q", cfg.Theme)
	}
}
