package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/example/maskpaint/internal/config"
	"github.com/example/maskpaint/internal/imageio"
	"github.com/example/maskpaint/internal/notify"
	"github.com/example/maskpaint/internal/service"
	"github.com/example/maskpaint/internal/session"
	"github.com/example/maskpaint/internal/theme"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

type runnable interface{ Run() error }

type root struct {
	fs          *flag.FlagSet
	program     string
	notifier    *notify.Notifier
	config      *config.Config
	applyAlerts bool
	saveAlerts  bool
	copyAlerts  bool
	themeName   string
	serviceURL  string
	activeTheme *theme.Theme
}

func (r *root) Program() string {
	return r.program
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func newRoot() *root {
	config.LoadDotEnv()
	prefs := notify.LoadPreferences(os.Getenv)
	loader := config.NewLoader(version, configPathOverride)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.New()
	}

	r := &root{
		fs:       flag.NewFlagSet("maskpaint", flag.ExitOnError),
		program:  "maskpaint",
		notifier: notify.New(prefs),
		config:   cfg,
	}
	r.fs.BoolVar(&r.applyAlerts, "notify-apply", cfg.Notify.Apply, "show a desktop notification after a mask is applied")
	r.fs.BoolVar(&r.saveAlerts, "notify-save", cfg.Notify.Save, "show a desktop notification after saving an image")
	r.fs.BoolVar(&r.copyAlerts, "notify-copy", cfg.Notify.Copy, "show a desktop notification after copying to the clipboard")

	// Precedence: CLI > Env > Config > Default. Env has already been folded
	// into cfg by the loader, so empty flags fall back to it.
	r.fs.StringVar(&r.themeName, "theme", "", "color theme to use (default, dark)")
	r.fs.StringVar(&r.serviceURL, "service-url", "", "base URL of the image service")
	r.fs.Usage = usageFunc(r)
	return r
}

func (r *root) subcommand(name string) *root {
	program := strings.TrimSpace(strings.Join([]string{r.program, name}, " "))
	return &root{
		program:     program,
		notifier:    r.notifier,
		config:      r.config,
		applyAlerts: r.applyAlerts,
		saveAlerts:  r.saveAlerts,
		copyAlerts:  r.copyAlerts,
		themeName:   r.themeName,
		serviceURL:  r.serviceURL,
		activeTheme: r.activeTheme,
	}
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}
	if r.notifier != nil {
		r.notifier.Enable(notify.EventApply, r.applyAlerts)
		r.notifier.Enable(notify.EventSave, r.saveAlerts)
		r.notifier.Enable(notify.EventCopy, r.copyAlerts)
	}
	if r.serviceURL != "" {
		r.config.Service.URL = r.serviceURL
	}
	r.activeTheme = r.resolveTheme()

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var (
		cmd runnable
		err error
	)
	switch cmdName {
	case "edit":
		cmd, err = parseEditCmd(subArgs, r)
	case "compile":
		cmd, err = parseCompileCmd(subArgs, r)
	case "apply":
		cmd, err = parseApplyCmd(subArgs, r)
	case "refine":
		cmd, err = parseRefineCmd(subArgs, r)
	case "remove":
		cmd, err = parseRemoveCmd(subArgs, r)
	case "preview":
		cmd, err = parsePreviewCmd(subArgs, r)
	case "interactive":
		cmd, err = parseInteractiveCmd(subArgs, r)
	case "config":
		cmd, err = parseConfigCmd(subArgs, r)
	case "version":
		cmd = &versionCmd{r: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

// resolveTheme picks the theme named on the command line, in the
// environment or in the config, in that order.
func (r *root) resolveTheme() *theme.Theme {
	name := r.themeName
	if name == "" && r.config != nil {
		name = r.config.Theme
	}
	if r.config != nil {
		if t, ok := r.config.Themes[name]; ok {
			return t
		}
	}
	t, err := theme.NewLoader().Load(name)
	if err != nil {
		if name != "" && name != "default" {
			fmt.Fprintf(os.Stderr, "warning: failed to load theme '%s': %v. using default.\n", name, err)
		}
		return theme.Default()
	}
	return t
}

func (r *root) serviceClient() (*service.Client, error) {
	s := r.config.Service
	if s.URL == "" {
		return nil, errors.New("no service URL configured; set -service-url, MASKPAINT_SERVICE_URL or [service] url")
	}
	return service.NewClient(s.URL, service.WithToken(s.Token), service.WithTimeout(s.Timeout))
}

func (r *root) controllerOptions() ([]session.Option, error) {
	format, err := imageio.ParseFormat(r.config.Mask.Format)
	if err != nil {
		return nil, err
	}
	b := r.config.Brush
	return []session.Option{
		session.WithWatchdog(r.config.Service.Watchdog),
		session.WithMaskFormat(format),
		session.WithThreshold(r.config.Mask.Threshold),
		session.WithBrushRange(b.Min, b.Max, b.Size),
	}, nil
}

func (r *root) notifySave(path string) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Saved(path)
}

func (r *root) notifyCopy(detail string) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Copied(detail)
}

func (r *root) notifyApplied(ref string, img image.Image) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Applied(ref, img)
}

func main() {
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
