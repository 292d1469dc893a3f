package main

import (
	"flag"

	"github.com/example/maskpaint/internal/editor"
	"github.com/example/maskpaint/internal/service"
	"github.com/example/maskpaint/internal/session"
)

type editCmd struct {
	*root
	fs     *flag.FlagSet
	file   string
	ref    string
	result string
	dpr    float64
}

func (c *editCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseEditCmd(args []string, r *root) (*editCmd, error) {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	c := &editCmd{root: r.subcommand("edit"), fs: fs}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.file, "file", "", "image file or URL to edit")
	fs.StringVar(&c.ref, "ref", "", "service reference of the image (defaults to -file)")
	fs.StringVar(&c.result, "result", "", "previously prepared result to show next to the original")
	fs.Float64Var(&c.dpr, "dpr", 0, "device pixel ratio (0 probes the display)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.file == "" {
		return nil, &UsageError{of: c}
	}
	return c, nil
}

func (c *editCmd) Run() error {
	var applier service.MaskApplier
	if c.config.Service.URL != "" {
		client, err := c.serviceClient()
		if err != nil {
			return err
		}
		applier = client
	}
	ctrl, err := c.newSession(c.file, c.ref, applier)
	if err != nil {
		return err
	}
	if c.result != "" {
		img, err := loadImage(c.result)
		if err != nil {
			return err
		}
		ctrl.SetResult(&session.Image{Ref: c.result, Pixels: img})
	}
	saveDir := c.config.SaveDir
	if saveDir == "" {
		saveDir = "."
	}
	ed := editor.New(ctrl,
		editor.WithTheme(c.activeTheme),
		editor.WithNotifier(c.notifier),
		editor.WithSaveDir(saveDir),
		editor.WithDevicePixelRatio(c.dpr),
	)
	ed.Run()
	return nil
}
