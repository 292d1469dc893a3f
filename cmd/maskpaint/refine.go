package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/example/maskpaint/internal/imageio"
	"github.com/example/maskpaint/internal/input"
	"github.com/example/maskpaint/internal/service"
	"github.com/example/maskpaint/internal/singleshot"
)

type refineCmd struct {
	*root
	fs      *flag.FlagSet
	file    string
	ref     string
	points  string
	brush   float64
	output  string
	submit  bool
	applier service.MaskApplier
	stdout  io.Writer
}

func (c *refineCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseRefineCmd(args []string, r *root) (*refineCmd, error) {
	fs := flag.NewFlagSet("refine", flag.ExitOnError)
	c := &refineCmd{root: r.subcommand("refine"), fs: fs, stdout: os.Stdout}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.file, "file", "", "source image")
	fs.StringVar(&c.ref, "ref", "", "service reference of the source image")
	fs.StringVar(&c.points, "points", "", "point list (JSON)")
	fs.Float64Var(&c.brush, "brush", c.config.Brush.Size, "brush diameter in display pixels")
	fs.StringVar(&c.output, "output", "", "mask file to write")
	fs.BoolVar(&c.submit, "submit", false, "submit the mask to the service instead of only writing it")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.file == "" || c.points == "" {
		return nil, &UsageError{of: c}
	}
	if c.submit && c.ref == "" {
		return nil, errors.New("-submit needs -ref")
	}
	if !c.submit && c.output == "" {
		return nil, errors.New("either -output or -submit is required")
	}
	return c, nil
}

func (c *refineCmd) Run() error {
	script, err := loadPointScript(c.points)
	if err != nil {
		return err
	}
	img, err := loadImage(c.file)
	if err != nil {
		return err
	}
	applier := c.applier
	if c.submit && applier == nil {
		client, err := c.serviceClient()
		if err != nil {
			return err
		}
		applier = client
	}
	b := img.Bounds()
	p := singleshot.New(applier, c.ref, b.Dx(), b.Dy())
	p.SetWatchdog(c.config.Service.Watchdog)
	if f, err := imageio.ParseFormat(c.config.Mask.Format); err == nil {
		p.SetFormat(f)
	}

	bounds := script.Display.bounds()
	for i, pt := range script.Points {
		kind := input.PointerMove
		if i == 0 {
			kind = input.PointerDown
		}
		p.HandleInputEvent(pointerAt(kind, pt, bounds), bounds, c.brush)
	}
	p.HandleInputEvent(input.Event{Kind: input.PointerUp}, bounds, c.brush)

	if c.output != "" {
		m := p.Mask()
		if m == nil {
			return singleshot.ErrNoImage
		}
		if err := imageio.Save(m, c.output); err != nil {
			return fmt.Errorf("write mask: %w", err)
		}
		c.notifySave(c.output)
		fmt.Fprintf(c.stdout, "mask written to %s\n", c.output)
	}
	if !c.submit {
		return nil
	}
	res, err := p.Apply(context.Background())
	if err != nil {
		return fmt.Errorf("apply mask to %s: %w", c.ref, err)
	}
	fmt.Fprintf(c.stdout, "%s -> %s\n", c.ref, res.Ref)
	return nil
}
