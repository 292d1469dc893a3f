package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/example/maskpaint/internal/imageio"
	"github.com/example/maskpaint/internal/render"
	"github.com/example/maskpaint/internal/service"
	"github.com/example/maskpaint/internal/session"
)

// errNothingKept is returned by apply -require-keep for an all-discard mask.
var errNothingKept = errors.New("mask keeps nothing; paint at least one keep stroke")

type applyCmd struct {
	*root
	fs          *flag.FlagSet
	file        string
	ref         string
	strokes     string
	output      string
	requireKeep bool
	applier     service.MaskApplier
	stdout      io.Writer
}

func (c *applyCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseApplyCmd(args []string, r *root) (*applyCmd, error) {
	fs := flag.NewFlagSet("apply", flag.ExitOnError)
	c := &applyCmd{root: r.subcommand("apply"), fs: fs, stdout: os.Stdout}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.file, "file", "", "source image the strokes were drawn over")
	fs.StringVar(&c.ref, "ref", "", "service reference of the source image")
	fs.StringVar(&c.strokes, "strokes", "", "stroke script (JSON)")
	fs.StringVar(&c.output, "output", "result.png", "file to write the prepared image to")
	fs.BoolVar(&c.requireKeep, "require-keep", false, "refuse to submit a mask that keeps nothing")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.file == "" || c.ref == "" || c.strokes == "" {
		return nil, &UsageError{of: c}
	}
	return c, nil
}

func (c *applyCmd) Run() error {
	script, err := loadStrokeScript(c.strokes)
	if err != nil {
		return err
	}
	applier := c.applier
	if applier == nil {
		client, err := c.serviceClient()
		if err != nil {
			return err
		}
		applier = client
	}
	lo, hi := script.brushRange(c.config.Brush.Min, c.config.Brush.Max)
	ctrl, err := c.newSession(c.file, c.ref, applier, session.WithBrushRange(lo, hi, c.config.Brush.Size))
	if err != nil {
		return err
	}
	if err := replay(ctrl, script); err != nil {
		return err
	}
	if c.requireKeep {
		mask, err := ctrl.CompileMask()
		if err != nil {
			return fmt.Errorf("compile mask: %w", err)
		}
		if render.Coverage(mask) == 0 {
			return errNothingKept
		}
	}
	if err := ctrl.ApplyEdit(context.Background()); err != nil {
		if c.notifier != nil {
			c.notifier.ApplyFailed(err)
		}
		return fmt.Errorf("apply mask to %s: %w", c.ref, err)
	}
	res := ctrl.Result()
	if err := imageio.Save(res.Pixels, c.output); err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	c.notifyApplied(res.Ref, res.Pixels)
	fmt.Fprintf(c.stdout, "%s -> %s (%s)\n", c.ref, res.Ref, c.output)
	return nil
}
