package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/example/maskpaint/internal/clipboard"
	"github.com/example/maskpaint/internal/imageio"
	"github.com/example/maskpaint/internal/render"
	"github.com/example/maskpaint/internal/session"
)

type compileCmd struct {
	*root
	fs          *flag.FlagSet
	file        string
	strokes     string
	output      string
	format      string
	threshold   bool
	toClipboard bool
	stdout      io.Writer
}

func (c *compileCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseCompileCmd(args []string, r *root) (*compileCmd, error) {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	c := &compileCmd{root: r.subcommand("compile"), fs: fs, stdout: os.Stdout}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.file, "file", "", "source image the strokes were drawn over")
	fs.StringVar(&c.strokes, "strokes", "", "stroke script (JSON)")
	fs.StringVar(&c.output, "output", "", "mask file to write (extension defaults from -format)")
	fs.StringVar(&c.format, "format", c.config.Mask.Format, "mask encoding: png or webp")
	fs.BoolVar(&c.threshold, "threshold", c.config.Mask.Threshold, "binarize anti-aliased edges")
	fs.BoolVar(&c.toClipboard, "to-clipboard", false, "copy the mask to the clipboard")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.file == "" || c.strokes == "" {
		return nil, &UsageError{of: c}
	}
	if c.output == "" && !c.toClipboard {
		return nil, errors.New("either -output or -to-clipboard is required")
	}
	return c, nil
}

func (c *compileCmd) Run() error {
	format, err := imageio.ParseFormat(c.format)
	if err != nil {
		return err
	}
	script, err := loadStrokeScript(c.strokes)
	if err != nil {
		return err
	}
	lo, hi := script.brushRange(c.config.Brush.Min, c.config.Brush.Max)
	ctrl, err := c.newSession(c.file, "", nil,
		session.WithBrushRange(lo, hi, c.config.Brush.Size),
		session.WithThreshold(c.threshold),
	)
	if err != nil {
		return err
	}
	if err := replay(ctrl, script); err != nil {
		return err
	}
	mask, err := ctrl.CompileMask()
	if err != nil {
		return fmt.Errorf("compile mask: %w", err)
	}
	if c.output != "" {
		data, err := imageio.EncodeMask(mask, format)
		if err != nil {
			return err
		}
		if err := imageio.WriteFile(c.output, data); err != nil {
			return fmt.Errorf("write mask: %w", err)
		}
		c.notifySave(c.output)
	}
	if c.toClipboard {
		if err := clipboard.WriteImage(mask); err != nil {
			return fmt.Errorf("copy mask: %w", err)
		}
		c.notifyCopy("mask")
	}
	fmt.Fprintf(c.stdout, "%d strokes, %.1f%% keep\n", len(ctrl.Strokes()), render.Coverage(mask)*100)
	return nil
}
