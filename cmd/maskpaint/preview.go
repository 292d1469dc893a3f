package main

import (
	"flag"
	"fmt"
	"image"
	"image/draw"

	"github.com/example/maskpaint/internal/imageio"
	"github.com/example/maskpaint/internal/render"
	"github.com/example/maskpaint/internal/theme"
)

type previewCmd struct {
	*root
	fs         *flag.FlagSet
	file       string
	mask       string
	output     string
	shadow     bool
	background string
}

func (c *previewCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parsePreviewCmd(args []string, r *root) (*previewCmd, error) {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	c := &previewCmd{root: r.subcommand("preview"), fs: fs}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.file, "file", "", "source image")
	fs.StringVar(&c.mask, "mask", "", "compiled mask")
	fs.StringVar(&c.output, "output", "", "file to write the preview to")
	fs.BoolVar(&c.shadow, "shadow", false, "add a drop shadow under the cut-out")
	fs.StringVar(&c.background, "background", "", "flatten onto this colour instead of keeping transparency")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.file == "" || c.mask == "" || c.output == "" {
		return nil, &UsageError{of: c}
	}
	return c, nil
}

func (c *previewCmd) Run() error {
	src, err := loadImage(c.file)
	if err != nil {
		return err
	}
	m, err := loadImage(c.mask)
	if err != nil {
		return err
	}
	out, err := composePreview(src, toGray(m), c.shadow, c.background)
	if err != nil {
		return err
	}
	if err := imageio.Save(out, c.output); err != nil {
		return fmt.Errorf("save preview: %w", err)
	}
	c.notifySave(c.output)
	return nil
}

// composePreview cuts src out with mask and optionally adds a shadow and a
// flat background.
func composePreview(src image.Image, mask *image.Gray, shadow bool, background string) (image.Image, error) {
	var out image.Image = render.Cutout(src, mask)
	if shadow {
		out = render.ApplyShadow(out, render.DefaultShadowOptions()).Image
	}
	if background != "" {
		col, err := theme.ParseColor(background)
		if err != nil {
			return nil, fmt.Errorf("invalid -background: %w", err)
		}
		out = render.Flatten(out, col)
	}
	return out, nil
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Bounds(), img, b.Min, draw.Src)
	return g
}
