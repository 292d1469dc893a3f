package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/example/maskpaint/internal/imageio"
	"github.com/example/maskpaint/internal/service"
)

type removeCmd struct {
	*root
	fs      *flag.FlagSet
	ref     string
	output  string
	remover service.BackgroundRemover
	stdout  io.Writer
}

func (c *removeCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseRemoveCmd(args []string, r *root) (*removeCmd, error) {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	c := &removeCmd{root: r.subcommand("remove"), fs: fs, stdout: os.Stdout}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.ref, "ref", "", "service reference of the source image")
	fs.StringVar(&c.output, "output", "", "file to write the cut-out to")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.ref == "" || c.output == "" {
		return nil, &UsageError{of: c}
	}
	return c, nil
}

func (c *removeCmd) Run() error {
	remover := c.remover
	if remover == nil {
		client, err := c.serviceClient()
		if err != nil {
			return err
		}
		remover = client
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.config.Service.Watchdog)
	defer cancel()
	res, err := remover.RemoveBackground(ctx, c.ref)
	if err != nil {
		return fmt.Errorf("remove background of %s: %w", c.ref, err)
	}
	if res.Image == nil {
		return fmt.Errorf("remove background of %s: service returned no image", c.ref)
	}
	if err := imageio.Save(res.Image, c.output); err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	c.notifySave(c.output)
	fmt.Fprintf(c.stdout, "%s -> %s (%s)\n", c.ref, res.Ref, c.output)
	return nil
}
