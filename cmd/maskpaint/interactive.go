package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/example/maskpaint/internal/imageio"
	"github.com/example/maskpaint/internal/input"
	"github.com/example/maskpaint/internal/service"
	"github.com/example/maskpaint/internal/session"
	"github.com/example/maskpaint/internal/stroke"
)

// interactiveBounds is the virtual display the stroke command draws on.
var interactiveBounds = input.Rect{Width: 1000, Height: 1000}

type commandList []string

func (c *commandList) String() string {
	return strings.Join(*c, ";")
}

func (c *commandList) Set(value string) error {
	*c = append(*c, value)
	return nil
}

type interactiveCmd struct {
	*root
	fs      *flag.FlagSet
	file    string
	ref     string
	execs   commandList
	applier service.MaskApplier
	ctrl    *session.Controller
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

func (c *interactiveCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseInteractiveCmd(args []string, r *root) (*interactiveCmd, error) {
	fs := flag.NewFlagSet("interactive", flag.ExitOnError)
	c := &interactiveCmd{root: r.subcommand("interactive"), fs: fs, stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.file, "file", "", "image file or URL to edit")
	fs.StringVar(&c.ref, "ref", "", "service reference of the image (defaults to -file)")
	fs.Var(&c.execs, "e", "execute a command and exit (may be specified multiple times)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.file == "" {
		return nil, &UsageError{of: c}
	}
	return c, nil
}

func (c *interactiveCmd) Run() error {
	if c.ctrl == nil {
		applier := c.applier
		if applier == nil && c.config.Service.URL != "" {
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
		ctrl.SetLayout(interactiveBounds, 1)
		c.ctrl = ctrl
	}

	if len(c.execs) > 0 {
		for _, line := range c.execs {
			done, err := c.executeLine(line)
			if err != nil {
				return err
			}
			if done {
				break
			}
		}
		return nil
	}

	fmt.Fprintln(c.stdout, "Enter commands (type 'quit' to exit)")
	scanner := bufio.NewScanner(c.stdin)
	for {
		fmt.Fprint(c.stdout, "> ")
		if !scanner.Scan() {
			break
		}
		done, err := c.executeLine(scanner.Text())
		if err != nil {
			fmt.Fprintln(c.stderr, err)
		}
		if done {
			break
		}
	}
	return scanner.Err()
}

// executeLine runs one command. done reports a request to exit.
func (c *interactiveCmd) executeLine(line string) (done bool, err error) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return false, nil
	}
	ctrl := c.ctrl
	switch strings.ToLower(args[0]) {
	case "quit", "exit":
		return true, nil
	case "edit":
		if !ctrl.EnterEdit() {
			return false, errors.New("edit: already editing or image not loaded")
		}
	case "mode":
		if len(args) != 2 {
			return false, errors.New("usage: mode add|remove")
		}
		m, err := stroke.ParseMode(args[1])
		if err != nil {
			return false, err
		}
		if ctrl.State() != session.Editing {
			return false, session.ErrNotEditing
		}
		ctrl.SetMode(m)
	case "brush":
		if len(args) != 2 {
			return false, errors.New("usage: brush N")
		}
		n, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return false, fmt.Errorf("brush: %w", err)
		}
		fmt.Fprintf(c.stdout, "brush %.0f\n", ctrl.SetBrushSize(n))
	case "stroke":
		pts, err := parsePoints(args[1:])
		if err != nil {
			return false, err
		}
		if ctrl.State() != session.Editing {
			return false, session.ErrNotEditing
		}
		for i, p := range pts {
			kind := input.PointerMove
			if i == 0 {
				kind = input.PointerDown
			}
			ctrl.HandleInputEvent(pointerAt(kind, p, interactiveBounds), interactiveBounds)
		}
		ctrl.HandleInputEvent(pointerAt(input.PointerUp, pts[len(pts)-1], interactiveBounds), interactiveBounds)
	case "undo":
		ctrl.Undo()
	case "redo":
		ctrl.Redo()
	case "clear":
		ctrl.Clear()
	case "cancel":
		return false, ctrl.CancelEdit()
	case "view":
		if len(args) != 2 {
			return false, errors.New("usage: view original|result")
		}
		v := session.Original
		if strings.EqualFold(args[1], "result") {
			v = session.Result
		}
		if !ctrl.ShowView(v) {
			return false, session.ErrNoResult
		}
	case "status":
		s := ctrl.Snapshot()
		fmt.Fprintf(c.stdout, "state=%s view=%s mode=%s brush=%.0f strokes=%d undo=%t redo=%t\n",
			s.State, s.View, s.Mode, s.Brush, s.Strokes, s.CanUndo, s.CanRedo)
		if s.Err != nil {
			fmt.Fprintf(c.stdout, "last error: %v\n", s.Err)
		}
	case "save":
		if len(args) != 2 {
			return false, errors.New("usage: save FILE")
		}
		mask, err := ctrl.CompileMask()
		if err != nil {
			return false, err
		}
		if err := imageio.Save(mask, args[1]); err != nil {
			return false, fmt.Errorf("save: %w", err)
		}
		c.notifySave(args[1])
	case "apply":
		if err := ctrl.ApplyEdit(context.Background()); err != nil {
			return false, fmt.Errorf("apply: %w", err)
		}
		if res := ctrl.Result(); res != nil {
			c.notifyApplied(res.Ref, res.Pixels)
			fmt.Fprintf(c.stdout, "result %s\n", res.Ref)
		}
	default:
		return false, fmt.Errorf("unknown command %q", args[0])
	}
	return false, nil
}

// parsePoints reads pairs of normalized coordinates.
func parsePoints(args []string) ([]stroke.Point, error) {
	if len(args) < 4 || len(args)%2 != 0 {
		return nil, errors.New("usage: stroke x1 y1 x2 y2 ...")
	}
	pts := make([]stroke.Point, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		x, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return nil, fmt.Errorf("stroke: %w", err)
		}
		y, err := strconv.ParseFloat(args[i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("stroke: %w", err)
		}
		pts = append(pts, stroke.Point{X: x, Y: y})
	}
	return pts, nil
}
