// Package display works out the device pixel ratio used to size the stroke
// overlay.
package display

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/randr"
	"github.com/jezek/xgb/xproto"
)

// ReferenceDPI is the density treated as a device pixel ratio of 1.
const ReferenceDPI = 96

// Monitor describes one output of the X11 layout.
type Monitor struct {
	Index   int
	Name    string
	Rect    image.Rectangle
	WidthMM int
	Primary bool
}

// DPI returns the horizontal density, or 0 when the physical size is
// unknown.
func (m Monitor) DPI() float64 {
	if m.WidthMM <= 0 || m.Rect.Dx() <= 0 {
		return 0
	}
	return float64(m.Rect.Dx()) / (float64(m.WidthMM) / 25.4)
}

// Ratio converts the monitor density to a device pixel ratio.
func (m Monitor) Ratio() float64 { return RatioFromDPI(m.DPI()) }

var errNoMonitors = errors.New("no monitors available")

type lister interface {
	ListMonitors() ([]Monitor, error)
}

type x11Lister struct{}

var backend lister = x11Lister{}

// ListMonitors retrieves connected monitors using the X RandR extension.
func ListMonitors() ([]Monitor, error) { return backend.ListMonitors() }

// Probe returns the device pixel ratio of the primary monitor, falling back
// to the first one. Without a display it returns 1.
func Probe() float64 {
	monitors, err := backend.ListMonitors()
	if err != nil || len(monitors) == 0 {
		return 1
	}
	m := monitors[0]
	for _, mon := range monitors {
		if mon.Primary {
			m = mon
			break
		}
	}
	return m.Ratio()
}

// RatioFromDPI maps a density to a ratio rounded to quarter steps and never
// below 1.
func RatioFromDPI(dpi float64) float64 {
	if !(dpi > 0) || math.IsInf(dpi, 0) {
		return 1
	}
	r := math.Round(dpi/ReferenceDPI*4) / 4
	if r < 1 {
		return 1
	}
	return r
}

// FromPixelsPerPt converts a toolkit pixels-per-point factor, which counts
// 72 points per inch, to a device pixel ratio.
func FromPixelsPerPt(ppp float32) float64 {
	if !(ppp > 0) {
		return 1
	}
	return RatioFromDPI(float64(ppp) * 72)
}

func (x11Lister) ListMonitors() ([]Monitor, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect X server: %w", err)
	}
	defer conn.Close()

	setup := xproto.Setup(conn)
	if setup == nil {
		return nil, fmt.Errorf("xproto setup unavailable")
	}
	screen := setup.DefaultScreen(conn)
	if screen == nil {
		return nil, fmt.Errorf("xproto screen unavailable")
	}

	monitors, err := fetchMonitors(conn, screen.Root)
	if err != nil || len(monitors) == 0 {
		// RandR missing: treat the whole screen as one monitor.
		return []Monitor{{
			Name:    "screen",
			Rect:    image.Rect(0, 0, int(screen.WidthInPixels), int(screen.HeightInPixels)),
			WidthMM: int(screen.WidthInMillimeters),
			Primary: true,
		}}, nil
	}
	return monitors, nil
}

func fetchMonitors(conn *xgb.Conn, root xproto.Window) ([]Monitor, error) {
	if err := randr.Init(conn); err != nil {
		return nil, fmt.Errorf("init randr: %w", err)
	}
	res, err := randr.GetScreenResources(conn, root).Reply()
	if err != nil {
		return nil, fmt.Errorf("randr screen resources: %w", err)
	}
	primaryOutput := randr.Output(0)
	if primary, err := randr.GetOutputPrimary(conn, root).Reply(); err == nil {
		primaryOutput = primary.Output
	}
	monitors := make([]Monitor, 0, len(res.Outputs))
	for _, output := range res.Outputs {
		info, err := randr.GetOutputInfo(conn, output, res.ConfigTimestamp).Reply()
		if err != nil || info.Connection != randr.ConnectionConnected || info.Crtc == 0 {
			continue
		}
		crtc, err := randr.GetCrtcInfo(conn, info.Crtc, res.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		monitors = append(monitors, Monitor{
			Index:   len(monitors),
			Name:    strings.TrimSpace(string(info.Name)),
			Rect:    image.Rect(int(crtc.X), int(crtc.Y), int(crtc.X)+int(crtc.Width), int(crtc.Y)+int(crtc.Height)),
			WidthMM: int(info.MmWidth),
			Primary: output == primaryOutput,
		})
	}
	if len(monitors) == 0 {
		return nil, errNoMonitors
	}
	return monitors, nil
}
