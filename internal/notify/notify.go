// Package notify raises desktop notifications for editor events the user
// opted into.
package notify

import (
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/example/maskpaint/internal/platform"
)

// Event identifies a notification trigger.
type Event string

const (
	// EventApply fires when the service returns a new result, or fails to.
	EventApply Event = "apply"
	// EventSave fires when a mask or result is written to disk.
	EventSave Event = "save"
	// EventCopy fires when a mask is copied to the clipboard.
	EventCopy Event = "copy"
)

// Preferences holds the title and per-event body templates. Each template
// takes one %s.
type Preferences struct {
	Title     string
	Templates map[Event]string
}

// DefaultPreferences returns the built-in wording.
func DefaultPreferences() Preferences {
	return Preferences{
		Title: "MaskPaint",
		Templates: map[Event]string{
			EventApply: "Mask applied to %s",
			EventSave:  "Saved %s",
			EventCopy:  "Copied %s to clipboard",
		},
	}
}

// LoadPreferences applies MASKPAINT_NOTIFY_* overrides from getenv.
func LoadPreferences(getenv func(string) string) Preferences {
	prefs := DefaultPreferences()
	if v := strings.TrimSpace(getenv("MASKPAINT_NOTIFY_TITLE")); v != "" {
		prefs.Title = v
	}
	for _, ev := range []Event{EventApply, EventSave, EventCopy} {
		key := "MASKPAINT_NOTIFY_" + strings.ToUpper(string(ev)) + "_TEXT"
		if v := strings.TrimSpace(getenv(key)); v != "" {
			prefs.Templates[ev] = v
		}
	}
	return prefs
}

// Notifier sends notifications for enabled events. A nil Notifier is
// silent.
type Notifier struct {
	prefs   Preferences
	enabled map[Event]bool
	send    func(platform.Notification) error
}

// New returns a notifier with every event disabled.
func New(prefs Preferences) *Notifier {
	templates := make(map[Event]string, len(prefs.Templates))
	for k, v := range prefs.Templates {
		templates[k] = v
	}
	return &Notifier{
		prefs:   Preferences{Title: prefs.Title, Templates: templates},
		enabled: make(map[Event]bool),
		send:    platform.Notify,
	}
}

// Enable switches an event on or off.
func (n *Notifier) Enable(event Event, on bool) {
	if n == nil {
		return
	}
	n.enabled[event] = on
}

// Applied reports a finished submission with a thumbnail of the result.
func (n *Notifier) Applied(ref string, result image.Image) {
	if !n.enabledFor(EventApply) {
		return
	}
	opts := platform.Notification{}
	if result != nil {
		path, cleanup, err := createPreview(result)
		if err != nil {
			log.Printf("notification preview: %v", err)
		} else {
			defer cleanup()
			opts.IconPath = path
		}
	}
	n.dispatch(EventApply, ref, opts)
}

// ApplyFailed reports a submission error. It stays on screen until
// dismissed.
func (n *Notifier) ApplyFailed(err error) {
	if !n.enabledFor(EventApply) || err == nil {
		return
	}
	n.deliver(EventApply, platform.Notification{
		Title:    n.prefs.Title,
		Body:     "Mask was not applied: " + err.Error(),
		Critical: true,
	})
}

// Saved reports a written file, using it as the icon when it exists.
func (n *Notifier) Saved(path string) {
	if !n.enabledFor(EventSave) {
		return
	}
	detail := strings.TrimSpace(path)
	opts := platform.Notification{}
	if abs, err := filepath.Abs(path); err == nil {
		detail = abs
		if _, err := os.Stat(abs); err == nil {
			opts.IconPath = abs
		}
	}
	n.dispatch(EventSave, detail, opts)
}

// Copied reports a clipboard write.
func (n *Notifier) Copied(detail string) {
	if !n.enabledFor(EventCopy) {
		return
	}
	if strings.TrimSpace(detail) == "" {
		detail = "mask"
	}
	n.dispatch(EventCopy, detail, platform.Notification{})
}

func (n *Notifier) enabledFor(event Event) bool {
	return n != nil && n.enabled[event]
}

func (n *Notifier) dispatch(event Event, detail string, msg platform.Notification) {
	tmpl := strings.TrimSpace(n.prefs.Templates[event])
	if tmpl == "" {
		return
	}
	msg.Title = n.prefs.Title
	msg.Body = strings.TrimSpace(fmt.Sprintf(tmpl, strings.TrimSpace(detail)))
	if msg.Body == "" {
		return
	}
	n.deliver(event, msg)
}

func (n *Notifier) deliver(event Event, msg platform.Notification) {
	msg.App = "MaskPaint"
	if err := n.send(msg); err != nil {
		log.Printf("notification %s: %v", event, err)
	}
}

const previewSize = 256

func createPreview(img image.Image) (string, func(), error) {
	f, err := os.CreateTemp("", "maskpaint-preview-*.png")
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	_ = f.Close()
	thumb := imaging.Fit(img, previewSize, previewSize, imaging.Lanczos)
	if err := imaging.Save(thumb, path); err != nil {
		_ = os.Remove(path)
		return "", nil, err
	}
	cleanup := func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("remove preview: %v", err)
		}
	}
	return path, cleanup, nil
}
