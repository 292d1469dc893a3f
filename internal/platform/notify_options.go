package platform

import "time"

// Notification is a desktop notification request.
type Notification struct {
	App   string
	Title string
	Body  string
	// IconPath, when set, names an image shown with the notification where
	// the host supports it.
	IconPath string
	// Critical asks the host to keep the notification until dismissed.
	Critical bool
	Timeout  time.Duration
}

func (n Notification) app() string {
	if n.App == "" {
		return "MaskPaint"
	}
	return n.App
}
