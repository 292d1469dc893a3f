//go:build !(linux || freebsd || openbsd || netbsd || dragonfly)

package clipboard

import "errors"

var errUnsupported = errors.New("clipboard is not supported on this platform")

// WritePNG is unsupported here.
func WritePNG([]byte) error { return errUnsupported }

// WriteText is unsupported here.
func WriteText(string) error { return errUnsupported }
