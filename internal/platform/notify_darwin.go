//go:build darwin

package platform

import (
	"fmt"
	"os/exec"
)

// Notify posts to Notification Center through osascript.
func Notify(n Notification) error {
	script := fmt.Sprintf("display notification %q with title %q subtitle %q", n.Body, n.Title, n.app())
	return exec.Command("osascript", "-e", script).Run()
}
