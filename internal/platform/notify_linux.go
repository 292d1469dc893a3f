//go:build linux

package platform

import (
	"github.com/godbus/dbus/v5"
)

const (
	urgencyNormal   byte = 1
	urgencyCritical byte = 2
)

// Notify sends a notification over the freedesktop.org session bus.
func Notify(n Notification) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return err
	}
	defer conn.Close()

	urgency := urgencyNormal
	expire := int32(5000)
	if n.Timeout > 0 {
		expire = int32(n.Timeout.Milliseconds())
	}
	if n.Critical {
		urgency = urgencyCritical
		expire = 0
	}
	hints := map[string]dbus.Variant{"urgency": dbus.MakeVariant(urgency)}
	obj := conn.Object("org.freedesktop.Notifications", "/org/freedesktop/Notifications")
	call := obj.Call("org.freedesktop.Notifications.Notify", 0,
		n.app(), uint32(0), n.IconPath, n.Title, n.Body, []string{}, hints, expire)
	return call.Err
}
