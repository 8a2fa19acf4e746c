package control

import (
	"github.com/godbus/dbus/v5"
)

// DBusClient defines the interface for D-Bus operations.
// This abstraction allows us to mock D-Bus interactions in tests.
//
//go:generate mockgen -destination=mocks/dbus_client_mock.go -package=mocks github.com/genricoloni/backdrop/internal/control DBusClient
type DBusClient interface {
	// Close closes the D-Bus connection
	Close() error

	// RequestName asks the bus for a well-known name
	RequestName(name string, flags dbus.RequestNameFlags) (dbus.RequestNameReply, error)

	// Export publishes the methods of v at path under iface
	Export(v any, path dbus.ObjectPath, iface string) error

	// Emit broadcasts a signal from path
	// name: The member name qualified by its interface (e.g., "io.github.genricoloni.Backdrop.SettingsChanged")
	Emit(path dbus.ObjectPath, name string, values ...any) error
}

// StdDBusClient is the real implementation using godbus
type StdDBusClient struct {
	conn *dbus.Conn
}

// NewStdDBusClient creates a real D-Bus client connected to the session bus
func NewStdDBusClient() (DBusClient, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, err
	}
	return &StdDBusClient{conn: conn}, nil
}

// Close closes the D-Bus connection
func (c *StdDBusClient) Close() error {
	return c.conn.Close()
}

// RequestName asks the bus for a well-known name
func (c *StdDBusClient) RequestName(name string, flags dbus.RequestNameFlags) (dbus.RequestNameReply, error) {
	return c.conn.RequestName(name, flags)
}

// Export publishes the methods of v at path under iface
func (c *StdDBusClient) Export(v any, path dbus.ObjectPath, iface string) error {
	return c.conn.Export(v, path, iface)
}

// Emit broadcasts a signal from path
func (c *StdDBusClient) Emit(path dbus.ObjectPath, name string, values ...any) error {
	return c.conn.Emit(path, name, values...)
}
