package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/genricoloni/backdrop/internal/domain"
	"github.com/genricoloni/backdrop/internal/engine"
	"github.com/genricoloni/backdrop/internal/scene"
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"go.uber.org/zap"
)

const (
	BusName    = "io.github.genricoloni.Backdrop"
	Interface  = "io.github.genricoloni.Backdrop"
	ObjectPath = dbus.ObjectPath("/io/github/genricoloni/Backdrop")

	// SettingsChangedSignal is emitted after every committed settings change
	SettingsChangedSignal = Interface + ".SettingsChanged"

	callTimeout = 5 * time.Second
)

const introspection = `<node>
	<interface name="` + Interface + `">
		<method name="Reload"/>
		<method name="Reset"/>
		<method name="SetEnabled">
			<arg name="enabled" direction="in" type="b"/>
			<arg name="changed" direction="out" type="b"/>
		</method>
		<method name="SetGlobalMode">
			<arg name="global" direction="in" type="b"/>
			<arg name="changed" direction="out" type="b"/>
		</method>
		<method name="SetImagePath">
			<arg name="path" direction="in" type="s"/>
			<arg name="changed" direction="out" type="b"/>
		</method>
		<method name="Status">
			<arg name="status" direction="out" type="s"/>
		</method>
		<method name="Scene">
			<arg name="scene" direction="out" type="s"/>
		</method>
		<signal name="SettingsChanged"/>
	</interface>` + introspect.IntrospectDataString + `</node>`

// Dispatcher runs functions on the frame goroutine
type Dispatcher interface {
	Call(ctx context.Context, fn func()) error
}

// Settings is the part of the configuration store the bus can drive
type Settings interface {
	Reload() bool
	ResetToDefault()
	SetEnabled(v bool) bool
	SetGlobalMode(v bool) bool
	SetImagePath(v string) bool
	Subscribe(fn func()) (unsubscribe func())
}

// Engine is the part of the engine the bus can drive
type Engine interface {
	Refresh()
	Status() engine.Status
}

// Service exposes the daemon on the session bus
type Service struct {
	logger   *zap.Logger
	loop     Dispatcher
	settings Settings
	engine   Engine
	host     domain.Host

	connect     func() (DBusClient, error)
	conn        DBusClient
	unsubscribe func()
}

// NewService creates the control service; it connects on Start
func NewService(logger *zap.Logger, loop Dispatcher, settings Settings, eng Engine, host domain.Host) *Service {
	return &Service{
		logger:   logger,
		loop:     loop,
		settings: settings,
		engine:   eng,
		host:     host,
		connect:  NewStdDBusClient,
	}
}

// Start claims the bus name and exports the control object.
// A missing session bus only disables remote control.
func (s *Service) Start(ctx context.Context) error {
	conn, err := s.connect()
	if err != nil {
		s.logger.Warn("Session bus unavailable, remote control disabled", zap.Error(err))
		return nil
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		_ = conn.Close()
		return fmt.Errorf("bus name %s is already owned, is another daemon running?", BusName)
	}

	if err := conn.Export(&object{s: s}, ObjectPath, Interface); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to export control object: %w", err)
	}
	if err := conn.Export(introspect.Introspectable(introspection), ObjectPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to export introspection: %w", err)
	}

	s.conn = conn
	// The store is owned by the frame goroutine
	if err := s.loop.Call(ctx, func() { s.unsubscribe = s.settings.Subscribe(s.onSettingsChanged) }); err != nil {
		s.conn = nil
		_ = conn.Close()
		return fmt.Errorf("failed to subscribe to settings: %w", err)
	}
	s.logger.Info("Control service started",
		zap.String("name", BusName),
		zap.String("path", string(ObjectPath)))
	return nil
}

// Stop releases the bus connection
func (s *Service) Stop(ctx context.Context) error {
	if s.unsubscribe != nil {
		unsubscribe := s.unsubscribe
		if err := s.loop.Call(ctx, unsubscribe); err != nil {
			// Loop already gone, nothing else touches the store
			unsubscribe()
		}
		s.unsubscribe = nil
	}
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	if err != nil {
		return fmt.Errorf("failed to close bus connection: %w", err)
	}
	s.logger.Info("Control service stopped")
	return nil
}

func (s *Service) onSettingsChanged() {
	if s.conn == nil {
		return
	}
	if err := s.conn.Emit(ObjectPath, SettingsChangedSignal); err != nil {
		s.logger.Warn("Failed to emit settings signal", zap.Error(err))
	}
}

// run executes fn on the frame goroutine
func (s *Service) run(fn func()) *dbus.Error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	if err := s.loop.Call(ctx, fn); err != nil {
		s.logger.Warn("Control call failed", zap.Error(err))
		return dbus.MakeFailedError(err)
	}
	return nil
}

// call runs fn on the frame goroutine and returns its result. An fn
// abandoned on timeout only ever writes into the buffered channel.
func call[T any](s *Service, fn func() T) (T, *dbus.Error) {
	var zero T
	results := make(chan T, 1)
	if derr := s.run(func() { results <- fn() }); derr != nil {
		return zero, derr
	}
	select {
	case v := <-results:
		return v, nil
	default:
		// fn panicked and the loop recovered it
		return zero, dbus.MakeFailedError(errors.New("control call produced no result"))
	}
}

// object carries the exported bus methods
type object struct {
	s *Service
}

// Reload rereads the settings file; with nothing changed it still
// refreshes images from disk
func (o *object) Reload() *dbus.Error {
	return o.s.run(func() {
		if !o.s.settings.Reload() {
			o.s.engine.Refresh()
		}
		o.s.logger.Info("Settings reloaded over the bus")
	})
}

func (o *object) Reset() *dbus.Error {
	return o.s.run(o.s.settings.ResetToDefault)
}

func (o *object) SetEnabled(v bool) (bool, *dbus.Error) {
	return call(o.s, func() bool { return o.s.settings.SetEnabled(v) })
}

func (o *object) SetGlobalMode(v bool) (bool, *dbus.Error) {
	return call(o.s, func() bool { return o.s.settings.SetGlobalMode(v) })
}

func (o *object) SetImagePath(v string) (bool, *dbus.Error) {
	return call(o.s, func() bool { return o.s.settings.SetImagePath(v) })
}

// Status returns the engine counters as JSON
func (o *object) Status() (string, *dbus.Error) {
	st, derr := call(o.s, o.s.engine.Status)
	if derr != nil {
		return "", derr
	}
	data, err := json.Marshal(st)
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return string(data), nil
}

// Scene returns every window's node tree as JSON
func (o *object) Scene() (string, *dbus.Error) {
	type dump struct {
		data []byte
		err  error
	}
	d, derr := call(o.s, func() dump {
		data, err := scene.Dump(o.s.host.EnumerateLiveWindows())
		return dump{data: data, err: err}
	})
	if derr != nil {
		return "", derr
	}
	if d.err != nil {
		return "", dbus.MakeFailedError(d.err)
	}
	return string(d.data), nil
}
