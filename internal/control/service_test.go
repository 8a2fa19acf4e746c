package control

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/genricoloni/backdrop/internal/config"
	"github.com/genricoloni/backdrop/internal/control/mocks"
	"github.com/genricoloni/backdrop/internal/domain"
	"github.com/genricoloni/backdrop/internal/engine"
	"github.com/genricoloni/backdrop/internal/scene"
	"github.com/godbus/dbus/v5"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

// inlineLoop runs calls on the caller's goroutine
type inlineLoop struct {
	calls int
	err   error
}

func (l *inlineLoop) Call(_ context.Context, fn func()) error {
	l.calls++
	if l.err != nil {
		return l.err
	}
	fn()
	return nil
}

// lateLoop gives up on every call and keeps the function for later
type lateLoop struct {
	pending []func()
}

func (l *lateLoop) Call(_ context.Context, fn func()) error {
	l.pending = append(l.pending, fn)
	return context.DeadlineExceeded
}

// recoveringLoop swallows panics the way the frame loop does
type recoveringLoop struct{}

func (recoveringLoop) Call(_ context.Context, fn func()) error {
	defer func() { _ = recover() }()
	fn()
	return nil
}

type fakeEngine struct {
	refreshes int
	status    engine.Status
}

func (e *fakeEngine) Refresh()              { e.refreshes++ }
func (e *fakeEngine) Status() engine.Status { return e.status }

func newTestService(t *testing.T, conn DBusClient) (*Service, *config.Store, *inlineLoop, *fakeEngine, *scene.Host) {
	t.Helper()
	store, err := config.NewStore(zap.NewNop(), filepath.Join(t.TempDir(), "settings.json"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	loop := &inlineLoop{}
	eng := &fakeEngine{status: engine.Status{Running: true, Enabled: true, Windows: 2}}
	host := scene.NewHost()

	svc := NewService(zap.NewNop(), loop, store, eng, host)
	svc.connect = func() (DBusClient, error) {
		if conn == nil {
			return nil, errors.New("no session bus")
		}
		return conn, nil
	}
	return svc, store, loop, eng, host
}

func expectExport(m *mocks.MockDBusClient) {
	m.EXPECT().Export(gomock.Any(), ObjectPath, Interface).Return(nil)
	m.EXPECT().Export(gomock.Any(), ObjectPath, "org.freedesktop.DBus.Introspectable").Return(nil)
}

func TestService_Start(t *testing.T) {
	tests := []struct {
		name        string
		setupMock   func(*mocks.MockDBusClient)
		noBus       bool
		expectError bool
	}{
		{
			name: "Success - Primary Owner",
			setupMock: func(m *mocks.MockDBusClient) {
				m.EXPECT().RequestName(BusName, dbus.NameFlagDoNotQueue).
					Return(dbus.RequestNameReplyPrimaryOwner, nil)
				expectExport(m)
				m.EXPECT().Close().Return(nil)
			},
		},
		{
			name: "Error - Name Already Owned",
			setupMock: func(m *mocks.MockDBusClient) {
				m.EXPECT().RequestName(BusName, dbus.NameFlagDoNotQueue).
					Return(dbus.RequestNameReplyExists, nil)
				m.EXPECT().Close().Return(nil)
			},
			expectError: true,
		},
		{
			name: "Error - Export Fails",
			setupMock: func(m *mocks.MockDBusClient) {
				m.EXPECT().RequestName(BusName, dbus.NameFlagDoNotQueue).
					Return(dbus.RequestNameReplyPrimaryOwner, nil)
				m.EXPECT().Export(gomock.Any(), ObjectPath, Interface).Return(errors.New("denied"))
				m.EXPECT().Close().Return(nil)
			},
			expectError: true,
		},
		{
			name:  "No Session Bus Is Not Fatal",
			noBus: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			var conn DBusClient
			if !tt.noBus {
				m := mocks.NewMockDBusClient(ctrl)
				tt.setupMock(m)
				conn = m
			}
			svc, _, _, _, _ := newTestService(t, conn)

			err := svc.Start(context.Background())
			if tt.expectError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := svc.Stop(context.Background()); err != nil {
				t.Fatalf("stop: %v", err)
			}
		})
	}
}

func TestService_EmitsSettingsChanged(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := mocks.NewMockDBusClient(ctrl)
	m.EXPECT().RequestName(BusName, dbus.NameFlagDoNotQueue).Return(dbus.RequestNameReplyPrimaryOwner, nil)
	expectExport(m)
	m.EXPECT().Emit(ObjectPath, SettingsChangedSignal).Return(nil).Times(1)
	m.EXPECT().Close().Return(nil)

	svc, store, _, _, _ := newTestService(t, m)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	store.SetOpacity(0.5)
	store.SetOpacity(0.5) // no-op, no signal

	if err := svc.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	store.SetOpacity(0.7) // unsubscribed
}

func TestObject_Methods(t *testing.T) {
	svc, store, loop, eng, host := newTestService(t, nil)
	obj := &object{s: svc}

	changed, derr := obj.SetEnabled(false)
	if derr != nil || !changed {
		t.Fatalf("SetEnabled: changed=%v err=%v", changed, derr)
	}
	if store.Enabled() {
		t.Error("expected store to be disabled")
	}
	if changed, _ = obj.SetEnabled(false); changed {
		t.Error("repeated SetEnabled must report no change")
	}

	if changed, _ = obj.SetGlobalMode(false); !changed || store.GlobalMode() {
		t.Error("expected global mode to be switched off")
	}
	if changed, _ = obj.SetImagePath("  /walls/a.png "); !changed || store.ImagePath() != "/walls/a.png" {
		t.Errorf("unexpected image path %q", store.ImagePath())
	}

	if derr := obj.Reset(); derr != nil {
		t.Fatalf("Reset: %v", derr)
	}
	if store.Values() != config.Defaults() {
		t.Error("expected defaults after reset")
	}

	if derr := obj.Reload(); derr != nil {
		t.Fatalf("Reload: %v", derr)
	}
	if eng.refreshes != 1 {
		t.Errorf("expected an unchanged reload to refresh images, got %d", eng.refreshes)
	}

	status, derr := obj.Status()
	if derr != nil {
		t.Fatalf("Status: %v", derr)
	}
	var st engine.Status
	if err := json.Unmarshal([]byte(status), &st); err != nil {
		t.Fatalf("status is not JSON: %v", err)
	}
	if st.Windows != 2 || !st.Running {
		t.Errorf("unexpected status %+v", st)
	}

	host.AddWindow(9, domain.Rect{Width: 10, Height: 10})
	dump, derr := obj.Scene()
	if derr != nil {
		t.Fatalf("Scene: %v", derr)
	}
	var windows []scene.WindowDump
	if err := json.Unmarshal([]byte(dump), &windows); err != nil {
		t.Fatalf("scene is not JSON: %v", err)
	}
	if len(windows) != 1 || windows[0].ID != 9 {
		t.Errorf("unexpected scene %s", dump)
	}

	if loop.calls != 8 {
		t.Errorf("expected every call to go through the loop, got %d", loop.calls)
	}
}

func TestObject_LoopFailure(t *testing.T) {
	svc, store, loop, _, _ := newTestService(t, nil)
	loop.err = errors.New("frame loop stopped")
	obj := &object{s: svc}

	if _, derr := obj.SetEnabled(false); derr == nil {
		t.Fatal("expected a bus error")
	}
	if !store.Enabled() {
		t.Error("nothing must change when the loop is gone")
	}
}

func TestObject_TimedOutCallFinishesLater(t *testing.T) {
	store, err := config.NewStore(zap.NewNop(), filepath.Join(t.TempDir(), "settings.json"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	loop := &lateLoop{}
	eng := &fakeEngine{status: engine.Status{Windows: 3}}
	obj := &object{s: NewService(zap.NewNop(), loop, store, eng, scene.NewHost())}

	changed, derr := obj.SetEnabled(false)
	if derr == nil || changed {
		t.Fatalf("expected a timeout error, got changed=%v err=%v", changed, derr)
	}
	if _, derr := obj.Status(); derr == nil {
		t.Fatal("expected a timeout error from Status")
	}

	// The loop catches up after the bus call returned
	for _, fn := range loop.pending {
		fn()
	}
	if store.Enabled() {
		t.Error("late call must still apply the change")
	}
}

func TestObject_PanickingCallReportsError(t *testing.T) {
	store, err := config.NewStore(zap.NewNop(), filepath.Join(t.TempDir(), "settings.json"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	obj := &object{s: NewService(zap.NewNop(), recoveringLoop{}, store, &fakeEngine{}, panickingHost{})}

	if _, derr := obj.Scene(); derr == nil {
		t.Fatal("expected a bus error when the call panics")
	}
}

// panickingHost fails every enumeration
type panickingHost struct{}

func (panickingHost) EnumerateLiveWindows() []domain.Window { panic("host gone") }
func (panickingHost) NewNode(string) domain.Node           { return nil }
func (panickingHost) RegisterPerFrameCallback(func()) func() {
	return func() {}
}
