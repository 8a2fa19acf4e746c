//go:build linux

package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/genricoloni/backdrop/internal/domain"
)

// xgbSource reads EWMH client windows over an xgbutil connection
type xgbSource struct {
	xu   *xgbutil.XUtil
	root xproto.Window
}

func newSource() (windowSource, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &xgbSource{xu: xu, root: xu.RootWin()}, nil
}

func (s *xgbSource) Windows() ([]ClientWindow, error) {
	clients, err := ewmh.ClientListGet(s.xu)
	if err != nil {
		return nil, fmt.Errorf("failed to read _NET_CLIENT_LIST: %w", err)
	}

	out := make([]ClientWindow, 0, len(clients))
	for _, id := range clients {
		rect, ok := s.rect(id)
		if !ok {
			// Destroyed between the list and the geometry query
			continue
		}
		out = append(out, ClientWindow{
			ID:     uint32(id),
			Rect:   rect,
			Class:  s.class(id),
			Title:  s.title(id),
			Normal: s.normal(id),
			Hidden: s.hidden(id),
		})
	}
	return out, nil
}

func (s *xgbSource) Close() error {
	s.xu.Conn().Close()
	return nil
}

func (s *xgbSource) rect(id xproto.Window) (domain.Rect, bool) {
	geom, err := xproto.GetGeometry(s.xu.Conn(), xproto.Drawable(id)).Reply()
	if err != nil {
		return domain.Rect{}, false
	}
	translate, err := xproto.TranslateCoordinates(s.xu.Conn(), id, s.root, 0, 0).Reply()
	if err != nil {
		return domain.Rect{}, false
	}
	return domain.Rect{
		X:      float64(translate.DstX),
		Y:      float64(translate.DstY),
		Width:  float64(geom.Width),
		Height: float64(geom.Height),
	}, true
}

func (s *xgbSource) normal(id xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(s.xu, id)
	if err != nil {
		return true
	}
	for _, t := range types {
		switch t {
		case "_NET_WM_WINDOW_TYPE_NORMAL", "_NET_WM_WINDOW_TYPE_DIALOG":
			return true
		case "_NET_WM_WINDOW_TYPE_DESKTOP",
			"_NET_WM_WINDOW_TYPE_DOCK",
			"_NET_WM_WINDOW_TYPE_SPLASH",
			"_NET_WM_WINDOW_TYPE_NOTIFICATION":
			return false
		}
	}
	return len(types) == 0
}

func (s *xgbSource) hidden(id xproto.Window) bool {
	states, err := ewmh.WmStateGet(s.xu, id)
	if err != nil {
		return false
	}
	for _, state := range states {
		if state == "_NET_WM_STATE_HIDDEN" {
			return true
		}
	}
	return false
}

func (s *xgbSource) class(id xproto.Window) string {
	wmClass, err := icccm.WmClassGet(s.xu, id)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(wmClass.Class)
}

func (s *xgbSource) title(id xproto.Window) string {
	if title, err := ewmh.WmNameGet(s.xu, id); err == nil && strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title)
	}
	if title, err := icccm.WmNameGet(s.xu, id); err == nil {
		return strings.TrimSpace(title)
	}
	return ""
}
