package decorator

import (
	"github.com/genricoloni/backdrop/internal/domain"
	"go.uber.org/zap"
)

// Remove detaches every node owned for the window and forgets it.
// The window's random pick is kept.
func (m *Manager) Remove(id domain.WindowID) {
	d, ok := m.decorations[id]
	if !ok {
		return
	}
	detach(d)
	delete(m.decorations, id)
}

// RemoveAll tears down every tracked window
func (m *Manager) RemoveAll() {
	for id := range m.decorations {
		m.Remove(id)
	}
}

// Purge forgets windows missing from live or no longer valid, releasing
// their random picks. It returns the number of windows dropped.
func (m *Manager) Purge(live []domain.Window) int {
	alive := make(map[domain.WindowID]bool, len(live))
	for _, w := range live {
		if w != nil && w.Valid() {
			alive[w.ID()] = true
		}
	}

	dropped := 0
	for id, d := range m.decorations {
		if alive[id] && d.window.Valid() {
			continue
		}
		detach(d)
		delete(m.decorations, id)
		dropped++
	}
	for id, tex := range m.windowTextures {
		if alive[id] {
			continue
		}
		tex.Release()
		delete(m.windowTextures, id)
	}

	if dropped > 0 {
		m.logger.Debug("Purged stale windows", zap.Int("count", dropped))
	}
	return dropped
}

// ReleaseWindowTextures drops every per-window random pick
func (m *Manager) ReleaseWindowTextures() {
	for id, tex := range m.windowTextures {
		tex.Release()
		delete(m.windowTextures, id)
	}
}

// Close tears everything down
func (m *Manager) Close() {
	m.RemoveAll()
	m.ReleaseWindowTextures()
}

// Counts returns the number of tracked windows and of windows carrying at least one node
func (m *Manager) Counts() (tracked, decorated int) {
	for _, d := range m.decorations {
		if len(d.nodes()) > 0 {
			decorated++
		}
	}
	return len(m.decorations), decorated
}

// WindowTexture returns the random pick held for a window
func (m *Manager) WindowTexture(id domain.WindowID) (*domain.Texture, bool) {
	tex, ok := m.windowTextures[id]
	return tex, ok
}

// detach removes the stored nodes, then anything left under the owned
// names while the window is still reachable
func detach(d *decoration) {
	for _, n := range d.nodes() {
		n.RemoveFromParent()
	}
	d.background, d.inner, d.overlay, d.border = nil, nil, nil, nil

	if d.window == nil || !d.window.Valid() {
		return
	}
	root := d.window.RootNode()
	if root == nil {
		return
	}
	for _, name := range ownedNames {
		if n := root.FindByName(name); n != nil {
			n.RemoveFromParent()
		}
	}
}
