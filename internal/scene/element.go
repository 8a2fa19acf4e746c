package scene

import "github.com/genricoloni/backdrop/internal/domain"

// Element is an in-memory visual node
type Element struct {
	name     string
	parent   *Element
	children []*Element
	style    domain.Style
}

// NewElement creates a detached element
func NewElement(name string) *Element {
	return &Element{name: name}
}

func (e *Element) Name() string { return e.name }

// Insert adds child at index, clamped to [0, len]. A child attached
// elsewhere is moved. Nodes from another implementation are ignored.
func (e *Element) Insert(index int, child domain.Node) {
	c, ok := child.(*Element)
	if !ok || c == nil || c == e {
		return
	}
	c.RemoveFromParent()

	index = max(0, min(index, len(e.children)))
	e.children = append(e.children, nil)
	copy(e.children[index+1:], e.children[index:])
	e.children[index] = c
	c.parent = e
}

// Append adds child on top
func (e *Element) Append(child domain.Node) {
	e.Insert(len(e.children), child)
}

// FindByName searches descendants depth first
func (e *Element) FindByName(name string) domain.Node {
	for _, c := range e.children {
		if c.name == name {
			return c
		}
		if found := c.FindByName(name); found != nil {
			return found
		}
	}
	return nil
}

func (e *Element) RemoveFromParent() {
	p := e.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == e {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	e.parent = nil
}

func (e *Element) Children() []domain.Node {
	out := make([]domain.Node, len(e.children))
	for i, c := range e.children {
		out[i] = c
	}
	return out
}

// Parent returns the parent element, nil when detached
func (e *Element) Parent() *Element { return e.parent }

func (e *Element) Style() domain.Style         { return e.style }
func (e *Element) SetStyle(style domain.Style) { e.style = style }

// Count returns the number of descendants named name
func (e *Element) Count(name string) int {
	n := 0
	for _, c := range e.children {
		if c.name == name {
			n++
		}
		n += c.Count(name)
	}
	return n
}
