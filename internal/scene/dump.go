package scene

import (
	"encoding/json"

	"github.com/genricoloni/backdrop/internal/config"
	"github.com/genricoloni/backdrop/internal/domain"
)

// NodeDump is the JSON view of a node subtree
type NodeDump struct {
	Name     string       `json:"name"`
	Layout   string       `json:"layout"`
	Frame    *domain.Rect `json:"frame,omitempty"`
	Texture  string       `json:"texture,omitempty"`
	Size     string       `json:"size,omitempty"`
	Repeat   bool         `json:"repeat,omitempty"`
	Tint     string       `json:"tint,omitempty"`
	Fill     string       `json:"fill,omitempty"`
	Border   string       `json:"border,omitempty"`
	Clip     bool         `json:"clip,omitempty"`
	Children []NodeDump   `json:"children,omitempty"`
}

// WindowDump is the JSON view of a window
type WindowDump struct {
	ID          uint64      `json:"id"`
	Title       string      `json:"title,omitempty"`
	Valid       bool        `json:"valid"`
	Decoratable bool        `json:"decoratable"`
	Position    domain.Rect `json:"position"`
	Root        *NodeDump   `json:"root,omitempty"`
}

var sizeNames = map[domain.ImageSizeKind]string{
	domain.SizeCover:    "cover",
	domain.SizeContain:  "contain",
	domain.SizeStretch:  "stretch",
	domain.SizeExplicit: "explicit",
}

// DumpNode converts a subtree
func DumpNode(n domain.Node) NodeDump {
	st := n.Style()
	d := NodeDump{Name: n.Name(), Layout: "fill", Clip: st.ClipOverflow}
	if st.Layout.Mode == domain.LayoutAbsolute {
		f := st.Layout.Frame
		d.Layout = "absolute"
		d.Frame = &f
	}
	if st.Texture != nil {
		d.Texture = st.Texture.Key
		d.Size = sizeNames[st.ImageSize.Kind]
		d.Repeat = st.RepeatX || st.RepeatY
		d.Tint = config.FormatColor(st.Tint)
	}
	if st.HasFill {
		d.Fill = config.FormatColor(st.Fill)
	}
	if st.BorderWidth > 0 {
		d.Border = config.FormatColor(st.BorderColor)
	}
	for _, c := range n.Children() {
		d.Children = append(d.Children, DumpNode(c))
	}
	return d
}

// Dump renders windows and their node trees as indented JSON
func Dump(windows []domain.Window) ([]byte, error) {
	out := make([]WindowDump, 0, len(windows))
	for _, w := range windows {
		if w == nil {
			continue
		}
		wd := WindowDump{
			ID:          uint64(w.ID()),
			Valid:       w.Valid(),
			Decoratable: w.Decoratable(),
			Position:    w.Position(),
		}
		if t, ok := w.(interface{ Title() string }); ok {
			wd.Title = t.Title()
		}
		if root := w.RootNode(); root != nil {
			rd := DumpNode(root)
			wd.Root = &rd
		}
		out = append(out, wd)
	}
	return json.MarshalIndent(out, "", "  ")
}
