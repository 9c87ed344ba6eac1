// Package bookmarks implements the Bookmarks folder screen: one folder of
// the bookmark tree with multi-select, navigation history and sync.
package bookmarks

import (
	"encoding/json"
	"fmt"
	"slices"

	"git.home.luguber.info/inful/screenstore/internal/util/sets"
)

// Name is the screen name used for stores, journal entries and relay subjects.
const Name = "bookmarks"

// NodeType classifies a bookmark tree node.
type NodeType string

const (
	TypeItem      NodeType = "item"
	TypeFolder    NodeType = "folder"
	TypeSeparator NodeType = "separator"
)

// Root folder GUIDs. They can be browsed but never selected for editing.
const (
	RootGUID    = "root________"
	MenuGUID    = "menu________"
	ToolbarGUID = "toolbar_____"
	UnfiledGUID = "unfiled_____"
	MobileGUID  = "mobile______"
)

var rootGUIDs = sets.New(RootGUID, MenuGUID, ToolbarGUID, UnfiledGUID, MobileGUID)

// IsRoot reports whether guid names one of the fixed root folders.
func IsRoot(guid string) bool { return rootGUIDs.Has(guid) }

// Node is one entry of the bookmark tree.
type Node struct {
	GUID       string   `json:"guid" yaml:"guid"`
	Type       NodeType `json:"type" yaml:"type"`
	ParentGUID string   `json:"parent_guid,omitempty" yaml:"parent_guid,omitempty"`
	Title      string   `json:"title,omitempty" yaml:"title,omitempty"`
	URL        string   `json:"url,omitempty" yaml:"url,omitempty"`
	Position   int      `json:"position" yaml:"position"`
	Children   []Node   `json:"children,omitempty" yaml:"children,omitempty"`
}

// Child returns the direct child with guid.
func (n *Node) Child(guid string) (Node, bool) {
	if n == nil {
		return Node{}, false
	}
	for _, c := range n.Children {
		if c.GUID == guid {
			return c, true
		}
	}
	return Node{}, false
}

// Mode is the screen's interaction mode.
//
//sumtype:decl
type Mode interface {
	isMode()
	Kind() string
}

// Normal is the default browsing mode.
type Normal struct{}

// Selecting holds the GUIDs of the selected children of the current folder.
// It is never empty.
type Selecting struct {
	Selected sets.Set[string]
}

// Syncing is active while a bookmark sync is in flight.
type Syncing struct{}

func (Normal) isMode()    {}
func (Selecting) isMode() {}
func (Syncing) isMode()   {}

func (Normal) Kind() string    { return "normal" }
func (Selecting) Kind() string { return "selecting" }
func (Syncing) Kind() string   { return "syncing" }

// State is the Bookmarks screen state.
type State struct {
	Tree          *Node
	Mode          Mode
	GUIDBackstack []string
}

// Initial returns a Normal-mode state showing tree. A nil tree shows nothing
// until the first Change.
func Initial(tree *Node) State {
	s := State{Mode: Normal{}, GUIDBackstack: []string{}}
	if tree != nil {
		t := *tree
		s.Tree = &t
		s.GUIDBackstack = []string{tree.GUID}
	}
	return s
}

// SelectedGUIDs returns the selected GUIDs in tree order.
func (s State) SelectedGUIDs() []string {
	sel, ok := s.Mode.(Selecting)
	if !ok || s.Tree == nil {
		return nil
	}
	var out []string
	for _, c := range s.Tree.Children {
		if sel.Selected.Has(c.GUID) {
			out = append(out, c.GUID)
		}
	}
	return out
}

type wireMode struct {
	Kind     string   `json:"kind"`
	Selected []string `json:"selected,omitempty"`
}

type wireState struct {
	Tree          *Node    `json:"tree"`
	Mode          wireMode `json:"mode"`
	GUIDBackstack []string `json:"guid_backstack"`
}

// MarshalJSON encodes the state with a tagged mode.
func (s State) MarshalJSON() ([]byte, error) {
	w := wireState{Tree: s.Tree, GUIDBackstack: s.GUIDBackstack}
	if w.GUIDBackstack == nil {
		w.GUIDBackstack = []string{}
	}
	switch m := s.Mode.(type) {
	case nil:
		w.Mode.Kind = Normal{}.Kind()
	case Normal, Syncing:
		w.Mode.Kind = m.Kind()
	case Selecting:
		w.Mode.Kind = m.Kind()
		w.Mode.Selected = m.Selected.Values()
		slices.Sort(w.Mode.Selected)
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes a state written by MarshalJSON.
func (s *State) UnmarshalJSON(data []byte) error {
	var w wireState
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	var mode Mode
	switch w.Mode.Kind {
	case "", Normal{}.Kind():
		mode = Normal{}
	case Syncing{}.Kind():
		mode = Syncing{}
	case Selecting{}.Kind():
		if len(w.Mode.Selected) == 0 {
			mode = Normal{}
		} else {
			mode = Selecting{Selected: sets.New(w.Mode.Selected...)}
		}
	default:
		return fmt.Errorf("unknown bookmarks mode %q", w.Mode.Kind)
	}
	if w.GUIDBackstack == nil {
		w.GUIDBackstack = []string{}
	}
	*s = State{Tree: w.Tree, Mode: mode, GUIDBackstack: w.GUIDBackstack}
	return nil
}
