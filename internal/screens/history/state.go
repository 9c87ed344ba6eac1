// Package history implements the History screen: a list of visited pages
// with multi-select for removal, sync and undo-able pending deletions.
package history

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"

	"git.home.luguber.info/inful/screenstore/internal/util/sets"
)

// Name is the screen name used for stores, journal entries and relay subjects.
const Name = "history"

// Item is one visited page. Set membership uses the whole value.
type Item struct {
	ID        int64  `json:"id" yaml:"id"`
	Title     string `json:"title" yaml:"title"`
	URL       string `json:"url" yaml:"url"`
	VisitedAt int64  `json:"visited_at" yaml:"visited_at"`
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

// Editing holds the items selected for removal. It is never empty; reducers
// revert to Normal instead.
type Editing struct {
	Selected sets.Set[Item]
}

// Syncing is active while a sync with the history storage is in flight.
type Syncing struct{}

func (Normal) isMode()  {}
func (Editing) isMode() {}
func (Syncing) isMode() {}

func (Normal) Kind() string  { return "normal" }
func (Editing) Kind() string { return "editing" }
func (Syncing) Kind() string { return "syncing" }

// State is the History screen state.
type State struct {
	Items              []Item
	Mode               Mode
	PendingDeletionIDs sets.Set[int64]
	IsDeletingItems    bool
}

// Initial returns a Normal-mode state holding items.
func Initial(items ...Item) State {
	return State{
		Items:              sortItems(items),
		Mode:               Normal{},
		PendingDeletionIDs: sets.New[int64](),
	}
}

// Selected returns the items selected for removal, newest first.
func (s State) Selected() []Item {
	if e, ok := s.Mode.(Editing); ok {
		return e.Selected.SortedFunc(compareItems)
	}
	return nil
}

// Visible returns the items not pending deletion.
func (s State) Visible() []Item {
	out := make([]Item, 0, len(s.Items))
	for _, it := range s.Items {
		if !s.PendingDeletionIDs.Has(it.ID) {
			out = append(out, it)
		}
	}
	return out
}

// compareItems orders newest first, then by ID.
func compareItems(a, b Item) int {
	if c := cmp.Compare(b.VisitedAt, a.VisitedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func sortItems(items []Item) []Item {
	out := slices.Clone(items)
	if out == nil {
		out = []Item{}
	}
	slices.SortStableFunc(out, compareItems)
	return out
}

type wireMode struct {
	Kind     string `json:"kind"`
	Selected []Item `json:"selected,omitempty"`
}

type wireState struct {
	Items              []Item   `json:"items"`
	Mode               wireMode `json:"mode"`
	PendingDeletionIDs []int64  `json:"pending_deletion_ids"`
	IsDeletingItems    bool     `json:"is_deleting_items"`
}

// MarshalJSON encodes the state with a tagged mode.
func (s State) MarshalJSON() ([]byte, error) {
	w := wireState{
		Items:              s.Items,
		PendingDeletionIDs: s.PendingDeletionIDs.SortedFunc(cmp.Compare[int64]),
		IsDeletingItems:    s.IsDeletingItems,
	}
	if w.Items == nil {
		w.Items = []Item{}
	}
	if s.Mode == nil {
		w.Mode.Kind = Normal{}.Kind()
	} else {
		w.Mode.Kind = s.Mode.Kind()
		w.Mode.Selected = s.Selected()
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes a state written by MarshalJSON.
func (s *State) UnmarshalJSON(data []byte) error {
	var w wireState
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	mode, err := decodeMode(w.Mode)
	if err != nil {
		return err
	}
	*s = State{
		Items:              sortItems(w.Items),
		Mode:               mode,
		PendingDeletionIDs: sets.New(w.PendingDeletionIDs...),
		IsDeletingItems:    w.IsDeletingItems,
	}
	return nil
}

func decodeMode(w wireMode) (Mode, error) {
	switch w.Kind {
	case "", Normal{}.Kind():
		return Normal{}, nil
	case Syncing{}.Kind():
		return Syncing{}, nil
	case Editing{}.Kind():
		if len(w.Selected) == 0 {
			return Normal{}, nil
		}
		return Editing{Selected: sets.New(w.Selected...)}, nil
	default:
		return nil, fmt.Errorf("unknown history mode %q", w.Kind)
	}
}
