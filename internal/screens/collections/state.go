// Package collections implements the collection-creation flow: pick tabs,
// pick or name a collection, or rename an existing one.
package collections

import (
	"cmp"
	"encoding/json"
	"slices"

	"git.home.luguber.info/inful/screenstore/internal/util/sets"
)

// Name is the screen name used for stores, journal entries and relay subjects.
const Name = "collections"

// Step is the current page of the flow.
type Step string

const (
	StepSelectTabs       Step = "select_tabs"
	StepSelectCollection Step = "select_collection"
	StepNameCollection   Step = "name_collection"
	StepRenameCollection Step = "rename_collection"
)

// Valid reports whether s is a known step.
func (s Step) Valid() bool {
	switch s {
	case StepSelectTabs, StepSelectCollection, StepNameCollection, StepRenameCollection:
		return true
	}
	return false
}

// Tab is an open tab that can be saved into a collection.
type Tab struct {
	SessionID string `json:"session_id" yaml:"session_id"`
	URL       string `json:"url" yaml:"url"`
	Hostname  string `json:"hostname" yaml:"hostname"`
	Title     string `json:"title" yaml:"title"`
}

// Collection is a saved group of tabs.
type Collection struct {
	ID    int64  `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
	Tabs  []Tab  `json:"tabs,omitempty" yaml:"tabs,omitempty"`
}

// State is the collection-creation screen state.
type State struct {
	Tabs               []Tab         `json:"tabs"`
	SelectedTabs       sets.Set[Tab] `json:"selected_tabs"`
	Step               Step          `json:"step"`
	Collections        []Collection  `json:"collections"`
	SelectedCollection *Collection   `json:"selected_collection,omitempty"`
}

// Initial starts the flow at step with the given tabs preselected.
func Initial(step Step, tabs []Tab, selected ...Tab) State {
	if !step.Valid() {
		step = StepSelectTabs
	}
	return State{
		Tabs:         slices.Clone(tabs),
		SelectedTabs: sets.New(selected...),
		Step:         step,
		Collections:  []Collection{},
	}
}

// AllTabsSelected reports whether every available tab is selected.
func (s State) AllTabsSelected() bool {
	if len(s.Tabs) == 0 {
		return false
	}
	for _, t := range s.Tabs {
		if !s.SelectedTabs.Has(t) {
			return false
		}
	}
	return true
}

// SelectedInOrder returns the selected tabs in the order they are listed.
func (s State) SelectedInOrder() []Tab {
	var out []Tab
	for _, t := range s.Tabs {
		if s.SelectedTabs.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

// MarshalJSON encodes the selection in tab order so snapshots are stable.
// Selected tabs that are no longer listed follow, ordered by their fields.
func (s State) MarshalJSON() ([]byte, error) {
	type plain State
	p := plain(s)
	out := struct {
		plain
		SelectedTabs []Tab `json:"selected_tabs"`
	}{plain: p, SelectedTabs: s.selectionForWire()}
	return json.Marshal(out)
}

func (s State) selectionForWire() []Tab {
	ordered := s.SelectedInOrder()
	listed := sets.New(s.Tabs...)
	extra := s.SelectedTabs.Filter(func(t Tab) bool { return !listed.Has(t) })
	out := make([]Tab, 0, s.SelectedTabs.Len())
	out = append(out, ordered...)
	return append(out, extra.SortedFunc(compareTabs)...)
}

// compareTabs orders tabs by every field, so distinct tabs never tie.
func compareTabs(a, b Tab) int {
	return cmp.Or(
		cmp.Compare(a.SessionID, b.SessionID),
		cmp.Compare(a.URL, b.URL),
		cmp.Compare(a.Hostname, b.Hostname),
		cmp.Compare(a.Title, b.Title),
	)
}
