package collections

import (
	"fmt"
	"slices"

	ferrors "git.home.luguber.info/inful/screenstore/internal/foundation/errors"
	"git.home.luguber.info/inful/screenstore/internal/store"
	"git.home.luguber.info/inful/screenstore/internal/util/sets"
)

// Store is a collection-creation store.
type Store = store.Store[State, Action]

// NewStore creates a collection-creation store holding initial.
func NewStore(initial State, opts ...store.Option) *Store {
	return store.New(Name, initial, Reduce, opts...)
}

// Reduce applies action to state.
func Reduce(state State, action Action) State {
	if action == nil {
		panic(ferrors.ProgrammerError("nil collections action").Build())
	}
	switch a := action.(type) {
	case StepChanged:
		if !a.Step.Valid() {
			panic(ferrors.ProgrammerError("unknown collection step").WithContext("step", string(a.Step)).Build())
		}
		if a.Step == StepRenameCollection && state.SelectedCollection == nil {
			panic(ferrors.ProgrammerError("rename requires a selected collection").Build())
		}
		state.Step = a.Step
		return state
	case AddTabToSelection:
		state.SelectedTabs = state.SelectedTabs.With(a.Tab)
		return state
	case RemoveTabFromSelection:
		state.SelectedTabs = state.SelectedTabs.Without(a.Tab)
		return state
	case SelectAllTabs:
		state.SelectedTabs = sets.New(state.Tabs...)
		return state
	case DeselectAllTabs:
		state.SelectedTabs = sets.New[Tab]()
		return state
	case TabsChanged:
		state.Tabs = slices.Clone(a.Tabs)
		open := sets.New(state.Tabs...)
		state.SelectedTabs = state.SelectedTabs.Filter(open.Has)
		return state
	case CollectionsLoaded:
		state.Collections = slices.Clone(a.Collections)
		if state.SelectedCollection == nil {
			return state
		}
		if c, ok := findCollection(state.Collections, state.SelectedCollection.ID); ok {
			state.SelectedCollection = &c
			return state
		}
		state.SelectedCollection = nil
		if state.Step == StepRenameCollection {
			state.Step = StepSelectCollection
		}
		return state
	case CollectionSelected:
		c := a.Collection
		state.SelectedCollection = &c
		return state
	case BackPressed:
		if prev, ok := previousStep(a.From, len(state.Collections) > 0); ok {
			state.Step = prev
		}
		return state
	}
	panic(ferrors.ProgrammerError(fmt.Sprintf("unhandled collections action %T", action)).Build())
}

// previousStep returns the step reached by navigating back from step. The
// first step of each flow has no predecessor; the collaborator closes the
// screen in that case.
func previousStep(from Step, hasCollections bool) (Step, bool) {
	switch from {
	case StepSelectCollection:
		return StepSelectTabs, true
	case StepNameCollection:
		if hasCollections {
			return StepSelectCollection, true
		}
		return StepSelectTabs, true
	default:
		return "", false
	}
}

func findCollection(cs []Collection, id int64) (Collection, bool) {
	for _, c := range cs {
		if c.ID == id {
			return c, true
		}
	}
	return Collection{}, false
}
