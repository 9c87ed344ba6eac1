package bookmarks

import (
	"fmt"
	"slices"

	ferrors "git.home.luguber.info/inful/screenstore/internal/foundation/errors"
	"git.home.luguber.info/inful/screenstore/internal/store"
	"git.home.luguber.info/inful/screenstore/internal/util/sets"
)

// Store is a Bookmarks screen store.
type Store = store.Store[State, Action]

// NewStore creates a Bookmarks store holding initial.
func NewStore(initial State, opts ...store.Option) *Store {
	return store.New(Name, initial, Reduce, opts...)
}

// Reduce applies action to state.
func Reduce(state State, action Action) State {
	if action == nil {
		panic(ferrors.ProgrammerError("nil bookmarks action").Build())
	}
	switch a := action.(type) {
	case Change:
		return change(state, a.Tree)
	case Select:
		if a.Node.Type == TypeSeparator {
			panic(ferrors.ProgrammerError("separators cannot be selected").
				WithContext("guid", a.Node.GUID).
				Build())
		}
		if IsRoot(a.Node.GUID) {
			return state
		}
		if _, syncing := state.Mode.(Syncing); syncing {
			return state
		}
		state.Mode = Selecting{Selected: selected(state.Mode).With(a.Node.GUID)}
		return state
	case Deselect:
		if _, ok := state.Mode.(Selecting); !ok {
			return state
		}
		state.Mode = selectingOrNormal(selected(state.Mode).Without(a.Node.GUID))
		return state
	case DeselectAll:
		if _, ok := state.Mode.(Selecting); !ok {
			return state
		}
		state.Mode = Normal{}
		return state
	case StartSync:
		state.Mode = Syncing{}
		return state
	case FinishSync:
		state.Mode = Normal{}
		return state
	}
	panic(ferrors.ProgrammerError(fmt.Sprintf("unhandled bookmarks action %T", action)).Build())
}

// change installs tree, keeps only selections still among its children and
// records the navigation in the backstack. Returning to a folder already on
// the backstack drops everything above it.
func change(state State, tree Node) State {
	t := tree
	state.Tree = &t

	if _, ok := state.Mode.(Selecting); ok {
		children := sets.New[string]()
		for _, c := range tree.Children {
			children.Add(c.GUID)
		}
		state.Mode = selectingOrNormal(selected(state.Mode).Filter(children.Has))
	}

	if i := slices.Index(state.GUIDBackstack, tree.GUID); i >= 0 {
		state.GUIDBackstack = slices.Clone(state.GUIDBackstack[:i+1])
	} else {
		next := make([]string, len(state.GUIDBackstack), len(state.GUIDBackstack)+1)
		copy(next, state.GUIDBackstack)
		state.GUIDBackstack = append(next, tree.GUID)
	}
	return state
}

func selected(mode Mode) sets.Set[string] {
	if s, ok := mode.(Selecting); ok {
		return s.Selected
	}
	return sets.New[string]()
}

func selectingOrNormal(guids sets.Set[string]) Mode {
	if guids.Len() == 0 {
		return Normal{}
	}
	return Selecting{Selected: guids}
}
