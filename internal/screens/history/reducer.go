package history

import (
	"fmt"

	ferrors "git.home.luguber.info/inful/screenstore/internal/foundation/errors"
	"git.home.luguber.info/inful/screenstore/internal/store"
	"git.home.luguber.info/inful/screenstore/internal/util/sets"
)

// Store is a History screen store.
type Store = store.Store[State, Action]

// NewStore creates a History store holding initial.
func NewStore(initial State, opts ...store.Option) *Store {
	return store.New(Name, initial, Reduce, opts...)
}

// Reduce applies action to state.
//
// Removing the last selected item reverts to Normal; Editing never holds an
// empty selection.
func Reduce(state State, action Action) State {
	if action == nil {
		panic(ferrors.ProgrammerError("nil history action").Build())
	}
	switch a := action.(type) {
	case ExitEditMode:
		state.Mode = Normal{}
		return state
	case AddItemForRemoval:
		state.Mode = Editing{Selected: selection(state.Mode).With(a.Item)}
		return state
	case RemoveItemForRemoval:
		if _, ok := state.Mode.(Editing); !ok {
			return state
		}
		state.Mode = editingOrNormal(selection(state.Mode).Without(a.Item))
		return state
	case StartSync:
		state.Mode = Syncing{}
		return state
	case FinishSync:
		state.Mode = Normal{}
		return state
	case EnterDeletionMode:
		state.IsDeletingItems = true
		return state
	case ExitDeletionMode:
		state.IsDeletingItems = false
		return state
	case AddPendingDeletionSet:
		if len(a.IDs) == 0 {
			panic(ferrors.ProgrammerError("pending deletion set must not be empty").Build())
		}
		state.PendingDeletionIDs = state.PendingDeletionIDs.With(a.IDs...)
		return state
	case UndoPendingDeletionSet:
		state.PendingDeletionIDs = state.PendingDeletionIDs.Without(a.IDs...)
		return state
	case ReplaceItems:
		state.Items = sortItems(a.Items)
		if _, ok := state.Mode.(Editing); ok {
			present := sets.New(state.Items...)
			state.Mode = editingOrNormal(selection(state.Mode).Filter(present.Has))
		}
		return state
	}
	// Unreachable while the switch covers every variant; gochecksumtype
	// enforces that.
	panic(ferrors.ProgrammerError(fmt.Sprintf("unhandled history action %T", action)).Build())
}

// selection returns the current removal selection, empty outside Editing.
func selection(mode Mode) sets.Set[Item] {
	if e, ok := mode.(Editing); ok {
		return e.Selected
	}
	return sets.New[Item]()
}

func editingOrNormal(selected sets.Set[Item]) Mode {
	if selected.Len() == 0 {
		return Normal{}
	}
	return Editing{Selected: selected}
}
