package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/screenstore/internal/foundation/errors"
	"git.home.luguber.info/inful/screenstore/internal/screens/screenstest"
	"git.home.luguber.info/inful/screenstore/internal/util/sets"
)

var (
	historyItem    = Item{ID: 0, Title: "title", URL: "url", VisitedAt: 0}
	newHistoryItem = Item{ID: 1, Title: "title", URL: "url", VisitedAt: 0}
)

func editState(items ...Item) State {
	s := Initial()
	s.Mode = Editing{Selected: sets.New(items...)}
	return s
}

func reduceAll(s State, actions ...Action) State {
	for _, a := range actions {
		s = Reduce(s, a)
	}
	return s
}

func requireEditing(t *testing.T, mode Mode, want ...Item) {
	t.Helper()
	e, ok := mode.(Editing)
	require.True(t, ok, "expected Editing, got %T", mode)
	assert.True(t, e.Selected.Equal(sets.New(want...)), "selected %v, want %v", e.Selected.Values(), want)
}

func TestReduce_ExitEditMode(t *testing.T) {
	got := Reduce(editState(historyItem), ExitEditMode{})
	assert.Equal(t, Normal{}, got.Mode)
}

func TestReduce_ExitEditModeIsIdempotent(t *testing.T) {
	once := Reduce(editState(historyItem), ExitEditMode{})
	twice := Reduce(once, ExitEditMode{})
	assert.Equal(t, Normal{}, once.Mode)
	assert.Equal(t, once, twice)
}

func TestReduce_AddItemForRemovalFromNormal(t *testing.T) {
	got := Reduce(Initial(), AddItemForRemoval{Item: newHistoryItem})
	requireEditing(t, got.Mode, newHistoryItem)
}

func TestReduce_AddItemForRemovalExtendsSelection(t *testing.T) {
	got := Reduce(editState(historyItem), AddItemForRemoval{Item: newHistoryItem})
	requireEditing(t, got.Mode, historyItem, newHistoryItem)
}

func TestReduce_AddItemForRemovalDoesNotMutateInput(t *testing.T) {
	in := editState(historyItem)
	_ = Reduce(in, AddItemForRemoval{Item: newHistoryItem})
	requireEditing(t, in.Mode, historyItem)
}

func TestReduce_RemoveItemForRemoval(t *testing.T) {
	got := Reduce(editState(historyItem, newHistoryItem), RemoveItemForRemoval{Item: newHistoryItem})
	requireEditing(t, got.Mode, historyItem)
}

func TestReduce_RemovingLastSelectedItemRevertsToNormal(t *testing.T) {
	got := Reduce(editState(historyItem), RemoveItemForRemoval{Item: historyItem})
	assert.Equal(t, Normal{}, got.Mode)
}

func TestReduce_RemoveItemForRemovalOutsideEditingIsIdentity(t *testing.T) {
	in := Initial(historyItem)
	assert.Equal(t, in, Reduce(in, RemoveItemForRemoval{Item: historyItem}))

	syncing := Reduce(in, StartSync{})
	assert.Equal(t, syncing, Reduce(syncing, RemoveItemForRemoval{Item: historyItem}))
}

func TestReduce_SelectionUsesWholeValue(t *testing.T) {
	renamed := historyItem
	renamed.Title = "renamed"

	got := Reduce(editState(historyItem), RemoveItemForRemoval{Item: renamed})
	requireEditing(t, got.Mode, historyItem)
}

func TestReduce_AddOrderIsCommutative(t *testing.T) {
	xy := reduceAll(Initial(), AddItemForRemoval{Item: historyItem}, AddItemForRemoval{Item: newHistoryItem})
	yx := reduceAll(Initial(), AddItemForRemoval{Item: newHistoryItem}, AddItemForRemoval{Item: historyItem})
	requireEditing(t, xy.Mode, historyItem, newHistoryItem)
	requireEditing(t, yx.Mode, historyItem, newHistoryItem)
}

func TestReduce_ExitEditModeBetweenAddsResetsSelection(t *testing.T) {
	got := reduceAll(Initial(),
		AddItemForRemoval{Item: historyItem},
		ExitEditMode{},
		AddItemForRemoval{Item: newHistoryItem},
	)
	requireEditing(t, got.Mode, newHistoryItem)
}

func TestReduce_StartSyncFromAnyMode(t *testing.T) {
	for _, in := range []State{Initial(), editState(historyItem), Reduce(Initial(), StartSync{})} {
		assert.Equal(t, Syncing{}, Reduce(in, StartSync{}).Mode)
	}
}

func TestReduce_FinishSync(t *testing.T) {
	in := Initial()
	in.Mode = Syncing{}
	assert.Equal(t, Normal{}, Reduce(in, FinishSync{}).Mode)
}

func TestReduce_SyncRoundTripDiscardsSelection(t *testing.T) {
	got := reduceAll(editState(historyItem, newHistoryItem), StartSync{}, FinishSync{})
	assert.Equal(t, Normal{}, got.Mode)
	assert.Empty(t, got.Selected())
}

func TestReduce_DeletionMode(t *testing.T) {
	on := Reduce(Initial(), EnterDeletionMode{})
	assert.True(t, on.IsDeletingItems)
	assert.False(t, Reduce(on, ExitDeletionMode{}).IsDeletingItems)
}

func TestReduce_PendingDeletionSetAndUndo(t *testing.T) {
	in := Initial(historyItem, newHistoryItem)

	pending := Reduce(in, AddPendingDeletionSet{IDs: []int64{1}})
	assert.True(t, pending.PendingDeletionIDs.Has(1))
	assert.Equal(t, []Item{historyItem}, pending.Visible())
	assert.False(t, in.PendingDeletionIDs.Has(1))

	undone := Reduce(pending, UndoPendingDeletionSet{IDs: []int64{1}})
	assert.Equal(t, 0, undone.PendingDeletionIDs.Len())
	assert.Len(t, undone.Visible(), 2)
}

func TestReduce_EmptyPendingDeletionSetIsProgrammerError(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.True(t, ferrors.IsProgrammerError(err))
	}()
	Reduce(Initial(), AddPendingDeletionSet{})
}

func TestReduce_ReplaceItemsSortsAndPrunesSelection(t *testing.T) {
	older := Item{ID: 2, Title: "old", URL: "https://old", VisitedAt: 10}
	newer := Item{ID: 3, Title: "new", URL: "https://new", VisitedAt: 20}

	in := editState(historyItem, older)
	got := Reduce(in, ReplaceItems{Items: []Item{older, newer}})

	assert.Equal(t, []Item{newer, older}, got.Items)
	requireEditing(t, got.Mode, older)

	gone := Reduce(editState(historyItem), ReplaceItems{Items: []Item{newer}})
	assert.Equal(t, Normal{}, gone.Mode)
}

func TestReduce_ReplaceItemsKeepsNonEditingMode(t *testing.T) {
	in := Reduce(Initial(), StartSync{})
	got := Reduce(in, ReplaceItems{Items: []Item{historyItem}})
	assert.Equal(t, Syncing{}, got.Mode)
	assert.Equal(t, []Item{historyItem}, got.Items)
}

func TestReduce_NilActionIsProgrammerError(t *testing.T) {
	assert.Panics(t, func() { Reduce(Initial(), nil) })
}

// Every registered action kind must be handled by Reduce. Type switches are
// checked by gochecksumtype at lint time; this covers the codec registry.
func TestReduce_HandlesEveryRegisteredKind(t *testing.T) {
	samples := map[string]Action{
		"AddPendingDeletionSet": AddPendingDeletionSet{IDs: []int64{1}},
	}
	for _, kind := range Codec.Kinds() {
		t.Run(kind, func(t *testing.T) {
			action, ok := samples[kind]
			if !ok {
				var err error
				action, err = Codec.Decode(envelope(kind))
				require.NoError(t, err)
			}
			assert.NotPanics(t, func() { Reduce(editState(historyItem), action) })
		})
	}
}

func TestCodec_RegistersEverySealedVariant(t *testing.T) {
	assert.Equal(t, screenstest.Variants(t, ".", "isHistoryAction"), Codec.Kinds())
}
