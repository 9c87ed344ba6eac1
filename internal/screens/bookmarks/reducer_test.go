package bookmarks

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/screenstore/internal/foundation/errors"
	"git.home.luguber.info/inful/screenstore/internal/screens"
	"git.home.luguber.info/inful/screenstore/internal/screens/screenstest"
	"git.home.luguber.info/inful/screenstore/internal/store/storetest"
	"git.home.luguber.info/inful/screenstore/internal/util/sets"
)

var (
	item      = Node{GUID: "item1", Type: TypeItem, ParentGUID: MobileGUID, Title: "Mozilla", URL: "https://www.mozilla.org", Position: 0}
	subfolder = Node{GUID: "folder1", Type: TypeFolder, ParentGUID: MobileGUID, Title: "Folder", Position: 1}
	separator = Node{GUID: "sep1", Type: TypeSeparator, ParentGUID: MobileGUID, Position: 2}
	tree      = Node{GUID: MobileGUID, Type: TypeFolder, Title: "Mobile", Children: []Node{item, subfolder, separator}}
)

func requireSelecting(t *testing.T, mode Mode, guids ...string) {
	t.Helper()
	s, ok := mode.(Selecting)
	require.True(t, ok, "expected Selecting, got %T", mode)
	assert.True(t, s.Selected.Equal(sets.New(guids...)), "selected %v, want %v", s.Selected.Values(), guids)
}

func TestReduce_SelectAndDeselect(t *testing.T) {
	s := Reduce(Initial(&tree), Select{Node: item})
	requireSelecting(t, s.Mode, item.GUID)

	s = Reduce(s, Select{Node: subfolder})
	requireSelecting(t, s.Mode, item.GUID, subfolder.GUID)
	assert.Equal(t, []string{item.GUID, subfolder.GUID}, s.SelectedGUIDs())

	s = Reduce(s, Deselect{Node: item})
	requireSelecting(t, s.Mode, subfolder.GUID)

	s = Reduce(s, Deselect{Node: subfolder})
	assert.Equal(t, Normal{}, s.Mode)
}

func TestReduce_DeselectAll(t *testing.T) {
	s := Reduce(Reduce(Initial(&tree), Select{Node: item}), Select{Node: subfolder})
	assert.Equal(t, Normal{}, Reduce(s, DeselectAll{}).Mode)

	normal := Initial(&tree)
	assert.Equal(t, normal, Reduce(normal, DeselectAll{}))
}

func TestReduce_RootFoldersAreNotSelectable(t *testing.T) {
	in := Initial(&tree)
	got := Reduce(in, Select{Node: Node{GUID: MobileGUID, Type: TypeFolder}})
	assert.Equal(t, in, got)
}

func TestReduce_SelectingSeparatorIsProgrammerError(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.True(t, ferrors.IsProgrammerError(err))
	}()
	Reduce(Initial(&tree), Select{Node: separator})
}

func TestReduce_SelectWhileSyncingIsIgnored(t *testing.T) {
	syncing := Reduce(Initial(&tree), StartSync{})
	assert.Equal(t, Syncing{}, Reduce(syncing, Select{Node: item}).Mode)
}

func TestReduce_SyncRoundTripDiscardsSelection(t *testing.T) {
	s := Reduce(Initial(&tree), Select{Node: item})
	s = Reduce(s, StartSync{})
	assert.Equal(t, Syncing{}, s.Mode)
	s = Reduce(s, FinishSync{})
	assert.Equal(t, Normal{}, s.Mode)
}

func TestReduce_ChangePrunesSelection(t *testing.T) {
	s := Reduce(Reduce(Initial(&tree), Select{Node: item}), Select{Node: subfolder})

	smaller := tree
	smaller.Children = []Node{subfolder}
	s = Reduce(s, Change{Tree: smaller})
	requireSelecting(t, s.Mode, subfolder.GUID)
	assert.Len(t, s.Tree.Children, 1)

	empty := tree
	empty.Children = nil
	s = Reduce(s, Change{Tree: empty})
	assert.Equal(t, Normal{}, s.Mode)
}

func TestReduce_ChangeKeepsSyncing(t *testing.T) {
	s := Reduce(Initial(&tree), StartSync{})
	s = Reduce(s, Change{Tree: tree})
	assert.Equal(t, Syncing{}, s.Mode)
}

func TestReduce_ChangeMaintainsBackstack(t *testing.T) {
	s := Initial(&tree)
	assert.Equal(t, []string{MobileGUID}, s.GUIDBackstack)

	s = Reduce(s, Change{Tree: subfolder})
	assert.Equal(t, []string{MobileGUID, subfolder.GUID}, s.GUIDBackstack)

	refreshed := Reduce(s, Change{Tree: subfolder})
	assert.Equal(t, []string{MobileGUID, subfolder.GUID}, refreshed.GUIDBackstack)

	back := Reduce(s, Change{Tree: tree})
	assert.Equal(t, []string{MobileGUID}, back.GUIDBackstack)
	assert.Equal(t, []string{MobileGUID, subfolder.GUID}, s.GUIDBackstack, "input backstack must not change")
}

func TestReduce_HandlesEveryRegisteredKind(t *testing.T) {
	for _, kind := range Codec.Kinds() {
		t.Run(kind, func(t *testing.T) {
			action, err := Codec.Decode(screens.Envelope{Kind: kind})
			require.NoError(t, err)
			if sel, ok := action.(Select); ok {
				sel.Node = item
				action = sel
			}
			assert.NotPanics(t, func() { Reduce(Initial(&tree), action) })
		})
	}
}

func TestStore_SelectThroughStore(t *testing.T) {
	s := NewStore(Initial(&tree))
	t.Cleanup(func() { _ = s.Close() })
	rec := storetest.Record[State](t, s)

	state := storetest.MustApply(t, s, Action(Select{Node: item}))
	requireSelecting(t, state.Mode, item.GUID)

	f := s.Dispatch(Select{Node: separator})
	_, err := f.Wait(t.Context())
	assert.True(t, ferrors.IsProgrammerError(err))
	requireSelecting(t, s.State().Mode, item.GUID)
	assert.Equal(t, 1, rec.Len())
}

func TestState_JSONRoundTrip(t *testing.T) {
	in := Reduce(Initial(&tree), Select{Node: item})

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out State
	require.NoError(t, json.Unmarshal(data, &out))
	requireSelecting(t, out.Mode, item.GUID)
	assert.Equal(t, in.GUIDBackstack, out.GUIDBackstack)
	require.NotNil(t, out.Tree)
	assert.Equal(t, tree, *out.Tree)
}

func TestCodec_ChangeRoundTrip(t *testing.T) {
	env, err := Codec.Encode(Change{Tree: tree})
	require.NoError(t, err)

	action, err := Codec.Decode(env)
	require.NoError(t, err)
	assert.Equal(t, Change{Tree: tree}, action)
}

func TestCodec_RegistersEverySealedVariant(t *testing.T) {
	assert.Equal(t, screenstest.Variants(t, ".", "isBookmarkAction"), Codec.Kinds())
}
