package syncdriver

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/screenstore/internal/foundation/errors"
	"git.home.luguber.info/inful/screenstore/internal/screens/bookmarks"
	"git.home.luguber.info/inful/screenstore/internal/screens/history"
	"git.home.luguber.info/inful/screenstore/internal/store/storetest"
)

func newDriver(t *testing.T, opts ...Option) *Driver {
	t.Helper()
	d, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Stop() })
	return d
}

func newHistory(t *testing.T) *history.Store {
	t.Helper()
	st := history.NewStore(history.Initial())
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestRunNowBracketsFetchWithSyncModes(t *testing.T) {
	st := newHistory(t)
	rec := storetest.Record[history.State](t, st)

	items := []history.Item{{ID: 1, Title: "a", VisitedAt: 10}, {ID: 2, Title: "b", VisitedAt: 20}}
	d := newDriver(t)
	require.NoError(t, d.Register(HistoryTarget(st, func(context.Context) ([]history.Item, error) {
		return items, nil
	}), 0))

	require.NoError(t, d.RunNow(t.Context(), history.Name))

	states := rec.States()
	require.Len(t, states, 3)
	assert.Equal(t, history.Syncing{}, states[0].Mode)
	assert.Equal(t, history.Syncing{}, states[1].Mode)
	assert.Len(t, states[1].Items, 2)
	assert.Equal(t, history.Normal{}, states[2].Mode)
	assert.Equal(t, int64(2), st.State().Items[0].ID)
}

func TestRunNowFetchFailureStillFinishes(t *testing.T) {
	st := newHistory(t)
	d := newDriver(t)
	require.NoError(t, d.Register(HistoryTarget(st, func(context.Context) ([]history.Item, error) {
		return nil, errors.New("offline")
	}), 0))

	err := d.RunNow(t.Context(), history.Name)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategorySync))
	assert.Equal(t, history.Normal{}, st.State().Mode)
	assert.Equal(t, uint64(2), st.Version())
}

func TestRunNowUnknownTarget(t *testing.T) {
	d := newDriver(t)
	err := d.RunNow(t.Context(), "missing")
	require.ErrorIs(t, err, ErrUnknownTarget)
}

func TestRegisterTwice(t *testing.T) {
	st := newHistory(t)
	d := newDriver(t)
	fetch := func(context.Context) ([]history.Item, error) { return nil, nil }
	require.NoError(t, d.Register(HistoryTarget(st, fetch), 0))
	require.Error(t, d.Register(HistoryTarget(st, fetch), 0))
}

func TestTimeoutCancelsFetch(t *testing.T) {
	st := newHistory(t)
	d := newDriver(t, WithTimeout(20*time.Millisecond))
	require.NoError(t, d.Register(HistoryTarget(st, func(ctx context.Context) ([]history.Item, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}), 0))

	err := d.RunNow(t.Context(), history.Name)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, history.Normal{}, st.State().Mode)
}

func TestScheduledSync(t *testing.T) {
	st := newHistory(t)
	var calls atomic.Int32
	d := newDriver(t)
	require.NoError(t, d.Register(HistoryTarget(st, func(context.Context) ([]history.Item, error) {
		calls.Add(1)
		return nil, nil
	}), 10*time.Millisecond))
	assert.Equal(t, 1, d.Scheduled())

	d.Start()
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, d.Reschedule(0))
	assert.Zero(t, d.Scheduled())
}

func TestBookmarksTargetFromJSONFile(t *testing.T) {
	tree := bookmarks.Node{
		GUID:  "folder-1",
		Type:  bookmarks.TypeFolder,
		Title: "Reading",
		Children: []bookmarks.Node{
			{GUID: "item-1", Type: bookmarks.TypeItem, ParentGUID: "folder-1", Title: "Go", URL: "https://go.dev"},
		},
	}
	data, err := json.Marshal(tree)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "bookmarks.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	st := bookmarks.NewStore(bookmarks.Initial(nil))
	t.Cleanup(func() { _ = st.Close() })

	d := newDriver(t)
	require.NoError(t, d.Register(BookmarksTarget(st, JSONFile[bookmarks.Node](path)), 0))
	require.NoError(t, d.RunNow(t.Context(), bookmarks.Name))

	state := st.State()
	assert.Equal(t, bookmarks.Normal{}, state.Mode)
	require.NotNil(t, state.Tree)
	assert.Equal(t, "folder-1", state.Tree.GUID)
	assert.Equal(t, []string{"folder-1"}, state.GUIDBackstack)
}

func TestJSONFileMissing(t *testing.T) {
	_, err := JSONFile[[]history.Item](filepath.Join(t.TempDir(), "nope.json"))(t.Context())
	require.Error(t, err)
}
