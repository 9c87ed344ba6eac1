package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/screenstore/internal/foundation/errors"
	"git.home.luguber.info/inful/screenstore/internal/screens/history"
	"git.home.luguber.info/inful/screenstore/internal/store/storetest"
)

func flush(t *testing.T, w *Writer) {
	t.Helper()
	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
	defer cancel()
	require.NoError(t, w.Close(ctx))
}

func TestAttachAndReplay_RebuildsLiveState(t *testing.T) {
	j := openMemory(t)
	w := NewWriter(j, nil)

	st := history.NewStore(history.Initial())
	t.Cleanup(func() { _ = st.Close() })
	Attach(w, "session-1", st, history.Codec)

	a := history.Item{ID: 1, Title: "a", URL: "https://a", VisitedAt: 10}
	b := history.Item{ID: 2, Title: "b", URL: "https://b", VisitedAt: 20}
	for _, action := range []history.Action{
		history.ReplaceItems{Items: []history.Item{a, b}},
		history.AddItemForRemoval{Item: a},
		history.AddItemForRemoval{Item: b},
		history.RemoveItemForRemoval{Item: a},
		history.AddPendingDeletionSet{IDs: []int64{2}},
	} {
		storetest.MustApply(t, st, action)
	}
	flush(t, w)
	assert.Equal(t, uint64(5), w.Written())
	assert.Equal(t, uint64(0), w.Failed())

	replayed, n, err := Replay(t.Context(), j, "session-1", history.Codec, history.Initial(), history.Reduce)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, st.State(), replayed)
}

func TestAttach_RejectedActionsAreNotJournaled(t *testing.T) {
	j := openMemory(t)
	w := NewWriter(j, nil)

	st := history.NewStore(history.Initial())
	t.Cleanup(func() { _ = st.Close() })
	Attach(w, "s", st, history.Codec)

	storetest.MustApply(t, st, history.Action(history.StartSync{}))
	_, err := st.Dispatch(history.AddPendingDeletionSet{}).Wait(t.Context())
	require.Error(t, err)
	flush(t, w)

	entries, err := j.Entries(t.Context(), "s", history.Name)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "StartSync", entries[0].Kind)
}

func TestReplay_UnknownSession(t *testing.T) {
	j := openMemory(t)
	_, _, err := Replay(t.Context(), j, "nope", history.Codec, history.Initial(), history.Reduce)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
}

func TestReplay_CorruptEntry(t *testing.T) {
	j := openMemory(t)
	ctx := t.Context()
	require.NoError(t, j.Append(ctx, Entry{Session: "s", Screen: history.Name, Version: 1, Kind: "StartSync"}))
	require.NoError(t, j.Append(ctx, Entry{Session: "s", Screen: history.Name, Version: 2, Kind: "Teleport"}))

	state, n, err := Replay(ctx, j, "s", history.Codec, history.Initial(), history.Reduce)
	assert.ErrorIs(t, err, ErrReplayFailed)
	assert.Equal(t, 1, n)
	assert.Equal(t, history.Syncing{}, state.Mode)
}

func TestReplay_ProgrammerErrorStopsReplay(t *testing.T) {
	j := openMemory(t)
	ctx := t.Context()
	require.NoError(t, j.Append(ctx, Entry{Session: "s", Screen: history.Name, Version: 1, Kind: "AddPendingDeletionSet", Payload: []byte(`{"ids":[]}`)}))

	_, _, err := Replay(ctx, j, "s", history.Codec, history.Initial(), history.Reduce)
	assert.ErrorIs(t, err, ErrReplayFailed)
	assert.True(t, ferrors.IsProgrammerError(errors.Unwrap(err)))
}

func TestWriter_SubmitAfterClose(t *testing.T) {
	w := NewWriter(openMemory(t), nil)
	flush(t, w)
	assert.ErrorIs(t, w.Submit(Entry{Screen: "history"}), ErrWriterClosed)
}
