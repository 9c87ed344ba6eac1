package journal

import (
	"context"
	"fmt"

	ferrors "git.home.luguber.info/inful/screenstore/internal/foundation/errors"
	"git.home.luguber.info/inful/screenstore/internal/screens"
	"git.home.luguber.info/inful/screenstore/internal/store"
)

// Replay rebuilds the state of one screen in session by reducing its journaled
// actions onto initial. It returns the state and the number of actions applied.
func Replay[S, A any](ctx context.Context, j Journal, session string, codec *screens.Codec[A], initial S, reduce store.Reducer[S, A]) (S, int, error) {
	entries, err := j.Entries(ctx, session, codec.Screen())
	if err != nil {
		return initial, 0, err
	}
	if len(entries) == 0 {
		return initial, 0, ErrSessionNotFound.WithContext("session", session).WithContext("screen", codec.Screen())
	}

	state := initial
	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			return state, i, err
		}
		action, err := codec.Decode(screens.Envelope{Kind: e.Kind, Payload: e.Payload})
		if err != nil {
			return state, i, replayError(err, e)
		}
		next, err := reduceSafely(reduce, state, action)
		if err != nil {
			return state, i, replayError(err, e)
		}
		state = next
	}
	return state, len(entries), nil
}

func reduceSafely[S, A any](reduce store.Reducer[S, A], state S, action A) (next S, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			err = fmt.Errorf("reducer panicked: %v", r)
		}
	}()
	return reduce(state, action), nil
}

func replayError(err error, e Entry) error {
	return ferrors.WrapError(err, ferrors.CategoryJournal, ErrReplayFailed.Message()).
		WithContext("session", e.Session).
		WithContext("screen", e.Screen).
		WithContext("version", e.Version).
		WithContext("kind", e.Kind).
		Build()
}
