// Package syncdriver runs the sync collaborators of the screens: it brackets
// each fetch with StartSync and FinishSync and dispatches the result in between.
package syncdriver

import (
	"context"
	"time"

	ferrors "git.home.luguber.info/inful/screenstore/internal/foundation/errors"
	"git.home.luguber.info/inful/screenstore/internal/screens/bookmarks"
	"git.home.luguber.info/inful/screenstore/internal/screens/history"
	"git.home.luguber.info/inful/screenstore/internal/store"
)

const finishTimeout = 5 * time.Second

// Target is one screen that can be synced.
type Target interface {
	Name() string
	Run(ctx context.Context) error
}

// Fetcher loads fresh data for a screen.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Plan maps the sync lifecycle onto a screen's actions.
type Plan[A, T any] struct {
	Start  A
	Apply  func(T) A
	Finish A
}

type target[S, A, T any] struct {
	name  string
	store *store.Store[S, A]
	fetch Fetcher[T]
	plan  Plan[A, T]
}

// NewTarget builds a Target that syncs st with data from fetch.
func NewTarget[S, A, T any](name string, st *store.Store[S, A], fetch Fetcher[T], plan Plan[A, T]) Target {
	return &target[S, A, T]{name: name, store: st, fetch: fetch, plan: plan}
}

func (t *target[S, A, T]) Name() string { return t.name }

// Run performs one sync. FinishSync is always dispatched, also when the fetch
// fails, so the screen never stays in its syncing mode.
func (t *target[S, A, T]) Run(ctx context.Context) error {
	t.store.Dispatch(t.plan.Start)

	data, fetchErr := t.fetch(ctx)
	if fetchErr == nil {
		t.store.Dispatch(t.plan.Apply(data))
	}

	finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
	defer cancel()
	_, finishErr := t.store.Dispatch(t.plan.Finish).Wait(finishCtx)

	if fetchErr != nil {
		return ferrors.WrapError(fetchErr, ferrors.CategorySync, "sync fetch failed").
			WithContext("screen", t.name).
			Build()
	}
	return finishErr
}

// HistoryTarget syncs a History store.
func HistoryTarget(st *history.Store, fetch Fetcher[[]history.Item]) Target {
	return NewTarget(history.Name, st, fetch, Plan[history.Action, []history.Item]{
		Start:  history.StartSync{},
		Apply:  func(items []history.Item) history.Action { return history.ReplaceItems{Items: items} },
		Finish: history.FinishSync{},
	})
}

// BookmarksTarget syncs a Bookmarks store.
func BookmarksTarget(st *bookmarks.Store, fetch Fetcher[bookmarks.Node]) Target {
	return NewTarget(bookmarks.Name, st, fetch, Plan[bookmarks.Action, bookmarks.Node]{
		Start:  bookmarks.StartSync{},
		Apply:  func(tree bookmarks.Node) bookmarks.Action { return bookmarks.Change{Tree: tree} },
		Finish: bookmarks.FinishSync{},
	})
}
