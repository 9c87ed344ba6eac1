package metrics

import (
	ferrors "git.home.luguber.info/inful/screenstore/internal/foundation/errors"
	"git.home.luguber.info/inful/screenstore/internal/store"
)

// Instrument reports dispatches, applied transitions and panics of st to rec.
func Instrument[S, A any](rec Recorder, st *store.Store[S, A]) {
	if rec == nil {
		return
	}
	name := st.Name()
	st.OnDispatch(func(_ string, action A) {
		rec.IncDispatched(name, store.ActionName(action))
	})
	st.OnApplied(func(tr store.Transition[S, A]) {
		action := store.ActionName(tr.Action)
		rec.ObserveReduceDuration(name, action, tr.Took)
		rec.IncApplied(name, action, ResultSuccess)
		rec.SetVersion(name, tr.Version)
	})
	st.OnPanic(func(p store.PanicInfo) {
		switch p.Source {
		case store.PanicInReducer:
			rec.IncApplied(name, rejectedAction(p.Err), ResultRejected)
		case store.PanicInObserver:
			rec.IncObserverPanic(name)
		}
	})
}

// rejectedAction reads the action name the store attaches to reducer errors.
func rejectedAction(err error) string {
	if action, ok := ferrors.ContextString(err, "action"); ok {
		return action
	}
	return "unknown"
}
