package commands

import (
	"context"

	ferrors "git.home.luguber.info/inful/screenstore/internal/foundation/errors"
	"git.home.luguber.info/inful/screenstore/internal/screens"
	"git.home.luguber.info/inful/screenstore/internal/screens/bookmarks"
	"git.home.luguber.info/inful/screenstore/internal/screens/collections"
	"git.home.luguber.info/inful/screenstore/internal/screens/history"
	"git.home.luguber.info/inful/screenstore/internal/script"
	"git.home.luguber.info/inful/screenstore/internal/store"
)

// ApplyCmd implements the 'apply' command.
type ApplyCmd struct {
	Script string `short:"s" help:"YAML action script" required:"" type:"existingfile"`
	Screen string `help:"Expected screen; defaults to the script's screen"`
}

func (a *ApplyCmd) Run(g *Global) error {
	s, err := script.Load(a.Script)
	if err != nil {
		return err
	}
	if a.Screen != "" && a.Screen != s.Screen {
		return ferrors.ValidationError("script targets another screen").
			WithContext("screen", s.Screen).
			WithContext("expected", a.Screen).
			Build()
	}

	ctx := context.Background()
	switch s.Screen {
	case history.Name:
		return applyScript(ctx, g, s, history.Codec, history.Initial(), history.Reduce)
	case bookmarks.Name:
		return applyScript(ctx, g, s, bookmarks.Codec, bookmarks.Initial(nil), bookmarks.Reduce)
	case collections.Name:
		return applyScript(ctx, g, s, collections.Codec, collections.Initial(collections.StepSelectTabs, nil), collections.Reduce)
	default:
		return unknownScreen(s.Screen)
	}
}

func applyScript[S, A any](ctx context.Context, g *Global, s *script.Script, codec *screens.Codec[A], fallback S, reduce store.Reducer[S, A]) error {
	initial, err := script.InitialState(s, fallback)
	if err != nil {
		return err
	}
	var writeErr error
	_, err = script.Run(ctx, s, codec, initial, reduce, func(p script.Published[S]) {
		if writeErr == nil {
			writeErr = printJSON(g.Out, p)
		}
	})
	if err != nil {
		return err
	}
	return writeErr
}

func unknownScreen(name string) error {
	return ferrors.ValidationError("unknown screen").
		WithContext("screen", name).
		WithContext("known", history.Name+","+bookmarks.Name+","+collections.Name).
		Build()
}
