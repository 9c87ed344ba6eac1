package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/screenstore/internal/config"
	"git.home.luguber.info/inful/screenstore/internal/journal"
	"git.home.luguber.info/inful/screenstore/internal/screens"
	"git.home.luguber.info/inful/screenstore/internal/screens/bookmarks"
	"git.home.luguber.info/inful/screenstore/internal/screens/collections"
	"git.home.luguber.info/inful/screenstore/internal/screens/history"
	"git.home.luguber.info/inful/screenstore/internal/store"
)

// ReplayCmd implements the 'replay' command.
type ReplayCmd struct {
	Screen  string `help:"Screen to rebuild" required:"" enum:"history,bookmarks,collections"`
	Session string `help:"Journal session id" required:""`
	Journal string `help:"Journal database; defaults to journal.path from the configuration"`
}

type replayResult[S any] struct {
	Session string `json:"session"`
	Screen  string `json:"screen"`
	Actions int    `json:"actions"`
	State   S      `json:"state"`
}

func (r *ReplayCmd) Run(g *Global, root *CLI) error {
	j, err := openJournal(r.Journal, root.Config)
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()

	ctx := context.Background()
	switch r.Screen {
	case history.Name:
		return replay(ctx, g, j, r.Session, history.Codec, history.Initial(), history.Reduce)
	case bookmarks.Name:
		return replay(ctx, g, j, r.Session, bookmarks.Codec, bookmarks.Initial(nil), bookmarks.Reduce)
	case collections.Name:
		return replay(ctx, g, j, r.Session, collections.Codec, collections.Initial(collections.StepSelectTabs, nil), collections.Reduce)
	default:
		return unknownScreen(r.Screen)
	}
}

func replay[S, A any](ctx context.Context, g *Global, j journal.Journal, session string, codec *screens.Codec[A], initial S, reduce store.Reducer[S, A]) error {
	state, n, err := journal.Replay(ctx, j, session, codec, initial, reduce)
	if err != nil {
		return err
	}
	return printJSON(g.Out, replayResult[S]{Session: session, Screen: codec.Screen(), Actions: n, State: state})
}

// SessionsCmd implements the 'sessions' command.
type SessionsCmd struct {
	Journal string `help:"Journal database; defaults to journal.path from the configuration"`
}

func (s *SessionsCmd) Run(g *Global, root *CLI) error {
	j, err := openJournal(s.Journal, root.Config)
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()

	sessions, err := j.Sessions(context.Background())
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(g.Out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "SESSION\tSCREEN\tACTIONS\tLAST SEEN")
	for _, info := range sessions {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", info.Session, info.Screen, info.Entries, info.LastSeen.Format(time.RFC3339))
	}
	return tw.Flush()
}

func openJournal(path, configPath string) (*journal.SQLiteJournal, error) {
	if path == "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		path = cfg.Journal.Path
	}
	return journal.OpenSQLite(path)
}
