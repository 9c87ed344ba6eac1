// Package script runs YAML action scripts against a fresh store and reports
// every published state.
package script

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/screenstore/internal/foundation/errors"
	"git.home.luguber.info/inful/screenstore/internal/screens"
	"git.home.luguber.info/inful/screenstore/internal/store"
)

// Script is the decoded form of a script file.
//
//	screen: history
//	initial:
//	  items: [{id: 1, title: Go, url: https://go.dev, visited_at: 10}]
//	actions:
//	  - kind: AddItemForRemoval
//	    payload: {item: {id: 1, title: Go, url: https://go.dev, visited_at: 10}}
type Script struct {
	Screen  string `yaml:"screen"`
	Initial any    `yaml:"initial,omitempty"`
	Actions []Step `yaml:"actions"`
}

// Step is one scripted action.
type Step struct {
	Kind    string `yaml:"kind"`
	Payload any    `yaml:"payload,omitempty"`
}

// Published is one state reported while a script runs.
type Published[S any] struct {
	Version uint64 `json:"version"`
	Action  string `json:"action"`
	State   S      `json:"state"`
}

// Load reads a script file.
func Load(path string) (*Script, error) {
	// #nosec G304 -- path is supplied by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return Parse(data)
}

// Parse decodes script YAML.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryValidation, "invalid script").Build()
	}
	if s.Screen == "" {
		return nil, ferrors.ValidationError("script has no screen").Build()
	}
	return &s, nil
}

// InitialState decodes the script's initial state over fallback. A script
// without one yields fallback.
func InitialState[S any](s *Script, fallback S) (S, error) {
	if s.Initial == nil {
		return fallback, nil
	}
	raw, err := json.Marshal(s.Initial)
	if err != nil {
		return fallback, ferrors.WrapError(err, ferrors.CategoryValidation, "invalid initial state").Build()
	}
	state := fallback
	if err := json.Unmarshal(raw, &state); err != nil {
		return fallback, ferrors.WrapError(err, ferrors.CategoryValidation, "invalid initial state").
			WithContext("screen", s.Screen).
			Build()
	}
	return state, nil
}

// Envelopes converts the steps to codec envelopes.
func (s *Script) Envelopes() ([]screens.Envelope, error) {
	out := make([]screens.Envelope, 0, len(s.Actions))
	for i, step := range s.Actions {
		env := screens.Envelope{Kind: step.Kind}
		if step.Payload != nil {
			raw, err := json.Marshal(step.Payload)
			if err != nil {
				return nil, ferrors.WrapError(err, ferrors.CategoryValidation, "invalid action payload").
					WithContext("step", i).
					Build()
			}
			env.Payload = raw
		}
		out = append(out, env)
	}
	return out, nil
}

// Run dispatches every step to a new store built from initial and reduce and
// calls emit for each published state, in order. It stops at the first step
// that cannot be decoded or that the reducer rejects.
func Run[S, A any](ctx context.Context, s *Script, codec *screens.Codec[A], initial S, reduce store.Reducer[S, A], emit func(Published[S])) (S, error) {
	if s.Screen != codec.Screen() {
		return initial, ferrors.ValidationError("script targets another screen").
			WithContext("screen", s.Screen).
			WithContext("expected", codec.Screen()).
			Build()
	}
	envs, err := s.Envelopes()
	if err != nil {
		return initial, err
	}
	actions := make([]A, 0, len(envs))
	for i, env := range envs {
		a, err := codec.Decode(env)
		if err != nil {
			return initial, fmt.Errorf("step %d: %w", i, err)
		}
		actions = append(actions, a)
	}

	st := store.New(codec.Screen(), initial, reduce)
	defer func() { _ = st.Close() }()

	for i, a := range actions {
		name := store.ActionName(a)
		next, err := st.Dispatch(a).Wait(ctx)
		if err != nil {
			return st.State(), fmt.Errorf("step %d (%s): %w", i, name, err)
		}
		if emit != nil {
			emit(Published[S]{Version: st.Version(), Action: name, State: next})
		}
	}
	return st.State(), nil
}
