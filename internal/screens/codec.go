// Package screens holds what every screen package shares: the action codec
// used by the journal, the relay and scripted runs.
package screens

import (
	"encoding/json"
	"reflect"
	"slices"

	ferrors "git.home.luguber.info/inful/screenstore/internal/foundation/errors"
	"git.home.luguber.info/inful/screenstore/internal/store"
)

// ErrUnknownAction is returned when an envelope names an unregistered action kind.
var ErrUnknownAction = ferrors.ValidationError("unknown action kind").Build()

// Envelope is the serialized form of one action.
type Envelope struct {
	Kind    string          `json:"kind" yaml:"kind"`
	Payload json.RawMessage `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// Codec converts the closed action set of one screen to and from envelopes.
// Action kinds are the unqualified Go type names of the variants.
type Codec[A any] struct {
	screen string
	types  map[string]reflect.Type
}

// NewCodec registers every action variant of a screen. Variants must be
// value types.
func NewCodec[A any](screen string, variants ...A) *Codec[A] {
	c := &Codec[A]{screen: screen, types: make(map[string]reflect.Type, len(variants))}
	for _, v := range variants {
		t := reflect.TypeOf(v)
		if t.Kind() == reflect.Pointer {
			panic(ferrors.ProgrammerError("action variants must be value types").
				WithContext("screen", screen).
				WithContext("type", t.String()).
				Build())
		}
		c.types[store.ActionName(v)] = t
	}
	return c
}

// Screen returns the screen the codec belongs to.
func (c *Codec[A]) Screen() string { return c.screen }

// Kinds returns the registered action kinds in sorted order.
func (c *Codec[A]) Kinds() []string {
	out := make([]string, 0, len(c.types))
	for k := range c.types {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Encode serializes action. Variants without fields get an empty payload.
func (c *Codec[A]) Encode(action A) (Envelope, error) {
	kind := store.ActionName(action)
	if _, ok := c.types[kind]; !ok {
		return Envelope{}, ErrUnknownAction.WithContext("screen", c.screen).WithContext("kind", kind)
	}
	payload, err := json.Marshal(action)
	if err != nil {
		return Envelope{}, ferrors.WrapError(err, ferrors.CategoryValidation, "encode action").
			WithContext("screen", c.screen).
			WithContext("kind", kind).
			Build()
	}
	if string(payload) == "{}" {
		payload = nil
	}
	return Envelope{Kind: kind, Payload: payload}, nil
}

// Decode rebuilds the action an envelope describes.
func (c *Codec[A]) Decode(env Envelope) (A, error) {
	var zero A
	t, ok := c.types[env.Kind]
	if !ok {
		return zero, ErrUnknownAction.WithContext("screen", c.screen).WithContext("kind", env.Kind)
	}
	ptr := reflect.New(t)
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, ptr.Interface()); err != nil {
			return zero, ferrors.WrapError(err, ferrors.CategoryValidation, "decode action payload").
				WithContext("screen", c.screen).
				WithContext("kind", env.Kind).
				Build()
		}
	}
	action, ok := ptr.Elem().Interface().(A)
	if !ok {
		return zero, ferrors.InternalError("registered type does not implement the action set").
			WithContext("screen", c.screen).
			WithContext("kind", env.Kind).
			Build()
	}
	return action, nil
}
