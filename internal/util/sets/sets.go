package sets

import (
	"encoding/json"
	"slices"
)

// Set is a simple generic hash set for comparable keys.
// Values are never mutated in place by the reducers that hold them; use the
// returning helpers (With, Without, Union, Difference) to derive a new set.
type Set[T comparable] map[T]struct{}

// New creates a set pre-populated with the provided values.
func New[T comparable](vals ...T) Set[T] {
	s := make(Set[T], len(vals))
	for _, v := range vals {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts value into the set.
func (s Set[T]) Add(v T) { s[v] = struct{}{} }

// Has returns true if v is present.
func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

// Delete removes v if present.
func (s Set[T]) Delete(v T) { delete(s, v) }

// Len returns the number of elements. A nil set has length zero.
func (s Set[T]) Len() int { return len(s) }

// Clone returns a shallow copy. Cloning a nil set yields an empty, non-nil set.
func (s Set[T]) Clone() Set[T] {
	out := make(Set[T], len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// With returns a copy of s that also contains vals.
func (s Set[T]) With(vals ...T) Set[T] {
	out := s.Clone()
	for _, v := range vals {
		out[v] = struct{}{}
	}
	return out
}

// Without returns a copy of s with vals removed.
func (s Set[T]) Without(vals ...T) Set[T] {
	out := s.Clone()
	for _, v := range vals {
		delete(out, v)
	}
	return out
}

// Union returns a new set holding the elements of both sets.
func (s Set[T]) Union(other Set[T]) Set[T] {
	out := make(Set[T], len(s)+len(other))
	for k := range s {
		out[k] = struct{}{}
	}
	for k := range other {
		out[k] = struct{}{}
	}
	return out
}

// Difference returns the elements of s not present in other.
func (s Set[T]) Difference(other Set[T]) Set[T] {
	out := make(Set[T], len(s))
	for k := range s {
		if !other.Has(k) {
			out[k] = struct{}{}
		}
	}
	return out
}

// Filter returns the elements of s for which keep reports true.
func (s Set[T]) Filter(keep func(T) bool) Set[T] {
	out := make(Set[T], len(s))
	for k := range s {
		if keep(k) {
			out[k] = struct{}{}
		}
	}
	return out
}

// Equal reports whether both sets hold exactly the same elements.
func (s Set[T]) Equal(other Set[T]) bool {
	if len(s) != len(other) {
		return false
	}
	for k := range s {
		if !other.Has(k) {
			return false
		}
	}
	return true
}

// Values returns the elements in unspecified order.
func (s Set[T]) Values() []T {
	out := make([]T, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	return out
}

// SortedFunc returns the elements ordered by cmp.
func (s Set[T]) SortedFunc(cmp func(a, b T) int) []T {
	out := s.Values()
	slices.SortFunc(out, cmp)
	return out
}

// MarshalJSON encodes the set as a JSON array.
func (s Set[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Values())
}

// UnmarshalJSON decodes a JSON array into the set.
func (s *Set[T]) UnmarshalJSON(data []byte) error {
	var vals []T
	if err := json.Unmarshal(data, &vals); err != nil {
		return err
	}
	*s = New(vals...)
	return nil
}
