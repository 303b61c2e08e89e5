// Package sequence is an in-memory compiler.Queryable over a slice.
//
// Operations are recorded, not run: nothing is filtered or sorted until All
// or Count is called, and the source slice is never modified.
package sequence

import (
	"fmt"
	"slices"

	"github.com/roach88/fspquery/internal/compiler"
)

// Seq is a lazily transformed slice. A Seq is immutable; every operation
// returns a new one, so one Seq can be shared between goroutines.
type Seq[T any] struct {
	source []T
	steps  []func([]T) []T
}

// Of returns a sequence over items. The slice is not copied; it must not be
// modified while the sequence is in use.
func Of[T any](items []T) *Seq[T] {
	return &Seq[T]{source: items}
}

func (s *Seq[T]) then(step func([]T) []T) *Seq[T] {
	return &Seq[T]{
		source: s.source,
		steps:  append(slices.Clip(s.steps), step),
	}
}

// Where keeps the records p matches.
func (s *Seq[T]) Where(p compiler.Predicate[T]) compiler.Queryable[T] {
	return s.then(func(items []T) []T {
		return slices.DeleteFunc(items, func(v T) bool { return !p.Match(v) })
	})
}

// OrderBy sorts stably, so equal keys keep their current order.
func (s *Seq[T]) OrderBy(o compiler.Ordering[T]) compiler.Queryable[T] {
	return s.then(func(items []T) []T {
		slices.SortStableFunc(items, o.Compare)
		return items
	})
}

// Skip drops the first n records. A negative n skips nothing.
func (s *Seq[T]) Skip(n int) compiler.Queryable[T] {
	return s.then(func(items []T) []T {
		switch {
		case n <= 0:
			return items
		case n >= len(items):
			return items[:0]
		}
		return items[n:]
	})
}

// Take keeps the first n records. A non-positive n keeps none.
func (s *Seq[T]) Take(n int) compiler.Queryable[T] {
	return s.then(func(items []T) []T {
		switch {
		case n <= 0:
			return items[:0]
		case n >= len(items):
			return items
		}
		return items[:n]
	})
}

// All runs the recorded operations on a copy of the source.
func (s *Seq[T]) All() []T {
	items := slices.Clone(s.source)
	for _, step := range s.steps {
		items = step(items)
	}
	if items == nil {
		return []T{}
	}
	return items
}

// Count returns len(All()).
func (s *Seq[T]) Count() int {
	return len(s.All())
}

// Collect returns the records of a Queryable built from Of.
func Collect[T any](q compiler.Queryable[T]) ([]T, error) {
	s, ok := q.(*Seq[T])
	if !ok {
		return nil, fmt.Errorf("sequence: cannot collect %T", q)
	}
	return s.All(), nil
}
