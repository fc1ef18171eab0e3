// Package env provides the scope chain shared by the validator and the
// interpreter.
//
// An Environment maps names to values of type V and links to the enclosing
// Environment. The validator instantiates it over static types, the
// interpreter over runtime values; both walk the chain the same way.
//
// Environments are shared, not copied: a closure keeps a pointer to the
// environment it was created in, so several closures may alias one
// environment and observe each other's assignments.
package env

import (
	"errors"
	"fmt"

	"github.com/metaphox/ember-lang/diag"
)

// ErrUndefined is returned when a name is not bound where it is looked up.
var ErrUndefined = errors.New("undefined variable")

// Environment is one scope in a chain of scopes.
type Environment[V any] struct {
	values    map[string]V
	enclosing *Environment[V]
}

// New returns an empty environment nested in enclosing, which may be nil
// for the global scope.
func New[V any](enclosing *Environment[V]) *Environment[V] {
	return &Environment[V]{values: make(map[string]V), enclosing: enclosing}
}

// Enclosing returns the parent scope, or nil for the root.
func (e *Environment[V]) Enclosing() *Environment[V] {
	return e.enclosing
}

// Define binds name in this scope. Redefining a name in the same scope
// replaces the old binding.
func (e *Environment[V]) Define(name string, v V) {
	e.values[name] = v
}

// Has reports whether name is bound in this scope, ignoring enclosing ones.
func (e *Environment[V]) Has(name string) bool {
	_, ok := e.values[name]
	return ok
}

// Get looks name up in this scope and then outward.
func (e *Environment[V]) Get(name string) (V, error) {
	for s := e; s != nil; s = s.enclosing {
		if v, ok := s.values[name]; ok {
			return v, nil
		}
	}
	var zero V
	return zero, fmt.Errorf("%w '%s'", ErrUndefined, name)
}

// Assign replaces the binding of name in the nearest scope defining it.
// Assignment never creates a binding.
func (e *Environment[V]) Assign(name string, v V) error {
	for s := e; s != nil; s = s.enclosing {
		if _, ok := s.values[name]; ok {
			s.values[name] = v
			return nil
		}
	}
	return fmt.Errorf("%w '%s'", ErrUndefined, name)
}

// GetAt reads name from the scope exactly distance hops up the chain.
func (e *Environment[V]) GetAt(distance int, name string) (V, error) {
	var zero V
	s, err := e.ancestor(distance)
	if err != nil {
		return zero, err
	}
	v, ok := s.values[name]
	if !ok {
		return zero, fmt.Errorf("%w '%s'", ErrUndefined, name)
	}
	return v, nil
}

// AssignAt replaces name in the scope exactly distance hops up the chain.
func (e *Environment[V]) AssignAt(distance int, name string, v V) error {
	s, err := e.ancestor(distance)
	if err != nil {
		return err
	}
	if _, ok := s.values[name]; !ok {
		return fmt.Errorf("%w '%s'", ErrUndefined, name)
	}
	s.values[name] = v
	return nil
}

// ancestor walks distance hops outward. Walking past the root means the
// resolver and the scope structure disagree.
func (e *Environment[V]) ancestor(distance int) (*Environment[V], error) {
	s := e
	for i := 0; i < distance; i++ {
		if s.enclosing == nil {
			return nil, diag.Internal("scope distance %d exceeds chain depth %d", distance, i)
		}
		s = s.enclosing
	}
	return s, nil
}

// Clone returns a copy of this scope's bindings sharing the same parent.
// Values themselves are not copied.
func (e *Environment[V]) Clone() *Environment[V] {
	c := New(e.enclosing)
	for k, v := range e.values {
		c.values[k] = v
	}
	return c
}

// Restore replaces this scope's bindings with those of snapshot, which is
// typically an earlier Clone.
func (e *Environment[V]) Restore(snapshot *Environment[V]) {
	e.values = make(map[string]V, len(snapshot.values))
	for k, v := range snapshot.values {
		e.values[k] = v
	}
}
