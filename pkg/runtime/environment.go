// Package runtime implements the tinyscript tree-walking interpreter.
package runtime

import (
	"errors"
	"sort"

	"github.com/lemonberrylabs/tinyscript/pkg/types"
)

// noParent marks the global scope.
const noParent = -1

// ErrGlobalScope is returned when popping the global scope.
var ErrGlobalScope = errors.New("cannot pop the global scope")

// scope is one record in the environment arena.
type scope struct {
	parent int
	vars   map[string]types.Value
}

// Environment manages variable storage as an arena of scopes. Each scope holds
// the index of its parent, so lookups walk from the current scope outward to the
// global scope at index 0. New variables are always created in the current scope.
type Environment struct {
	scopes  []scope
	current int
}

// NewEnvironment creates an environment holding only the global scope.
func NewEnvironment() *Environment {
	return &Environment{
		scopes: []scope{{parent: noParent, vars: make(map[string]types.Value)}},
	}
}

// PushScope enters a new scope nested in the current one.
func (e *Environment) PushScope() {
	e.scopes = append(e.scopes, scope{parent: e.current, vars: make(map[string]types.Value)})
	e.current = len(e.scopes) - 1
}

// PopScope leaves the current scope, discarding its bindings.
func (e *Environment) PopScope() error {
	parent := e.scopes[e.current].parent
	if parent == noParent {
		return ErrGlobalScope
	}
	// Scopes are strictly nested, so the current scope is always the last record.
	e.scopes = e.scopes[:e.current]
	e.current = parent
	return nil
}

// Depth returns the number of active scopes, 1 for the global scope alone.
func (e *Environment) Depth() int {
	depth := 0
	for i := e.current; i != noParent; i = e.scopes[i].parent {
		depth++
	}
	return depth
}

// Define binds name in the current scope, replacing any existing binding there.
func (e *Environment) Define(name string, value types.Value) {
	e.scopes[e.current].vars[name] = value
}

// Get retrieves a variable value, searching up the scope chain.
func (e *Environment) Get(name string) (types.Value, bool) {
	if i := e.resolve(name); i != noParent {
		return e.scopes[i].vars[name], true
	}
	return types.Null, false
}

// Exists checks if a variable exists in this scope or any parent.
func (e *Environment) Exists(name string) bool {
	return e.resolve(name) != noParent
}

// Assign updates the nearest existing binding of name. It never creates one.
func (e *Environment) Assign(name string, value types.Value) error {
	i := e.resolve(name)
	if i == noParent {
		return types.NewUndefinedVariableError(name)
	}
	e.scopes[i].vars[name] = value
	return nil
}

// Bindings returns every visible binding; inner scopes shadow outer ones.
func (e *Environment) Bindings() map[string]types.Value {
	out := make(map[string]types.Value)
	for i := e.current; i != noParent; i = e.scopes[i].parent {
		for name, v := range e.scopes[i].vars {
			if _, shadowed := out[name]; !shadowed {
				out[name] = v
			}
		}
	}
	return out
}

// Names returns the visible binding names in sorted order.
func (e *Environment) Names() []string {
	bindings := e.Bindings()
	names := make([]string, 0, len(bindings))
	for name := range bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// resolve returns the index of the nearest scope defining name, or noParent.
func (e *Environment) resolve(name string) int {
	for i := e.current; i != noParent; i = e.scopes[i].parent {
		if _, ok := e.scopes[i].vars[name]; ok {
			return i
		}
	}
	return noParent
}
