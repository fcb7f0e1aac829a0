package shell

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/cjungmann/ate/pkg/array"
)

// Kind is the type of value a variable holds.
type Kind int

const (
	KindString Kind = iota + 1
	KindArray
	KindFunction
	KindSpecial
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindFunction:
		return "function"
	case KindSpecial:
		return "special"
	default:
		return "unknown"
	}
}

// Function is a named routine the environment can invoke with positional
// string arguments. The int result is the routine's exit status.
type Function interface {
	Invoke(env *Environment, args []string) (int, error)
}

// FunctionFunc adapts a plain func to Function.
type FunctionFunc func(env *Environment, args []string) (int, error)

// Invoke calls f.
func (f FunctionFunc) Invoke(env *Environment, args []string) (int, error) {
	return f(env, args)
}

// Variable is one named binding.
type Variable struct {
	Name    string
	Kind    Kind
	Value   string
	Array   *array.Array
	Func    Function
	Special any
}

// Text returns the value of a string variable, or the first element of an
// array variable.
func (v *Variable) Text() string {
	switch v.Kind {
	case KindString:
		return v.Value
	case KindArray:
		if e := v.Array.First(); e != nil {
			return e.Value
		}
	}
	return ""
}

// Environment manages the named variables of one interpreter.
type Environment struct {
	vars    map[string]*Variable
	mu      sync.RWMutex
	out     io.Writer
	lastErr string
}

// New creates an empty environment writing output to out.
func New(out io.Writer) *Environment {
	if out == nil {
		out = io.Discard
	}
	return &Environment{
		vars: make(map[string]*Variable),
		out:  out,
	}
}

// Out returns the writer for command output.
func (env *Environment) Out() io.Writer { return env.out }

// Lookup retrieves a variable by name.
func (env *Environment) Lookup(name string) (*Variable, bool) {
	env.mu.RLock()
	defer env.mu.RUnlock()
	v, ok := env.vars[name]
	return v, ok
}

// BindString sets a string variable, replacing any previous binding.
func (env *Environment) BindString(name, value string) *Variable {
	return env.bind(&Variable{Name: name, Kind: KindString, Value: value})
}

// BindArray binds arr to name. A nil arr binds a new empty array.
func (env *Environment) BindArray(name string, arr *array.Array) *Variable {
	if arr == nil {
		arr = array.New()
	}
	return env.bind(&Variable{Name: name, Kind: KindArray, Array: arr})
}

// BindFunction binds fn to name.
func (env *Environment) BindFunction(name string, fn Function) *Variable {
	return env.bind(&Variable{Name: name, Kind: KindFunction, Func: fn})
}

// BindSpecial binds an opaque value to name.
func (env *Environment) BindSpecial(name string, value any) *Variable {
	return env.bind(&Variable{Name: name, Kind: KindSpecial, Special: value})
}

func (env *Environment) bind(v *Variable) *Variable {
	env.mu.Lock()
	defer env.mu.Unlock()
	if old, ok := env.vars[v.Name]; ok {
		release(old, v)
	}
	env.vars[v.Name] = v
	return v
}

// Unbind removes a variable. An array that loses its binding is disposed.
func (env *Environment) Unbind(name string) bool {
	env.mu.Lock()
	defer env.mu.Unlock()
	old, ok := env.vars[name]
	if !ok {
		return false
	}
	delete(env.vars, name)
	release(old, nil)
	return true
}

func release(old, next *Variable) {
	if old.Kind != KindArray {
		return
	}
	if next != nil && next.Kind == KindArray && next.Array == old.Array {
		return
	}
	old.Array.Dispose()
}

// Names returns the bound names in sorted order.
func (env *Environment) Names() []string {
	env.mu.RLock()
	defer env.mu.RUnlock()
	names := make([]string, 0, len(env.vars))
	for name := range env.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UniqueName returns stem followed by a number no bound name uses.
func (env *Environment) UniqueName(stem string) string {
	env.mu.RLock()
	defer env.mu.RUnlock()
	highest := 0
	for name := range env.vars {
		suffix, ok := strings.CutPrefix(name, stem)
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(suffix); err == nil && n > highest {
			highest = n
		}
	}
	return stem + strconv.Itoa(highest+1)
}

// FindArray returns the name an array is bound to.
func (env *Environment) FindArray(arr *array.Array) (string, bool) {
	env.mu.RLock()
	defer env.mu.RUnlock()
	for name, v := range env.vars {
		if v.Kind == KindArray && v.Array == arr {
			return name, true
		}
	}
	return "", false
}

// Invoke runs the function bound to name.
func (env *Environment) Invoke(name string, args []string) (int, error) {
	v, ok := env.Lookup(name)
	if !ok {
		return 0, fmt.Errorf("function '%s' not found", name)
	}
	if v.Kind != KindFunction {
		return 0, fmt.Errorf("'%s' is a %s, not a function", name, v.Kind)
	}
	return v.Func.Invoke(env, args)
}

// SetLastError records the message of the most recent failure.
func (env *Environment) SetLastError(msg string) {
	env.mu.Lock()
	defer env.mu.Unlock()
	env.lastErr = msg
}

// LastError returns the message of the most recent failure.
func (env *Environment) LastError() string {
	env.mu.RLock()
	defer env.mu.RUnlock()
	return env.lastErr
}
