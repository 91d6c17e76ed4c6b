// Package evaluator evaluates template instructions with expr-lang.
//
// Bound values are treated as opaque serializable payloads: each one is
// passed through a JSON round trip before it becomes visible to the
// expression, so structs are addressed by their json field names. Results
// are rendered in their JSON form unless RawStrings is set.
package evaluator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"fredwork/internal/render"
)

// Scope is an immutable set of named values.
type Scope struct {
	vars map[string]any
}

// With returns a copy of s with name bound to value. An existing binding
// with the same name is shadowed in the copy; s itself is not changed.
func (s Scope) With(name string, value any) (Scope, error) {
	normalized, err := normalize(value)
	if err != nil {
		return s, fmt.Errorf("failed to bind %q: %w", name, err)
	}
	vars := make(map[string]any, len(s.vars)+1)
	for k, v := range s.vars {
		vars[k] = v
	}
	vars[name] = normalized
	return Scope{vars: vars}, nil
}

// Lookup returns the value bound to name.
func (s Scope) Lookup(name string) (any, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// Len returns the number of bound names.
func (s Scope) Len() int {
	return len(s.vars)
}

// env returns the variables for expr; never nil.
func (s Scope) env() map[string]any {
	if s.vars == nil {
		return map[string]any{}
	}
	return s.vars
}

// prepared wraps a value normalize has already converted.
type prepared struct {
	value any
}

// normalize converts value to the plain maps, slices, strings, float64s and
// bools JSON decodes to.
func normalize(value any) (any, error) {
	if p, ok := value.(prepared); ok {
		return p.value, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// maxPrograms bounds the compiled program cache.
const maxPrograms = 4096

// Expr evaluates instructions as expr-lang expressions. Compiled programs
// are cached per instruction and binding shape. An Expr must not be copied
// after first use.
type Expr struct {
	// RawStrings renders string results without JSON quoting.
	RawStrings bool

	mu       sync.RWMutex
	programs map[string]*vm.Program
}

// New creates an expr-lang evaluator.
func New() *Expr {
	return &Expr{}
}

var (
	_ render.Evaluator = (*Expr)(nil)
	_ render.Preparer  = (*Expr)(nil)
)

// Prepare normalizes binding values once so that later Evaluate calls with
// the returned bindings skip the conversion.
func (e *Expr) Prepare(bindings []render.Binding) ([]render.Binding, error) {
	out := make([]render.Binding, len(bindings))
	for i, b := range bindings {
		v, err := normalize(b.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to bind %q: %w", b.Name, err)
		}
		out[i] = render.Binding{Name: b.Name, Value: prepared{value: v}}
	}
	return out, nil
}

// Evaluate binds each value in order, then compiles and runs instruction.
func (e *Expr) Evaluate(instruction string, bindings []render.Binding) (string, error) {
	scope := Scope{}
	for _, b := range bindings {
		next, err := scope.With(b.Name, b.Value)
		if err != nil {
			return "", err
		}
		scope = next
	}
	return e.Run(instruction, scope)
}

// Run evaluates instruction against scope.
func (e *Expr) Run(instruction string, scope Scope) (string, error) {
	if strings.TrimSpace(instruction) == "" {
		return "", fmt.Errorf("empty instruction")
	}
	env := scope.env()
	program, err := e.compile(instruction, env)
	if err != nil {
		return "", err
	}
	result, err := expr.Run(program, env)
	if err != nil {
		return "", err
	}
	return e.text(result)
}

// compile returns the cached program for instruction under env's shape,
// compiling it on a miss. Failed compilations are not cached.
func (e *Expr) compile(instruction string, env map[string]any) (*vm.Program, error) {
	key := shape(env) + "\x00" + instruction

	e.mu.RLock()
	program, ok := e.programs[key]
	e.mu.RUnlock()
	if ok {
		return program, nil
	}

	program, err := expr.Compile(instruction, expr.Env(env))
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if e.programs == nil || len(e.programs) >= maxPrograms {
		e.programs = make(map[string]*vm.Program)
	}
	e.programs[key] = program
	e.mu.Unlock()
	return program, nil
}

// shape describes the names and top-level types the checker sees in env.
func shape(env map[string]any) string {
	names := make([]string, 0, len(env))
	for name := range env {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%s:%T;", name, env[name])
	}
	return b.String()
}

func (e *Expr) text(result any) (string, error) {
	if s, ok := result.(string); ok && e.RawStrings {
		return s, nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(result); err != nil {
		// NaN and infinities have no JSON form.
		var unsupported *json.UnsupportedValueError
		if errors.As(err, &unsupported) {
			return fmt.Sprint(result), nil
		}
		return "", fmt.Errorf("failed to format result: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
