// Package visualizer renders state machine definitions as Mermaid
// stateDiagram-v2 diagrams.
package visualizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrymomot/statekit/pkg/statemachine"
)

var ErrDefinitionNil = errors.New("definition cannot be nil")

// Mermaid renders def with DefaultOptions.
func Mermaid[T any](ctx context.Context, def *statemachine.Definition[T]) (string, error) {
	return MermaidWithOptions(ctx, def, DefaultOptions())
}

// MermaidWithOptions renders def. The initial state is taken from the static
// initial-state rule; a per-host initial state function is drawn as a note.
func MermaidWithOptions[T any](ctx context.Context, def *statemachine.Definition[T], opts Options) (string, error) {
	if def == nil {
		return "", ErrDefinitionNil
	}

	var sb strings.Builder
	if opts.Fenced {
		sb.WriteString("```mermaid\n")
	}
	sb.WriteString("stateDiagram-v2\n")
	if opts.Direction != "" {
		fmt.Fprintf(&sb, "    direction %s\n", opts.Direction)
	}

	states := def.StateDefs()
	names := make([]string, len(states))
	for i, st := range states {
		names[i] = st.Name()
	}
	id := newIDs(names).of
	if initial, ok := def.StaticInitialState(); ok {
		fmt.Fprintf(&sb, "    [*] --> %s\n", id(initial.Name()))
	} else {
		fmt.Fprintf(&sb, "    [*] --> %s\n", id(states[0].Name()))
		fmt.Fprintf(&sb, "    note left of %s : initial state computed per host\n", id(states[0].Name()))
	}

	for _, s := range states {
		if opts.ShowLabels {
			fmt.Fprintf(&sb, "    %s : %s\n", id(s.Name()), def.HumanStateName(ctx, s.State()))
		} else if id(s.Name()) != s.Name() {
			fmt.Fprintf(&sb, "    %s : %s\n", id(s.Name()), s.Name())
		}
	}

	for _, e := range def.EventDefs() {
		for _, t := range e.Transitions() {
			text := e.Name()
			if opts.ShowGuards && t.Guarded() {
				text += " [guarded]"
			}
			for _, from := range t.From() {
				if t.Dynamic() {
					fmt.Fprintf(&sb, "    note right of %s : %s leads to a computed state\n", id(from.Name()), text)
					continue
				}
				fmt.Fprintf(&sb, "    %s --> %s : %s\n", id(from.Name()), id(t.To().Name()), text)
			}
		}
	}

	if opts.Highlight != "" {
		sb.WriteString("\n    classDef current fill:#fff9c4,stroke:#f57f17,stroke-width:3px\n")
		fmt.Fprintf(&sb, "    class %s current\n", id(opts.Highlight))
	}

	if opts.Fenced {
		sb.WriteString("```\n")
	}
	return sb.String(), nil
}

// ids maps state names to unique Mermaid identifiers. Names that are already
// safe keep themselves; sanitized names that collide get a numeric suffix.
type ids map[string]string

func newIDs(names []string) ids {
	m := make(ids, len(names))
	used := make(map[string]bool, len(names))
	for _, n := range names {
		if sanitize(n) == n {
			m[n] = n
			used[n] = true
		}
	}
	for _, n := range names {
		if _, ok := m[n]; ok {
			continue
		}
		base := sanitize(n)
		candidate := base
		for i := 2; used[candidate]; i++ {
			candidate = fmt.Sprintf("%s_%d", base, i)
		}
		m[n] = candidate
		used[candidate] = true
	}
	return m
}

func (m ids) of(name string) string {
	if v, ok := m[name]; ok {
		return v
	}
	return sanitize(name)
}

// sanitize makes a state name safe for use as a Mermaid identifier.
func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, name)
}
