// Package schema builds state machine definitions from YAML documents.
//
// A document names states, events and transitions. Hooks, guards, dynamic
// destinations and error handlers are referenced by name and resolved through
// a Registry first, then as methods of the host type:
//
//	name: order
//	initial: pending
//	states:
//	  - name: pending
//	  - name: approved
//	    hooks:
//	      enter: [NotifyCustomer]
//	events:
//	  - name: approve
//	    transitions:
//	      - from: [pending]
//	        to: approved
//	        guards: [IsReady]
package schema

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/statekit/pkg/statemachine"
)

var (
	ErrFailedToParse = errors.New("failed to parse state machine document")
	ErrInvalid       = errors.New("invalid state machine document")
)

// Document is the YAML form of a state machine definition.
type Document struct {
	Name        string     `yaml:"name"`
	Initial     string     `yaml:"initial,omitempty"`
	InitialFunc string     `yaml:"initial_func,omitempty"`
	States      []State    `yaml:"states"`
	Events      []Event    `yaml:"events"`
	Labels      LabelTable `yaml:"labels,omitempty"`
}

// State declares a state and its lifecycle hooks keyed by hook kind
// (before_enter, enter, after_enter, before_exit, exit, after_exit).
type State struct {
	Name          string              `yaml:"name"`
	SameStateSkip bool                `yaml:"same_state_skip,omitempty"`
	Hooks         map[string][]string `yaml:"hooks,omitempty"`
}

// Event declares an event, its ordered transitions and callbacks.
type Event struct {
	Name        string       `yaml:"name"`
	Before      []string     `yaml:"before,omitempty"`
	After       []string     `yaml:"after,omitempty"`
	Success     string       `yaml:"success,omitempty"`
	Error       string       `yaml:"error,omitempty"`
	Transitions []Transition `yaml:"transitions"`
}

// Transition is a single row of an event's transition table. Exactly one of
// To and ToFunc is set.
type Transition struct {
	From   []string `yaml:"from"`
	To     string   `yaml:"to,omitempty"`
	ToFunc string   `yaml:"to_func,omitempty"`
	Guards []string `yaml:"guards,omitempty"`
}

// LabelTable holds inline display labels in the default language.
type LabelTable struct {
	States map[string]string `yaml:"states,omitempty"`
	Events map[string]string `yaml:"events,omitempty"`
}

// Parse decodes a YAML document. Unknown fields are rejected.
func Parse(data []byte) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Join(ErrFailedToParse, err)
	}
	return &doc, nil
}

// ParseFile reads and decodes a YAML document.
func ParseFile(filename string) (*Document, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	return Parse(data)
}

// Validate reports every structural problem of the document at once. A valid
// document still needs its callback names resolved by Build.
func (d *Document) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if d.Name == "" {
		fail("missing name")
	}
	if len(d.States) == 0 {
		fail("no states declared")
	}
	if d.Initial != "" && d.InitialFunc != "" {
		fail("initial and initial_func are mutually exclusive")
	}

	states := make(map[string]bool, len(d.States))
	for i, s := range d.States {
		switch {
		case s.Name == "":
			fail("states[%d]: missing name", i)
		case states[s.Name]:
			fail("states[%d]: duplicate state %q", i, s.Name)
		}
		states[s.Name] = true

		for kind := range s.Hooks {
			if !slices.Contains(statemachine.HookKinds, statemachine.HookKind(kind)) {
				fail("state %q: unknown hook kind %q", s.Name, kind)
			}
		}
	}

	if d.Initial != "" && !states[d.Initial] {
		fail("initial state %q is not declared", d.Initial)
	}

	events := make(map[string]bool, len(d.Events))
	for i, e := range d.Events {
		switch {
		case e.Name == "":
			fail("events[%d]: missing name", i)
		case events[e.Name]:
			fail("events[%d]: duplicate event %q", i, e.Name)
		}
		events[e.Name] = true

		for j, t := range e.Transitions {
			if len(t.From) == 0 {
				fail("event %q transitions[%d]: empty from", e.Name, j)
			}
			for _, f := range t.From {
				if !states[f] {
					fail("event %q transitions[%d]: from state %q is not declared", e.Name, j, f)
				}
			}
			switch {
			case t.To == "" && t.ToFunc == "":
				fail("event %q transitions[%d]: one of to or to_func is required", e.Name, j)
			case t.To != "" && t.ToFunc != "":
				fail("event %q transitions[%d]: to and to_func are mutually exclusive", e.Name, j)
			case t.To != "" && !states[t.To]:
				fail("event %q transitions[%d]: to state %q is not declared", e.Name, j, t.To)
			}
		}
	}

	for name := range d.Labels.States {
		if !states[name] {
			fail("label for undeclared state %q", name)
		}
	}
	for name := range d.Labels.Events {
		if !events[name] {
			fail("label for undeclared event %q", name)
		}
	}

	return errors.Join(errs...)
}
