package statemachine

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Labeler produces display labels for states and events. It is never consulted
// by transition logic.
type Labeler interface {
	StateLabel(ctx context.Context, machine string, state State) string
	EventLabel(ctx context.Context, machine string, event Event) string
}

// SelectOption is a label/value pair for select inputs.
type SelectOption struct {
	Label string
	Value string
}

// Humanizer is the default Labeler. It turns identifiers like "in_review"
// into "In review".
type Humanizer struct{}

func (Humanizer) StateLabel(_ context.Context, _ string, state State) string {
	if state == nil {
		return ""
	}
	return Humanize(state.Name())
}

func (Humanizer) EventLabel(_ context.Context, _ string, event Event) string {
	if event == nil {
		return ""
	}
	return Humanize(event.Name())
}

// Humanize converts a snake, kebab or dotted identifier into sentence case.
func Humanize(name string) string {
	name = strings.TrimSpace(strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(name))
	if name == "" {
		return ""
	}
	name = strings.Join(strings.Fields(strings.ToLower(name)), " ")

	first, rest := firstRune(name)
	return cases.Upper(language.Und).String(first) + rest
}

func firstRune(s string) (string, string) {
	for i := range s {
		if i > 0 {
			return s[:i], s[i:]
		}
	}
	return s, ""
}
