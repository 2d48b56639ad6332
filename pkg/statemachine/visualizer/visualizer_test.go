package visualizer_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/statekit/pkg/statemachine"
	"github.com/dmitrymomot/statekit/pkg/statemachine/visualizer"
)

type order struct{}

const (
	draft     = statemachine.StringState("draft")
	inReview  = statemachine.StringState("in_review")
	published = statemachine.StringState("published")
	archived  = statemachine.StringState("archived")
)

func isReady(context.Context, *order, ...any) (bool, error) { return true, nil }

func pick(context.Context, *order, ...any) (statemachine.State, error) { return archived, nil }

func definition(t *testing.T, extra ...statemachine.Option[*order]) *statemachine.Definition[*order] {
	t.Helper()

	opts := []statemachine.Option[*order]{
		statemachine.WithState[*order](draft),
		statemachine.WithState[*order](inReview),
		statemachine.WithState[*order](published),
		statemachine.WithState[*order](archived),
		statemachine.WithEvent(statemachine.StringEvent("submit"),
			statemachine.WithTransition[*order](statemachine.From(draft), inReview),
		),
		statemachine.WithEvent(statemachine.StringEvent("publish"),
			statemachine.WithTransition(statemachine.From(inReview), published, statemachine.WithGuard(isReady)),
		),
		statemachine.WithEvent(statemachine.StringEvent("close"),
			statemachine.WithDynamicTransition[*order](statemachine.From(published), pick),
		),
	}
	def, err := statemachine.New("article", append(opts, extra...)...)
	require.NoError(t, err)
	return def
}

func TestMermaid(t *testing.T) {
	t.Parallel()

	out, err := visualizer.Mermaid(context.Background(), definition(t))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "stateDiagram-v2", lines[0])

	for _, want := range []string{
		"direction TB",
		"[*] --> draft",
		"draft --> in_review : submit",
		"in_review --> published : publish [guarded]",
		"note right of published : close leads to a computed state",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "```")
	assert.NotContains(t, out, "classDef")
}

func TestMermaid_Options(t *testing.T) {
	t.Parallel()

	opts := visualizer.DefaultOptions().
		WithDirection("LR").
		WithHighlight("in_review").
		WithShowGuards(false).
		WithShowLabels(true).
		WithFenced(true)

	def := definition(t, statemachine.WithInitialState[*order](inReview))
	out, err := visualizer.MermaidWithOptions(context.Background(), def, opts)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "```mermaid\nstateDiagram-v2\n"))
	assert.True(t, strings.HasSuffix(out, "```\n"))
	assert.Contains(t, out, "direction LR")
	assert.Contains(t, out, "[*] --> in_review")
	assert.Contains(t, out, "in_review : In review")
	assert.Contains(t, out, "in_review --> published : publish\n")
	assert.Contains(t, out, "class in_review current")
}

func TestMermaid_InitialStateFunc(t *testing.T) {
	t.Parallel()

	def := definition(t, statemachine.WithInitialStateFunc(func(context.Context, *order) (statemachine.State, error) {
		return published, nil
	}))
	out, err := visualizer.Mermaid(context.Background(), def)
	require.NoError(t, err)
	assert.Contains(t, out, "note left of draft : initial state computed per host")
}

func TestMermaid_UnsafeNames(t *testing.T) {
	t.Parallel()

	def, err := statemachine.New("m",
		statemachine.WithState[*order](statemachine.StringState("on-hold")),
		statemachine.WithState[*order](statemachine.StringState("done")),
		statemachine.WithEvent(statemachine.StringEvent("finish"),
			statemachine.WithTransition[*order](statemachine.From(statemachine.StringState("on-hold")), statemachine.StringState("done")),
		),
	)
	require.NoError(t, err)

	out, err := visualizer.Mermaid(context.Background(), def)
	require.NoError(t, err)
	assert.Contains(t, out, "on_hold : on-hold")
	assert.Contains(t, out, "on_hold --> done : finish")
}

func TestMermaid_CollidingNames(t *testing.T) {
	t.Parallel()

	dashed := statemachine.StringState("in-review")
	underscored := statemachine.StringState("in_review")
	def, err := statemachine.New("m",
		statemachine.WithState[*order](dashed),
		statemachine.WithState[*order](underscored),
		statemachine.WithEvent(statemachine.StringEvent("move"),
			statemachine.WithTransition[*order](statemachine.From(dashed), underscored),
		),
	)
	require.NoError(t, err)

	out, err := visualizer.MermaidWithOptions(context.Background(), def,
		visualizer.DefaultOptions().WithHighlight("in-review"))
	require.NoError(t, err)
	assert.Contains(t, out, "[*] --> in_review_2\n")
	assert.Contains(t, out, "in_review_2 : in-review\n")
	assert.Contains(t, out, "in_review_2 --> in_review : move\n")
	assert.Contains(t, out, "class in_review_2 current\n")
}

func TestMermaid_Nil(t *testing.T) {
	t.Parallel()

	_, err := visualizer.Mermaid[*order](context.Background(), nil)
	assert.ErrorIs(t, err, visualizer.ErrDefinitionNil)
}
