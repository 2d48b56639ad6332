package labels_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/statekit/pkg/statemachine"
	"github.com/dmitrymomot/statekit/pkg/statemachine/labels"
)

type order struct{}

const (
	pending  = statemachine.StringState("pending")
	approved = statemachine.StringState("approved")
	inReview = statemachine.StringState("in_review")
	approve  = statemachine.StringEvent("approve")
	escalate = statemachine.StringEvent("escalate_to_manager")
)

func TestParse(t *testing.T) {
	t.Parallel()

	got, err := labels.Parse([]byte(`
en:
  order:
    states:
      pending: Waiting
    events:
      approve: Approve
`))
	require.NoError(t, err)
	assert.Equal(t, map[string]map[string]string{
		"en": {
			"order.states.pending": "Waiting",
			"order.events.approve": "Approve",
		},
	}, got)

	tests := []struct {
		name string
		data string
	}{
		{"invalid yaml", "en: [unclosed"},
		{"empty", ""},
		{"language not a map", "en: hello"},
		{"non-string label", "en:\n  order:\n    states:\n      pending: 42\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := labels.Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestCatalog(t *testing.T) {
	t.Parallel()

	cat, err := labels.LoadFS(os.DirFS("testdata"), ".")
	require.NoError(t, err)
	assert.Equal(t, []string{"de", "en"}, cat.Languages())

	ctx := context.Background()
	de := labels.WithLanguage(ctx, "de")

	assert.Equal(t, "Waiting for approval", cat.StateLabel(ctx, "order", pending))
	assert.Equal(t, "Wartet auf Freigabe", cat.StateLabel(de, "order", pending))
	assert.Equal(t, "Approved", cat.StateLabel(de, "order", approved), "falls back to default language")
	assert.Equal(t, "In review", cat.StateLabel(de, "order", inReview), "falls back to humanizer")
	assert.Equal(t, "Bestellung freigeben", cat.EventLabel(de, "order", approve))
	assert.Equal(t, "Escalate to manager", cat.EventLabel(ctx, "order", escalate))
	assert.Equal(t, "Pending", cat.StateLabel(ctx, "invoice", pending), "keys are scoped by machine")
}

func TestCatalog_DefaultLanguage(t *testing.T) {
	t.Parallel()

	cat, err := labels.LoadFile("testdata/order.de.yml", labels.WithDefaultLanguage("de"))
	require.NoError(t, err)

	assert.Equal(t, "Wartet auf Freigabe", cat.StateLabel(context.Background(), "order", pending))
	assert.Equal(t, "Wartet auf Freigabe", cat.StateLabel(labels.WithLanguage(context.Background(), "fr"), "order", pending))
}

func TestCatalog_Merge(t *testing.T) {
	t.Parallel()

	cat := labels.New()
	require.NoError(t, cat.Merge([]byte("en:\n  order:\n    states:\n      pending: First\n")))
	require.NoError(t, cat.Merge([]byte("en:\n  order:\n    states:\n      pending: Second\n")))

	v, ok := cat.Lookup("en", labels.StateKey("order", "pending"))
	assert.True(t, ok)
	assert.Equal(t, "Second", v)

	_, ok = cat.Lookup("en", labels.EventKey("order", "approve"))
	assert.False(t, ok)
}

func TestCatalog_WithDefinition(t *testing.T) {
	t.Parallel()

	cat, err := labels.LoadFile("testdata/order.en.yaml")
	require.NoError(t, err)

	def, err := statemachine.New("order",
		statemachine.WithLabeler[*order](cat),
		statemachine.WithState[*order](pending),
		statemachine.WithState[*order](approved),
		statemachine.WithState[*order](inReview),
	)
	require.NoError(t, err)

	assert.Equal(t, []statemachine.SelectOption{
		{Label: "Waiting for approval", Value: "pending"},
		{Label: "Approved", Value: "approved"},
		{Label: "In review", Value: "in_review"},
	}, def.StatesForSelect(context.Background()))
}

func TestLoadFile_Missing(t *testing.T) {
	t.Parallel()

	_, err := labels.LoadFile("testdata/missing.yaml")
	assert.Error(t, err)
}
