package observers

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/statekit/pkg/logger"
	"github.com/dmitrymomot/statekit/pkg/statemachine"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		out = append(out, rec)
	}
	return out
}

func TestLogging(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithJSONFormatter(), logger.WithLevelName("debug"))

	def := doorDefinition(t, NewLogging(log))
	ctx := context.Background()

	m := def.NewMachine(&door{}, statemachine.WithInstanceID[*door]("door-1"))
	_, err := m.Fire(ctx, openEvent)
	require.NoError(t, err)
	_, err = m.Fire(ctx, openEvent)
	require.NoError(t, err)

	var lines []map[string]any
	for _, rec := range decodeLines(t, &buf) {
		if _, ok := rec["outcome"]; ok && strings.HasPrefix(rec["msg"].(string), "event ") {
			lines = append(lines, rec)
		}
	}
	require.Len(t, lines, 2)

	assert.Equal(t, "event fired", lines[0]["msg"])
	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, "door", lines[0]["machine"])
	assert.Equal(t, "door-1", lines[0]["instance_id"])
	assert.Equal(t, "closed", lines[0]["from"])
	assert.Equal(t, "open", lines[0]["to"])

	assert.Equal(t, "event failed", lines[1]["msg"])
	assert.Equal(t, "WARN", lines[1]["level"])
	assert.Equal(t, "failed", lines[1]["outcome"])
	assert.Contains(t, lines[1]["error"], "no transition")
}
