package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticeobs/queryauth/internal/config"
	"github.com/latticeobs/queryauth/pkg/logger"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := New(config.AuditConfig{}, logger.New("error"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestIndex_RecordAndSearchByIdentity(t *testing.T) {
	idx := newTestIndex(t)

	id, err := idx.Record("alice", "promql", "unauthorized", "tenant label mismatch", `up{tenant="other"}`)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = idx.Record("bob", "logql", "enhancement_failed", "parse error", `{malformed`)
	require.NoError(t, err)

	entries, err := idx.Search("identity:alice", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].Identity)
	assert.Equal(t, "unauthorized", entries[0].Outcome)
}

func TestIndex_SearchByOutcome(t *testing.T) {
	idx := newTestIndex(t)

	_, err := idx.Record("alice", "promql", "unauthorized", "tenant label mismatch", `up{tenant="other"}`)
	require.NoError(t, err)
	_, err = idx.Record("carol", "traceql", "unauthorized", "missing service label", `{}`)
	require.NoError(t, err)
	_, err = idx.Record("bob", "logql", "enhancement_failed", "parse error", `{malformed`)
	require.NoError(t, err)

	entries, err := idx.Search("outcome:unauthorized", 10)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
