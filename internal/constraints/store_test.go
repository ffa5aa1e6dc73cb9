package constraints

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticeobs/queryauth/internal/enforce"
	"github.com/latticeobs/queryauth/pkg/cache"
	"github.com/latticeobs/queryauth/pkg/logger"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	c := cache.NewNoopValkeyCache(logger.New("error"))
	return New(c, logger.New("error"), time.Minute)
}

func TestStore_PutGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cm := enforce.ConstraintMap{"namespace": {"prod", "staging"}}
	require.NoError(t, s.Put(ctx, "alice", "promql", cm))

	got, err := s.Get(ctx, "alice", "promql")
	require.NoError(t, err)
	assert.Equal(t, cm, got)
}

func TestStore_GetMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "nobody", "logql")
	assert.Error(t, err)
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cm := enforce.ConstraintMap{"tenant": {"acme"}}
	require.NoError(t, s.Put(ctx, "bob", "traceql", cm))
	require.NoError(t, s.Delete(ctx, "bob", "traceql"))

	_, err := s.Get(ctx, "bob", "traceql")
	assert.Error(t, err)
}

func TestStore_IsolatesIdentityAndBackend(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "carol", "promql", enforce.ConstraintMap{"a": {"1"}}))
	require.NoError(t, s.Put(ctx, "carol", "logql", enforce.ConstraintMap{"a": {"2"}}))

	got, err := s.Get(ctx, "carol", "promql")
	require.NoError(t, err)
	assert.Equal(t, enforce.ConstraintMap{"a": {"1"}}, got)

	got, err = s.Get(ctx, "carol", "logql")
	require.NoError(t, err)
	assert.Equal(t, enforce.ConstraintMap{"a": {"2"}}, got)
}
