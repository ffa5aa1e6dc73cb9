// Package constraints implements the persisted user-to-constraints mapping
// that spec.md §1 names as an external collaborator of the enforcement
// core: a key/value lookup keyed by identity and backend name, returning
// the enforce.ConstraintMap the core enforces a query against.
package constraints

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/latticeobs/queryauth/internal/enforce"
	"github.com/latticeobs/queryauth/internal/metrics"
	"github.com/latticeobs/queryauth/pkg/cache"
	"github.com/latticeobs/queryauth/pkg/logger"
)

// Store resolves an identity's constraint map for a given backend, and
// lets admins write new constraint maps for an identity/backend pair.
type Store interface {
	Get(ctx context.Context, identity, backend string) (enforce.ConstraintMap, error)
	Put(ctx context.Context, identity, backend string, constraints enforce.ConstraintMap) error
	Delete(ctx context.Context, identity, backend string) error
}

type store struct {
	cache  cache.ValkeyCluster
	logger logger.Logger
	ttl    time.Duration
}

// New returns a Store backed by the given cache. ttl is the expiry Put sets
// on a constraint map it writes; Get reads the cache directly and keeps no
// copy of its own, so a Put is seen by the next Get.
func New(c cache.ValkeyCluster, log logger.Logger, ttl time.Duration) Store {
	return &store{cache: c, logger: log, ttl: ttl}
}

func key(identity, backend string) string {
	return fmt.Sprintf("constraints:%s:%s", identity, backend)
}

func (s *store) Get(ctx context.Context, identity, backend string) (enforce.ConstraintMap, error) {
	start := time.Now()
	b, err := s.cache.Get(ctx, key(identity, backend))
	metrics.ConstraintStoreRequestDuration.WithLabelValues("get").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("lookup constraints for %s/%s: %w", identity, backend, err)
	}

	var cm enforce.ConstraintMap
	if err := json.Unmarshal(b, &cm); err != nil {
		s.logger.Error("corrupt constraint map in store", "identity", identity, "backend", backend, "error", err)
		return nil, fmt.Errorf("decode constraints for %s/%s: %w", identity, backend, err)
	}
	return cm, nil
}

func (s *store) Put(ctx context.Context, identity, backend string, cm enforce.ConstraintMap) error {
	start := time.Now()
	err := s.cache.Set(ctx, key(identity, backend), cm, s.ttl)
	metrics.ConstraintStoreRequestDuration.WithLabelValues("put").Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("store constraints for %s/%s: %w", identity, backend, err)
	}
	s.logger.Info("constraint map updated", "identity", identity, "backend", backend, "labels", len(cm))
	return nil
}

func (s *store) Delete(ctx context.Context, identity, backend string) error {
	start := time.Now()
	err := s.cache.Delete(ctx, key(identity, backend))
	metrics.ConstraintStoreRequestDuration.WithLabelValues("delete").Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("delete constraints for %s/%s: %w", identity, backend, err)
	}
	s.logger.Info("constraint map deleted", "identity", identity, "backend", backend)
	return nil
}
