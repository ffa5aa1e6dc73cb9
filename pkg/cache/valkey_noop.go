package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/latticeobs/queryauth/pkg/logger"
)

// noopValkeyCache provides an in-memory, process-local fallback that satisfies
// ValkeyCluster when the external cache is unavailable. It is best-effort and
// intended for development and degraded operation; data is not shared across
// replicas and is lost on restart.
type noopValkeyCache struct {
	m      map[string][]byte
	locks  map[string]struct{}
	mu     sync.RWMutex
	logger logger.Logger
}

func NewNoopValkeyCache(log logger.Logger) ValkeyCluster {
	log.Warn("Valkey cache unavailable; using in-memory fallback (noop)")
	return &noopValkeyCache{m: make(map[string][]byte), locks: make(map[string]struct{}), logger: log}
}

func (n *noopValkeyCache) Get(ctx context.Context, key string) ([]byte, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	b, ok := n.m[key]
	if !ok {
		return nil, fmt.Errorf("key not found: %s", key)
	}
	return b, nil
}

func (n *noopValkeyCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	b, err := encodeValue(value)
	if err != nil {
		return err
	}
	n.mu.Lock()
	n.m[key] = b
	n.mu.Unlock()
	return nil
}

func (n *noopValkeyCache) Delete(ctx context.Context, key string) error {
	n.mu.Lock()
	delete(n.m, key)
	n.mu.Unlock()
	return nil
}

func (n *noopValkeyCache) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, held := n.locks[key]; held {
		return false, nil
	}
	n.locks[key] = struct{}{}
	return true, nil
}

func (n *noopValkeyCache) ReleaseLock(ctx context.Context, key string) error {
	n.mu.Lock()
	delete(n.locks, key)
	n.mu.Unlock()
	return nil
}

// HealthCheck returns an error to indicate no external Valkey connectivity.
func (n *noopValkeyCache) HealthCheck(ctx context.Context) error {
	return fmt.Errorf("valkey noop cache in use (external cache not connected)")
}
