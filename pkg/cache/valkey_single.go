package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/latticeobs/queryauth/internal/metrics"
	"github.com/latticeobs/queryauth/pkg/logger"
)

// valkeySingleImpl implements ValkeyCluster against a single-node Valkey/Redis instance.
type valkeySingleImpl struct {
	client *redis.Client
	logger logger.Logger
	ttl    time.Duration
}

func NewValkeySingle(addr string, db int, password string, defaultTTL time.Duration) (ValkeyCluster, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey single-node: %w", err)
	}

	return &valkeySingleImpl{
		client: client,
		logger: logger.New("info"),
		ttl:    defaultTTL,
	}, nil
}

func (v *valkeySingleImpl) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := v.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		metrics.ConstraintStoreRequestsTotal.WithLabelValues("get", "miss").Inc()
		return nil, fmt.Errorf("key not found: %s", key)
	}
	if err != nil {
		metrics.ConstraintStoreRequestsTotal.WithLabelValues("get", "error").Inc()
		return nil, err
	}
	metrics.ConstraintStoreRequestsTotal.WithLabelValues("get", "hit").Inc()
	return b, nil
}

func (v *valkeySingleImpl) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := encodeValue(value)
	if err != nil {
		metrics.ConstraintStoreRequestsTotal.WithLabelValues("set", "error").Inc()
		return fmt.Errorf("marshal value for key %s: %w", key, err)
	}
	if ttl <= 0 {
		ttl = v.ttl
	}
	if err := v.client.Set(ctx, key, data, ttl).Err(); err != nil {
		metrics.ConstraintStoreRequestsTotal.WithLabelValues("set", "error").Inc()
		return err
	}
	metrics.ConstraintStoreRequestsTotal.WithLabelValues("set", "success").Inc()
	return nil
}

func (v *valkeySingleImpl) Delete(ctx context.Context, key string) error {
	if err := v.client.Del(ctx, key).Err(); err != nil {
		metrics.ConstraintStoreRequestsTotal.WithLabelValues("delete", "error").Inc()
		return err
	}
	metrics.ConstraintStoreRequestsTotal.WithLabelValues("delete", "success").Inc()
	return nil
}

func (v *valkeySingleImpl) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	lockKey := fmt.Sprintf("lock:%s", key)
	set, err := v.client.SetNX(ctx, lockKey, "locked", ttl).Result()
	if err != nil {
		metrics.ConstraintStoreRequestsTotal.WithLabelValues("acquire_lock", "error").Inc()
		return false, err
	}
	if set {
		metrics.ConstraintStoreRequestsTotal.WithLabelValues("acquire_lock", "success").Inc()
	} else {
		metrics.ConstraintStoreRequestsTotal.WithLabelValues("acquire_lock", "conflict").Inc()
	}
	return set, nil
}

func (v *valkeySingleImpl) ReleaseLock(ctx context.Context, key string) error {
	lockKey := fmt.Sprintf("lock:%s", key)
	if err := v.client.Del(ctx, lockKey).Err(); err != nil {
		metrics.ConstraintStoreRequestsTotal.WithLabelValues("release_lock", "error").Inc()
		return err
	}
	metrics.ConstraintStoreRequestsTotal.WithLabelValues("release_lock", "success").Inc()
	return nil
}

// HealthCheck pings the Valkey single-node instance.
func (v *valkeySingleImpl) HealthCheck(ctx context.Context) error {
	if ctx == nil {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ctx = c
	}
	return v.client.Ping(ctx).Err()
}
