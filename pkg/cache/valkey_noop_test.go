package cache

import (
	"context"
	"testing"
	"time"

	"github.com/latticeobs/queryauth/pkg/logger"
)

func TestNoopValkey_BasicOps(t *testing.T) {
	log := logger.New("error")
	cch := NewNoopValkeyCache(log)
	ctx := context.Background()

	if err := cch.Set(ctx, "k1", "v1", time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	b, err := cch.Get(ctx, "k1")
	if err != nil || string(b) != "v1" {
		t.Fatalf("get: %v %q", err, string(b))
	}
	if err := cch.Delete(ctx, "k1"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if _, err := cch.Get(ctx, "k1"); err == nil {
		t.Fatalf("expected error after delete")
	}

	acquired, err := cch.AcquireLock(ctx, "lock1", time.Second)
	if err != nil || !acquired {
		t.Fatalf("acquire lock: %v %v", acquired, err)
	}
	if acquired, err := cch.AcquireLock(ctx, "lock1", time.Second); err != nil || acquired {
		t.Fatalf("expected lock conflict, got acquired=%v err=%v", acquired, err)
	}
	if err := cch.ReleaseLock(ctx, "lock1"); err != nil {
		t.Fatalf("release lock: %v", err)
	}
	if acquired, err := cch.AcquireLock(ctx, "lock1", time.Second); err != nil || !acquired {
		t.Fatalf("expected lock to be free after release: %v %v", acquired, err)
	}

	if nc, ok := cch.(*noopValkeyCache); ok {
		if err := nc.HealthCheck(ctx); err == nil {
			t.Fatalf("expected health error for noop cache")
		}
	}
}
