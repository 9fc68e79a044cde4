package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestOpenRedis_Success(t *testing.T) {
	s := miniredis.RunT(t)

	// Use a non-zero DB to verify it's set
	c, err := OpenRedis(s.Addr(), 2)
	if err != nil {
		t.Fatalf("OpenRedis returned error: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if got := c.Options().DB; got != 2 {
		t.Fatalf("client DB = %d, want 2", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := Check(c)(ctx); err != nil {
		t.Fatalf("check: %v", err)
	}

	s.Close()
	if err := Check(c)(ctx); err == nil {
		t.Fatal("check should fail once redis is gone")
	}
}

func TestOpenRedis_Disabled(t *testing.T) {
	c, err := OpenRedis("", 0)
	if err != nil || c != nil {
		t.Fatalf("empty addr: client=%v err=%v", c, err)
	}
}

func TestOpenRedis_Failure(t *testing.T) {
	if _, err := OpenRedis("not-a-real-host:6379", 0); err == nil {
		t.Fatal("expected error, got nil")
	}
}
