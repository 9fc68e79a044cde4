package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"lendledger/internal/domain/user"
)

// --- small helpers ---

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, rdb
}

// --- bodyHash ---

func Test_bodyHash(t *testing.T) {
	data := []byte("hello world")
	got := bodyHash(data)

	sum := sha256.Sum256(data)
	want := hex.EncodeToString(sum[:])

	if got != want {
		t.Fatalf("bodyHash mismatch: got %s want %s", got, want)
	}
}

// --- nowUTC ---

func Test_nowUTC(t *testing.T) {
	u := nowUTC()
	if u.Location() != time.UTC {
		t.Fatalf("nowUTC must be UTC, got %v", u.Location())
	}
	if d := time.Since(u); d < 0 || d > 2*time.Second {
		t.Fatalf("nowUTC too far from now: %v", d)
	}
}

// --- buildKey ---

func Test_buildKey(t *testing.T) {
	k := buildKey("POST", "/transactions/deposit", "u1", "abc12345")
	if k != "idemp:post:/transactions/deposit:u1:abc12345" {
		t.Fatalf("buildKey = %q", k)
	}
	if buildKey("POST", "/a", "u1", "k") == buildKey("POST", "/a", "u2", "k") {
		t.Fatal("scope must be part of the key")
	}
}

// --- validKey ---

func Test_validKey(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"3f1c2d4e-5a6b-4c7d-8e9f-0a1b2c3d4e5f", true},
		{"order.2026:10:19_x", true},
		{"short", false},
		{"", false},
		{"white space key", false},
		{strings.Repeat("a", 128), true},
		{strings.Repeat("a", 129), false},
	}
	for _, tt := range tests {
		if got := validKey(tt.in); got != tt.want {
			t.Errorf("validKey(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// --- scopeOf ---

func Test_scopeOf(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), httptest.NewRecorder())
	if got := scopeOf(c); got != "anon" {
		t.Fatalf("scopeOf without principal = %q", got)
	}
	SetPrincipal(c, Principal{UserID: "u-42", Role: user.RoleUser})
	if got := scopeOf(c); got != "u-42" {
		t.Fatalf("scopeOf = %q, want u-42", got)
	}
}

// --- redis helpers ---

func Test_provisionalSet_OnlyOnce(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	defer mr.Close()
	ctx := context.Background()

	e := idempEntry{InProgress: true, BodySHA256: "h", Key: "k"}
	ok, err := provisionalSet(ctx, rdb, "idemp:x", e)
	if err != nil || !ok {
		t.Fatalf("first set: ok=%v err=%v", ok, err)
	}
	ok, err = provisionalSet(ctx, rdb, "idemp:x", e)
	if err != nil || ok {
		t.Fatalf("second set must not win: ok=%v err=%v", ok, err)
	}
	if ttl := mr.TTL("idemp:x"); ttl != provisionalLockTTL {
		t.Fatalf("provisional ttl = %v", ttl)
	}
}

func Test_saveFinal_loadEntry_release(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	defer mr.Close()
	ctx := context.Background()

	in := idempEntry{Code: 201, ContentType: "application/json", Body: []byte(`{"ok":true}`), BodySHA256: "h", Key: "k"}
	if err := saveFinal(ctx, rdb, "idemp:y", in, time.Minute); err != nil {
		t.Fatalf("saveFinal: %v", err)
	}
	got, err := loadEntry(ctx, rdb, "idemp:y")
	if err != nil {
		t.Fatalf("loadEntry: %v", err)
	}
	if got.Code != 201 || string(got.Body) != `{"ok":true}` || got.InProgress {
		t.Fatalf("unexpected entry %+v", got)
	}
	if mr.TTL("idemp:y") != time.Minute {
		t.Fatalf("ttl = %v", mr.TTL("idemp:y"))
	}

	if err := release(ctx, rdb, "idemp:y"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := loadEntry(ctx, rdb, "idemp:y"); !errors.Is(err, redis.Nil) {
		t.Fatalf("expected redis.Nil after release, got %v", err)
	}
}
