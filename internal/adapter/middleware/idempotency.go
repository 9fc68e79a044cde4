package middleware

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderReplayed       = "Idempotent-Replayed"

	// in-progress marker lifetime; a crashed handler frees the key after this
	provisionalLockTTL = 60 * time.Second
	storeTimeout       = 2 * time.Second
)

type idempEntry struct {
	InProgress  bool      `json:"in_progress"`
	Code        int       `json:"code"`
	ContentType string    `json:"content_type"`
	Body        []byte    `json:"body"`
	BodySHA256  string    `json:"body_sha256"`
	Key         string    `json:"key"`
	CreatedAt   time.Time `json:"created_at"`
}

func (e idempEntry) replayable() bool { return !e.InProgress && e.Code != 0 && len(e.Body) > 0 }

// captureWriter tees the handler's response so it can be stored for replay.
type captureWriter struct {
	http.ResponseWriter
	body bytes.Buffer
	code int
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

type idempotency struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// IdempotencyMiddleware replays the stored response of a mutating request
// retried with the same Idempotency-Key. The key is scoped by method, route
// and caller. Requests without the header pass through; ledger writes are
// still deduplicated by reference_number.
func IdempotencyMiddleware(rdb *redis.Client, ttl time.Duration, logger *slog.Logger) echo.MiddlewareFunc {
	if logger == nil {
		logger = slog.Default()
	}
	m := &idempotency{rdb: rdb, ttl: ttl, logger: logger}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error { return m.serve(c, next) }
	}
}

func errJSON(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"error": msg})
}

func (m *idempotency) serve(c echo.Context, next echo.HandlerFunc) error {
	req := c.Request()
	switch req.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return next(c)
	}

	idemKey := strings.TrimSpace(req.Header.Get(HeaderIdempotencyKey))
	if idemKey == "" {
		return next(c)
	}
	if !validKey(idemKey) {
		return errJSON(c, http.StatusBadRequest, "invalid Idempotency-Key format")
	}

	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
	}
	req.Body = io.NopCloser(bytes.NewReader(body))
	digest := bodyHash(body)
	key := buildKey(req.Method, c.Path(), scopeOf(c), idemKey)

	ctx, cancel := context.WithTimeout(req.Context(), storeTimeout)
	defer cancel()

	claimed, err := provisionalSet(ctx, m.rdb, key, idempEntry{InProgress: true, BodySHA256: digest, Key: idemKey, CreatedAt: nowUTC()})
	if err != nil {
		m.logger.ErrorContext(ctx, "idempotency store", "err", err)
		return errJSON(c, http.StatusServiceUnavailable, "idempotency store unavailable")
	}
	if !claimed {
		return m.replay(ctx, c, key, digest)
	}
	return m.capture(c, next, key, idemKey, digest)
}

// replay answers a request whose key is already claimed.
func (m *idempotency) replay(ctx context.Context, c echo.Context, key, digest string) error {
	cur, err := loadEntry(ctx, m.rdb, key)
	if err != nil {
		m.logger.WarnContext(ctx, "idempotency entry unreadable", "key", key, "err", err)
	}
	if cur.BodySHA256 != "" && cur.BodySHA256 != digest {
		return errJSON(c, http.StatusConflict, "Idempotency-Key reused with different body")
	}
	if !cur.replayable() {
		return errJSON(c, http.StatusConflict, "request is already in progress")
	}
	ct := cur.ContentType
	if ct == "" {
		ct = echo.MIMEApplicationJSON
	}
	c.Response().Header().Set(HeaderReplayed, "true")
	return c.Blob(cur.Code, ct, cur.Body)
}

// capture runs the handler and stores its response under key. Server errors
// release the key so the client may retry.
func (m *idempotency) capture(c echo.Context, next echo.HandlerFunc, key, idemKey, digest string) error {
	w := &captureWriter{ResponseWriter: c.Response().Writer, code: http.StatusOK}
	c.Response().Writer = w
	if err := next(c); err != nil {
		c.Error(err)
	}

	ctx := context.WithoutCancel(c.Request().Context())
	if w.code >= http.StatusInternalServerError {
		if err := release(ctx, m.rdb, key); err != nil {
			m.logger.WarnContext(ctx, "idempotency release", "key", key, "err", err)
		}
		return nil
	}
	final := idempEntry{
		Code:        w.code,
		ContentType: w.Header().Get(echo.HeaderContentType),
		Body:        w.body.Bytes(),
		BodySHA256:  digest,
		Key:         idemKey,
		CreatedAt:   nowUTC(),
	}
	if err := saveFinal(ctx, m.rdb, key, final, m.ttl); err != nil {
		m.logger.WarnContext(ctx, "idempotency save", "key", key, "err", err)
	}
	return nil
}
