package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	mw "github.com/kiranshivaraju/hiretrack/internal/api/middleware"
	"github.com/kiranshivaraju/hiretrack/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock Cache ---

type mockCache struct {
	cache.Cache
	counter int64
	err     error
}

func (m *mockCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	m.counter++
	return m.counter, m.err
}

// --- Mock Policy ---

type mockPolicy struct {
	delay time.Duration
	fail  bool
}

func (p mockPolicy) Delay() time.Duration { return p.delay }
func (p mockPolicy) Fail() bool           { return p.fail }

// --- helpers ---

func okHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}
}

func errBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// ========================================
// Rate Limit Middleware Tests
// ========================================

func TestRateLimit_AllowsUnderLimit(t *testing.T) {
	mc := &mockCache{}
	handler := mw.NewRateLimit(mc, 60).Limit(okHandler())

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "60", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "59", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
}

func TestRateLimit_RejectsOverLimit(t *testing.T) {
	mc := &mockCache{counter: 60} // next IncrWithExpiry will return 61
	rl := mw.NewRateLimit(mc, 60)
	now := time.Date(2026, 1, 1, 9, 0, 15, 0, time.UTC)
	mw.SetClock(rl, func() time.Time { return now })
	handler := rl.Limit(okHandler())

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "45", w.Header().Get("Retry-After"))
	assert.Equal(t, strconv.FormatInt(now.Add(45*time.Second).Unix(), 10), w.Header().Get("X-RateLimit-Reset"))
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", errBody(t, w)["code"])
}

func TestRateLimit_NewWindowResetsCount(t *testing.T) {
	rl := mw.NewRateLimit(cache.NewMemoryCache(), 2)
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	mw.SetClock(rl, func() time.Time { return now })
	handler := rl.Limit(okHandler())

	var codes []int
	for range 10 {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
		codes = append(codes, w.Code)
		now = now.Add(30 * time.Second)
	}

	for i, code := range codes {
		assert.Equal(t, http.StatusOK, code, "request %d", i)
	}
}

func TestRateLimit_ThrottledUntilWindowEnds(t *testing.T) {
	rl := mw.NewRateLimit(cache.NewMemoryCache(), 1)
	now := time.Date(2026, 1, 1, 9, 0, 10, 0, time.UTC)
	mw.SetClock(rl, func() time.Time { return now })
	handler := rl.Limit(okHandler())

	send := func() int {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send())
	now = now.Add(20 * time.Second)
	assert.Equal(t, http.StatusTooManyRequests, send())
	now = now.Add(29 * time.Second)
	assert.Equal(t, http.StatusTooManyRequests, send())
	now = now.Add(2 * time.Second)
	assert.Equal(t, http.StatusOK, send())
}

func TestRateLimit_FailsOpen(t *testing.T) {
	mc := &mockCache{err: errors.New("redis down")}
	handler := mw.NewRateLimit(mc, 1).Limit(okHandler())

	for range 3 {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimit_ZeroDisables(t *testing.T) {
	mc := &mockCache{}
	handler := mw.NewRateLimit(mc, 0).Limit(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	assert.Zero(t, mc.counter)
}

func TestRateLimit_PerClientIP(t *testing.T) {
	handler := mw.NewRateLimit(cache.NewMemoryCache(), 1).Limit(okHandler())

	send := func(ip string) int {
		req := httptest.NewRequest("GET", "/test", nil)
		req.RemoteAddr = ip + ":5000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2"))
}

// ========================================
// Fault Middleware Tests
// ========================================

func TestFault_PassesThrough(t *testing.T) {
	handler := mw.Fault(mockPolicy{})(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestFault_InjectedFailure(t *testing.T) {
	var called atomic.Bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called.Store(true)
	})
	handler := mw.Fault(mockPolicy{fail: true})(inner)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/test", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := errBody(t, w)
	assert.Equal(t, "SIMULATED_FAILURE", body["code"])
	assert.Equal(t, "Simulated server error", body["message"])
	assert.False(t, called.Load())
}

func TestFault_Delays(t *testing.T) {
	handler := mw.Fault(mockPolicy{delay: 30 * time.Millisecond})(okHandler())

	start := time.Now()
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestFault_CancelledDuringDelay(t *testing.T) {
	var called atomic.Bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called.Store(true)
	})
	handler := mw.Fault(mockPolicy{delay: time.Hour})(inner)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest("GET", "/test", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.False(t, called.Load())
}

func TestFault_NilPolicy(t *testing.T) {
	handler := mw.Fault(nil)(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

// ========================================
// Recovery Middleware Tests
// ========================================

func TestRecovery_CatchesPanic(t *testing.T) {
	panicking := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		panic("something went wrong")
	})

	handler := mw.Recovery(panicking)

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", errBody(t, w)["code"])
}

func TestRecovery_KeepsStartedResponse(t *testing.T) {
	panicking := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte("partial"))
		panic("late failure")
	})

	w := httptest.NewRecorder()
	mw.Recovery(panicking).ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "partial", w.Body.String())
}

func TestRecovery_ReraisesAbortHandler(t *testing.T) {
	aborting := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		panic(http.ErrAbortHandler)
	})

	handler := mw.Recovery(aborting)
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/test", nil))
	})
}

func TestRecovery_NoPanic(t *testing.T) {
	handler := mw.Recovery(okHandler())

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

// ========================================
// Logging Middleware Tests
// ========================================

func TestLogger_SetsStatus(t *testing.T) {
	handler := mw.Logger(okHandler())

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestLogger_PropagatesRequestID(t *testing.T) {
	var got string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = mw.GetRequestID(r)
	})
	handler := mw.Logger(inner)

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", got)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "192.0.2.7:4321"
	assert.Equal(t, "192.0.2.7", mw.ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", mw.ClientIP(req))
}
