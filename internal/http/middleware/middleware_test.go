package middleware

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freeplay/yourleague-service/internal/config"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusAccepted)
}

func newRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	require.NoError(t, client.Ping(context.Background()).Err())
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestRateLimit_BlocksAfterCapacity(t *testing.T) {
	client, _ := newRedis(t)
	rlc := NewRateLimitConfig(client, config.RateLimit{NotifyPerMinute: 2, PushPerMinute: 5}, nil)
	h := rlc.RateLimitedHandler(ActionNotify, okHandler)

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/notify", nil)
		req.RemoteAddr = ip + ":51000"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	for i := 0; i < 2; i++ {
		rr := send("203.0.113.1")
		require.Equal(t, http.StatusAccepted, rr.Code)
		assert.Equal(t, "2", rr.Header().Get("X-RateLimit-Limit"))
	}

	rr := send("203.0.113.1")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))
	assert.Contains(t, rr.Body.String(), "rate limit exceeded")

	assert.Equal(t, http.StatusAccepted, send("203.0.113.2").Code)
}

func TestRateLimit_FailsOpen(t *testing.T) {
	client, mr := newRedis(t)
	rlc := NewRateLimitConfig(client, config.RateLimit{PushPerMinute: 1}, nil)
	mr.Close()

	rr := httptest.NewRecorder()
	rlc.RateLimitedHandler(ActionPush, okHandler).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/push", nil))
	assert.Equal(t, http.StatusAccepted, rr.Code)
}

func TestRateLimit_DisabledWithoutRedis(t *testing.T) {
	rlc := NewRateLimitConfig(nil, config.RateLimit{NotifyPerMinute: 1}, nil)
	h := rlc.RateLimitedHandler(ActionNotify, okHandler)

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/notify", nil))
		assert.Equal(t, http.StatusAccepted, rr.Code)
	}
}

func TestRateLimit_SpoofedForwardedForSharesBucket(t *testing.T) {
	client, _ := newRedis(t)
	rlc := NewRateLimitConfig(client, config.RateLimit{NotifyPerMinute: 1}, nil)
	h := rlc.RateLimitedHandler(ActionNotify, okHandler)

	codes := make([]int, 0, 3)
	for _, spoofed := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"} {
		req := httptest.NewRequest(http.MethodPost, "/notify", nil)
		req.RemoteAddr = "203.0.113.9:40000"
		req.Header.Set("X-Forwarded-For", spoofed)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusAccepted, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}

func TestIPResolver(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:4000"
	req.Header.Set("X-Forwarded-For", "198.51.100.7")

	// no trusted proxies: the header is ignored
	var none *IPResolver
	assert.Equal(t, "192.0.2.10", none.ClientIP(req))
	untrusted, err := NewIPResolver(nil)
	require.NoError(t, err)
	assert.Equal(t, "192.0.2.10", untrusted.ClientIP(req))

	res, err := NewIPResolver([]string{"192.0.2.0/24", "10.0.0.1"})
	require.NoError(t, err)

	// the right-most untrusted hop wins; a client-supplied left hop is ignored
	req.Header.Set("X-Forwarded-For", "6.6.6.6, 198.51.100.7, 10.0.0.1")
	assert.Equal(t, "198.51.100.7", res.ClientIP(req))

	// peer outside the trusted set: header ignored
	req.RemoteAddr = "203.0.113.5:4000"
	assert.Equal(t, "203.0.113.5", res.ClientIP(req))

	_, err = NewIPResolver([]string{"not-an-ip"})
	assert.Error(t, err)
}

func TestCORS(t *testing.T) {
	h := CORS(NewOriginPolicy([]string{"https://app.league.test"}))(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodGet, "/videos", nil)
	req.Header.Set("Origin", "https://app.league.test")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.Equal(t, "https://app.league.test", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/videos", nil)
	req.Header.Set("Origin", "https://evil.test")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/notify", nil)
	req.Header.Set("Origin", "https://app.league.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), http.MethodDelete)
}

func TestOriginPolicy_CheckOrigin(t *testing.T) {
	p := NewOriginPolicy([]string{"https://app.league.test"})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, p.CheckOrigin(req))

	req.Header.Set("Origin", "https://app.league.test")
	assert.True(t, p.CheckOrigin(req))

	req.Header.Set("Origin", "https://evil.test")
	assert.False(t, p.CheckOrigin(req))

	assert.True(t, NewOriginPolicy([]string{"*"}).Allows("https://evil.test"))
}

func TestCORS_Wildcard(t *testing.T) {
	h := CORS(NewOriginPolicy([]string{"*"}))(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecovery(t *testing.T) {
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), Logging, Recovery)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "internal server error")
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	Chain(http.HandlerFunc(okHandler), mw("a"), mw("b")).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"a", "b"}, order)
}

type hijackRecorder struct {
	*httptest.ResponseRecorder
	hijacked bool
}

func (h *hijackRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h.hijacked = true
	return nil, nil, nil
}

func TestLogging_KeepsHijacker(t *testing.T) {
	h := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		require.True(t, ok)
		hj.Hijack()
	}))

	rec := &hijackRecorder{ResponseRecorder: httptest.NewRecorder()}
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.True(t, rec.hijacked)
}
