package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

// TestRateLimiter はRateLimiterを検証する。
func TestRateLimiter(t *testing.T) {
	t.Parallel()

	newRouter := func(rl *RateLimiter) *gin.Engine {
		router := gin.New()
		router.Use(rl.Handler())
		router.GET("/status", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		return router
	}

	request := func(ip string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/status", nil)
		req.RemoteAddr = ip + ":12345"
		return req
	}

	t.Run("ウィンドウ内の上限を超えると429が返ること", func(t *testing.T) {
		t.Parallel()

		rl := NewRateLimiter(3, time.Hour, func(c *gin.Context) string { return c.RemoteIP() })
		router := newRouter(rl)

		for i := range 3 {
			w := serve(router, request("10.0.0.1"))
			assert.Equal(t, http.StatusOK, w.Code, "request %d", i)
		}
		w := serve(router, request("10.0.0.1"))
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("クライアントごとに独立して制限されること", func(t *testing.T) {
		t.Parallel()

		rl := NewRateLimiter(1, time.Hour, func(c *gin.Context) string { return c.RemoteIP() })
		router := newRouter(rl)

		assert.Equal(t, http.StatusOK, serve(router, request("10.0.0.1")).Code)
		assert.Equal(t, http.StatusTooManyRequests, serve(router, request("10.0.0.1")).Code)
		assert.Equal(t, http.StatusOK, serve(router, request("10.0.0.2")).Code)
	})

	t.Run("ウィンドウ内では上限を超えて許可せず次のウィンドウで回復すること", func(t *testing.T) {
		t.Parallel()

		clock := clockwork.NewFakeClock()
		rl := NewRateLimiter(4, 400*time.Millisecond, func(c *gin.Context) string { return c.RemoteIP() },
			WithRateLimiterClock(clock))
		router := newRouter(rl)

		allowed := 0
		for range 4 {
			if serve(router, request("10.0.0.1")).Code == http.StatusOK {
				allowed++
			}
			clock.Advance(90 * time.Millisecond)
		}
		for range 3 {
			if serve(router, request("10.0.0.1")).Code == http.StatusOK {
				allowed++
			}
			clock.Advance(10 * time.Millisecond)
		}
		assert.Equal(t, 4, allowed)

		clock.Advance(10 * time.Millisecond)
		for i := range 4 {
			assert.Equal(t, http.StatusOK, serve(router, request("10.0.0.1")).Code, "request %d", i)
		}
		assert.Equal(t, http.StatusTooManyRequests, serve(router, request("10.0.0.1")).Code)
	})

	t.Run("Cleanupは終了したウィンドウだけを破棄すること", func(t *testing.T) {
		t.Parallel()

		clock := clockwork.NewFakeClock()
		rl := NewRateLimiter(2, time.Minute, func(c *gin.Context) string { return c.RemoteIP() },
			WithRateLimiterClock(clock))
		rl.Allow("old")
		clock.Advance(40 * time.Second)
		rl.Allow("recent")
		clock.Advance(30 * time.Second)

		rl.Cleanup()

		rl.mu.Lock()
		defer rl.mu.Unlock()
		assert.NotContains(t, rl.windows, "old")
		assert.Contains(t, rl.windows, "recent")
	})
}

// TestClientIP はClientIP関数を検証する。
func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		xff            string
		trustForwarded bool
		want           string
	}{
		{name: "信頼しない場合は接続元アドレス", xff: "203.0.113.7", trustForwarded: false, want: "192.0.2.1"},
		{name: "信頼する場合はX-Forwarded-Forの先頭", xff: "203.0.113.7, 10.0.0.1", trustForwarded: true, want: "203.0.113.7"},
		{name: "信頼してもヘッダーが無ければ接続元アドレス", xff: "", trustForwarded: true, want: "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got string
			router := gin.New()
			router.GET("/", func(c *gin.Context) {
				got = ClientIP(c, tt.trustForwarded)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "192.0.2.1:4321"
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			serve(router, req)
			assert.Equal(t, tt.want, got)
		})
	}
}
