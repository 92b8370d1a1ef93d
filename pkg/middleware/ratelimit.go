package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

// RateLimiter はクライアント単位の固定ウィンドウ方式のレート制限を行う。
// ウィンドウあたりcount件のリクエストを許可し、超過分は429で拒否する。
type RateLimiter struct {
	// mu はwindowsを保護する。
	mu sync.Mutex
	// windows はクライアントキーごとの現在のウィンドウ。
	windows map[string]*window
	// count はウィンドウあたりの許可数。
	count int
	// length はウィンドウの長さ。
	length time.Duration
	// keyFunc はリクエストからクライアントキーを求める関数。
	keyFunc func(*gin.Context) string
	// clock は現在時刻の取得に使う時計。
	clock clockwork.Clock
}

// window は1クライアントの現在のウィンドウ。
type window struct {
	// start はウィンドウの開始時刻。
	start time.Time
	// limiter は補充レート0のリミッター。ウィンドウ内はcount個のトークンを消費するだけ。
	limiter *rate.Limiter
}

// RateLimiterOption はRateLimiterの設定を変更する関数。
type RateLimiterOption func(*RateLimiter)

// WithRateLimiterClock はRateLimiterが使う時計を差し替える。
func WithRateLimiterClock(clock clockwork.Clock) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.clock = clock
	}
}

// NewRateLimiter は新しいRateLimiterを生成する。
// windowあたりcount件を上限とし、keyFuncで求めたキーごとに独立して制限する。
func NewRateLimiter(count int, length time.Duration, keyFunc func(*gin.Context) string, opts ...RateLimiterOption) *RateLimiter {
	if count < 1 {
		count = 1
	}
	if length <= 0 {
		length = time.Minute
	}
	rl := &RateLimiter{
		windows: make(map[string]*window),
		count:   count,
		length:  length,
		keyFunc: keyFunc,
		clock:   clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(rl)
	}
	return rl
}

// Allow はkeyのリクエストを1件許可できるか判定する。
// 現在のウィンドウが終わっていれば新しいウィンドウを開始する。
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	w, ok := rl.windows[key]
	if !ok || now.Sub(w.start) >= rl.length {
		w = &window{start: now, limiter: rate.NewLimiter(0, rl.count)}
		rl.windows[key] = w
	}
	return w.limiter.AllowN(now, 1)
}

// Handler はレート制限を行うGinミドルウェアを返す。
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(rl.keyFunc(c)) {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}

// Cleanup は終了したウィンドウを破棄する。
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	for key, w := range rl.windows {
		if now.Sub(w.start) >= rl.length {
			delete(rl.windows, key)
		}
	}
}

// StartCleanup はctxが終了するまでinterval毎にCleanupを実行する。
func (rl *RateLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := rl.clock.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				rl.Cleanup()
			}
		}
	}()
}
