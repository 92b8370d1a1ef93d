// Package metrics はmittoサーバーのPrometheusメトリクスを定義する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry はmitto固有のコレクタを保持する。
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mitto",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mitto",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	notificationsIngested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mitto",
			Subsystem: "notifications",
			Name:      "ingested_total",
			Help:      "Total number of notifications accepted.",
		},
	)

	notificationsLive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mitto",
			Subsystem: "notifications",
			Name:      "live",
			Help:      "Number of notifications currently held in memory.",
		},
	)

	iconLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mitto",
			Subsystem: "icons",
			Name:      "provider_lookups_total",
			Help:      "Icon provider lookups by provider and outcome.",
		},
		[]string{"provider", "result"},
	)

	iconCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mitto",
			Subsystem: "icons",
			Name:      "cache_hits_total",
			Help:      "Icon resolutions served from the local cache.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		notificationsIngested,
		notificationsLive,
		iconLookups,
		iconCacheHits,
	)
}

// Handler はRegistryの内容を公開するHTTPハンドラを返す。
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware はリクエスト数と処理時間を記録するGinミドルウェアを返す。
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// NotificationIngested は通知の受け付けを記録する。
func NotificationIngested() {
	notificationsIngested.Inc()
}

// SetLiveNotifications は保持中の通知数を記録する。
func SetLiveNotifications(n int) {
	notificationsLive.Set(float64(n))
}

// IconLookup はプロバイダ問い合わせの結果を記録する。
func IconLookup(provider string, found bool) {
	result := "miss"
	if found {
		result = "hit"
	}
	iconLookups.WithLabelValues(provider, result).Inc()
}

// IconCacheHit はキャッシュからのアイコン解決を記録する。
func IconCacheHit() {
	iconCacheHits.Inc()
}
