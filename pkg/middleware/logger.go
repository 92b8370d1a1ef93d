package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Logger はリクエスト毎にメソッド、パス、ステータス、処理時間をログ出力するGinミドルウェアを返す。
func Logger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"latency":   time.Since(start).String(),
			"remote_ip": c.RemoteIP(),
		})
		if c.Writer.Status() >= 500 {
			entry.Warn("リクエスト処理でエラーが発生しました")
			return
		}
		entry.Debug("リクエストを処理しました")
	}
}
