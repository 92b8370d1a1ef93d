package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// ClientIP はリクエスト元のIPアドレスを返す。
// trustForwardedがtrueの場合、X-Forwarded-Forヘッダーの先頭の値を優先する。
func ClientIP(c *gin.Context, trustForwarded bool) string {
	if trustForwarded {
		if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}
	return c.RemoteIP()
}
