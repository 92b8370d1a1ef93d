package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Credential はユーザー名とパスワードをコロンで連結した認証文字列を返す。
// どちらかが空の場合は認証無効を表す空文字列を返す。
func Credential(user, pass string) string {
	if user == "" || pass == "" {
		return ""
	}
	return user + ":" + pass
}

// CheckAuth はAuthorizationヘッダーの値が期待する認証文字列と完全一致するか判定する。
// expectedが空の場合は常にtrueを返す。
func CheckAuth(expected, header string) bool {
	if expected == "" {
		return true
	}
	if header == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(header)) == 1
}

// HeaderAuth はAuthorizationヘッダーを検証するGinミドルウェアを返す。
// 検証に失敗した場合、どの部分が誤っていたかは明かさず空ボディの403を返す。
func HeaderAuth(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CheckAuth(expected, c.GetHeader("Authorization")) {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
}
