package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// TestCredential はCredential関数を検証する。
func TestCredential(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		user string
		pass string
		want string
	}{
		{name: "両方指定された場合はコロンで連結される", user: "alice", pass: "secret", want: "alice:secret"},
		{name: "ユーザー名が空の場合は認証無効", user: "", pass: "secret", want: ""},
		{name: "パスワードが空の場合は認証無効", user: "alice", pass: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Credential(tt.user, tt.pass))
		})
	}
}

// TestCheckAuth はCheckAuth関数を検証する。
func TestCheckAuth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		expected string
		header   string
		want     bool
	}{
		{name: "認証情報が未設定なら常に許可", expected: "", header: "", want: true},
		{name: "認証情報が未設定なら任意のヘッダーを許可", expected: "", header: "anything", want: true},
		{name: "完全一致なら許可", expected: "alice:secret", header: "alice:secret", want: true},
		{name: "ヘッダーが無ければ拒否", expected: "alice:secret", header: "", want: false},
		{name: "パスワード違いは拒否", expected: "alice:secret", header: "alice:wrong", want: false},
		{name: "Basic形式のエンコードは拒否", expected: "alice:secret", header: "Basic YWxpY2U6c2VjcmV0", want: false},
		{name: "前後に空白があれば拒否", expected: "alice:secret", header: " alice:secret", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CheckAuth(tt.expected, tt.header))
		})
	}
}

// TestHeaderAuth はHeaderAuthミドルウェアを検証する。
func TestHeaderAuth(t *testing.T) {
	t.Parallel()

	router := gin.New()
	router.Use(HeaderAuth("alice:secret"))
	router.GET("/notifications", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	t.Run("正しいヘッダーで200が返ること", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
		req.Header.Set("Authorization", "alice:secret")
		w := serve(router, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("誤ったヘッダーで空ボディの403が返ること", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
		req.Header.Set("Authorization", "alice:wrong")
		w := serve(router, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, w.Body.String())
	})
}
