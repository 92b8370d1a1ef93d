package icon

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNormalizeKey はNormalizeKey関数を検証する。
func TestNormalizeKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "小文字化される", in: "Com.Example.App", want: "com.example.app"},
		{name: "前後の空白が除去される", in: "  org.fdroid.fdroid\t", want: "org.fdroid.fdroid"},
		{name: "ハイフンとアンダースコアを許可する", in: "net.some_app-beta", want: "net.some_app-beta"},
		{name: "空文字列はエラー", in: "  ", wantErr: true},
		{name: "スラッシュを含むとエラー", in: "com/example", wantErr: true},
		{name: "親ディレクトリ参照はエラー", in: "..", wantErr: true},
		{name: "ドットで始まるとエラー", in: ".index.db", wantErr: true},
		{name: "空白を含むとエラー", in: "com example", wantErr: true},
		{name: "最大長ちょうどは許可する", in: strings.Repeat("a", maxKeyLength), want: strings.Repeat("a", maxKeyLength)},
		{name: "最大長を超えるとエラー", in: strings.Repeat("a", maxKeyLength+1), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := NormalizeKey(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidKey)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestProxyMarker はプロキシマーカーの生成と解析を検証する。
func TestProxyMarker(t *testing.T) {
	t.Parallel()

	marker := ProxyMarker("com.example.app")
	assert.Equal(t, "local://com.example.app", marker)

	key, ok := ParseProxyMarker(marker)
	assert.True(t, ok)
	assert.Equal(t, "com.example.app", key)

	_, ok = ParseProxyMarker("https://example.com/icon.png")
	assert.False(t, ok)

	_, ok = ParseProxyMarker("local://")
	assert.False(t, ok)
}
