package icon

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidKey はキャッシュキーとして使用できないアプリケーションIDを表す。
var ErrInvalidKey = errors.New("不正なアプリケーションID")

// proxyScheme はキャッシュ済みアイコンを指すプロキシマーカーの接頭辞。
const proxyScheme = "local://"

// maxKeyLength はキーの最大長。
// 一時ファイル名 "."+key+".tmp-NNN" がファイル名の上限255バイトに収まる長さにする。
const maxKeyLength = 200

// NormalizeKey はアプリケーションIDを正規化したキャッシュキーを返す。
// 前後の空白を除去して小文字化し、英数字と . _ - 以外を含む場合や
// 先頭が英数字でない場合はErrInvalidKeyを返す。
func NormalizeKey(appID string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(appID))
	if key == "" || len(key) > maxKeyLength {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, appID)
	}
	if !isAlnum(key[0]) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, appID)
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		if !isAlnum(c) && c != '.' && c != '_' && c != '-' {
			return "", fmt.Errorf("%w: %q", ErrInvalidKey, appID)
		}
	}
	return key, nil
}

func isAlnum(c byte) bool {
	return ('a' <= c && c <= 'z') || ('0' <= c && c <= '9')
}

// ProxyMarker はキャッシュ済みアイコンを指すプロキシマーカーを返す。
func ProxyMarker(key string) string {
	return proxyScheme + key
}

// ParseProxyMarker はiconがプロキシマーカーであればキーを返す。
func ParseProxyMarker(icon string) (string, bool) {
	key, ok := strings.CutPrefix(icon, proxyScheme)
	if !ok || key == "" {
		return "", false
	}
	return key, true
}
