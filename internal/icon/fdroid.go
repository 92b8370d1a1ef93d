package icon

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/nao1215/mitto/pkg/httpclient"
)

// FDroid はF-Droidのパッケージページからアイコンを探すプロバイダ。
type FDroid struct {
	client *httpclient.Client
}

// NewFDroid はclientの接続先をF-DroidとみなすFDroidを生成する。
func NewFDroid(client *httpclient.Client) *FDroid {
	return &FDroid{client: client}
}

// Name はプロバイダ名を返す。
func (p *FDroid) Name() string { return "fdroid" }

// Resolve はパッケージページのpackage-icon要素のsrc属性を返す。
// 相対パスは未登録アイコンのプレースホルダなので見つからなかったものとして扱う。
func (p *FDroid) Resolve(ctx context.Context, appID string) (string, error) {
	resp, err := p.client.Get(ctx, "/en/packages/"+url.PathEscape(appID)+"/")
	if err != nil {
		return "", fmt.Errorf("F-Droidページの取得に失敗: %w", err)
	}

	src, err := findAttr(resp.Body, hasClass("package-icon"), "src")
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(src, "http") {
		return "", ErrNoIcon
	}
	return src, nil
}
