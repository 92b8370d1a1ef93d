package icon

import (
	"context"
	"fmt"
	"net/url"

	"github.com/nao1215/mitto/pkg/httpclient"
)

// IzzySoft はIzzyOnDroidリポジトリのアイコンの存在を確認するプロバイダ。
type IzzySoft struct {
	client *httpclient.Client
}

// NewIzzySoft はclientの接続先をIzzyOnDroidとみなすIzzySoftを生成する。
func NewIzzySoft(client *httpclient.Client) *IzzySoft {
	return &IzzySoft{client: client}
}

// Name はプロバイダ名を返す。
func (p *IzzySoft) Name() string { return "izzysoft" }

// Resolve はアイコンURLにHEADリクエストを送り、存在すればそのURLを返す。
func (p *IzzySoft) Resolve(ctx context.Context, appID string) (string, error) {
	path := "/fdroid/repo/" + url.PathEscape(appID) + "/en-US/icon.png"
	if err := p.client.Head(ctx, path); err != nil {
		return "", fmt.Errorf("IzzyOnDroidのアイコン確認に失敗: %w", err)
	}
	return p.client.BaseURL() + path, nil
}
