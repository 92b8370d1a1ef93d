package icon

import (
	"context"
	"fmt"
	"net/url"

	"github.com/nao1215/mitto/pkg/httpclient"
)

// playStoreIconAlt はGoogle Playの商品ページでアイコン画像に付与されるalt属性。
const playStoreIconAlt = "Icon image"

// PlayStore はGoogle Playの商品ページからアイコンを探すプロバイダ。
type PlayStore struct {
	client *httpclient.Client
}

// NewPlayStore はclientの接続先をGoogle PlayとみなすPlayStoreを生成する。
func NewPlayStore(client *httpclient.Client) *PlayStore {
	return &PlayStore{client: client}
}

// Name はプロバイダ名を返す。
func (p *PlayStore) Name() string { return "playstore" }

// Resolve は商品ページのalt="Icon image"の画像のsrc属性を返す。
func (p *PlayStore) Resolve(ctx context.Context, appID string) (string, error) {
	resp, err := p.client.Get(ctx, "/store/apps/details?id="+url.QueryEscape(appID))
	if err != nil {
		return "", fmt.Errorf("Google Playページの取得に失敗: %w", err)
	}
	return findAttr(resp.Body, hasAttr("alt", playStoreIconAlt), "src")
}
