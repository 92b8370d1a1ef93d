package icon

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/nao1215/mitto/pkg/httpclient"
	"github.com/tidwall/gjson"
)

// AppStore はiTunes Search APIでApp Storeを検索してアイコンを探すプロバイダ。
type AppStore struct {
	client *httpclient.Client
}

// NewAppStore はclientの接続先をiTunes Search APIとみなすAppStoreを生成する。
func NewAppStore(client *httpclient.Client) *AppStore {
	return &AppStore{client: client}
}

// Name はプロバイダ名を返す。
func (p *AppStore) Name() string { return "appstore" }

// Resolve はアプリケーションIDで検索し、bundleIdが大文字小文字を区別せず
// 一致した結果のartworkUrl512を返す。
func (p *AppStore) Resolve(ctx context.Context, appID string) (string, error) {
	resp, err := p.client.Get(ctx, "/search?limit=10&media=software&term="+url.QueryEscape(appID))
	if err != nil {
		return "", fmt.Errorf("App Storeの検索に失敗: %w", err)
	}
	if !gjson.ValidBytes(resp.Body) {
		return "", errors.New("App Storeの検索結果が不正なJSONです")
	}

	var artwork string
	gjson.GetBytes(resp.Body, "results").ForEach(func(_, result gjson.Result) bool {
		if strings.EqualFold(result.Get("bundleId").String(), appID) {
			artwork = result.Get("artworkUrl512").String()
			return false
		}
		return true
	})
	if artwork == "" {
		return "", ErrNoIcon
	}
	return artwork, nil
}
