package icon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/nao1215/mitto/internal/metrics"
	"github.com/nao1215/mitto/pkg/httpclient"
	"github.com/sirupsen/logrus"
)

// maxIconSize はダウンロードするアイコンの最大サイズ。
const maxIconSize = 5 << 20

// Engine はキャッシュとプロバイダを組み合わせてアイコンを解決する。
type Engine struct {
	// cache はアイコンキャッシュ。
	cache *Cache
	// providers は問い合わせ順に並べたプロバイダ。
	providers []Provider
	// downloader はアイコン画像のダウンロードに使うクライアント。
	downloader *httpclient.Client
	// proxy はアイコンをダウンロードして自サーバーから配信するかどうか。
	proxy bool
	// log はロガー。
	log logrus.FieldLogger
}

// NewEngine は新しいEngineを生成する。
// proxyがtrueの場合、見つかったアイコンをダウンロードしてキャッシュし、プロキシマーカーを返す。
func NewEngine(cache *Cache, providers []Provider, downloader *httpclient.Client, proxy bool, log logrus.FieldLogger) *Engine {
	return &Engine{
		cache:      cache,
		providers:  providers,
		downloader: downloader,
		proxy:      proxy,
		log:        log,
	}
}

// Resolve はアプリケーションIDから通知のiconフィールドに格納する値を返す。
//
// キャッシュにあればプロキシマーカー（プロキシ無効時は取得元URL）を返す。
// 無ければプロバイダを順に問い合わせ、最初に見つかったURLを使う。
// プロキシ有効時はダウンロードしてキャッシュしたうえでプロキシマーカーを返し、
// ダウンロードに失敗した場合は元のURLをそのまま返す。
// どのプロバイダでも見つからなければErrNoIconを返す。
func (e *Engine) Resolve(ctx context.Context, appID string) (string, error) {
	appID = strings.TrimSpace(appID)
	key, err := NormalizeKey(appID)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoIcon, err)
	}
	log := e.log.WithField("app_id", key)

	rec, ok, err := e.cache.Lookup(ctx, key)
	if err != nil {
		log.WithError(err).Warn("アイコンキャッシュの参照に失敗しました")
	}
	if ok {
		if e.proxy {
			metrics.IconCacheHit()
			return ProxyMarker(key), nil
		}
		if rec.SourceURL != "" {
			metrics.IconCacheHit()
			return rec.SourceURL, nil
		}
	}

	for _, p := range e.providers {
		if ctx.Err() != nil {
			break
		}

		iconURL, err := p.Resolve(ctx, appID)
		if err == nil {
			err = validateIconURL(iconURL)
		}
		metrics.IconLookup(p.Name(), err == nil)
		if err != nil {
			log.WithField("provider", p.Name()).WithError(err).Debug("プロバイダでアイコンが見つかりませんでした")
			continue
		}

		log.WithFields(logrus.Fields{"provider": p.Name(), "url": iconURL}).Info("アイコンを解決しました")
		if !e.proxy {
			return iconURL, nil
		}
		if err := e.download(ctx, key, p.Name(), iconURL); err != nil {
			log.WithError(err).Warn("アイコンのキャッシュに失敗したため元のURLを使用します")
			return iconURL, nil
		}
		return ProxyMarker(key), nil
	}

	return "", ErrNoIcon
}

// download はiconURLの画像をダウンロードしてキャッシュに書き込む。
func (e *Engine) download(ctx context.Context, key, provider, iconURL string) error {
	resp, err := e.downloader.Get(ctx, iconURL)
	if err != nil {
		return fmt.Errorf("アイコンのダウンロードに失敗: %w", err)
	}
	if len(resp.Body) == 0 {
		return errors.New("アイコンの内容が空です")
	}
	if len(resp.Body) > maxIconSize {
		return fmt.Errorf("アイコンが大きすぎます: %d bytes", len(resp.Body))
	}

	contentType := resp.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(resp.Body)
	}

	_, err = e.cache.Put(ctx, key, resp.Body, Record{
		SourceURL:   iconURL,
		Provider:    provider,
		ContentType: contentType,
	})
	return err
}

// validateIconURL はプロバイダの結果がhttpまたはhttpsの絶対URLであることを確認する。
func validateIconURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("アイコンURLの解析に失敗: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: 絶対URLではありません: %s", ErrNoIcon, raw)
	}
	return nil
}
