package icon

import (
	"context"
	"errors"
	"time"

	"github.com/nao1215/mitto/pkg/httpclient"
)

// ErrNoIcon はアイコンが見つからなかったことを表す。
// 単一プロバイダの失敗と、全プロバイダを試した後の最終的な失敗の両方で使用する。
var ErrNoIcon = errors.New("アイコンが見つかりません")

// Provider はアプリケーションIDからアイコンのURLを探す外部カタログ。
type Provider interface {
	// Name はログやメトリクスに使うプロバイダ名を返す。
	Name() string
	// Resolve はアイコン画像の絶対URLを返す。見つからない場合はエラーを返す。
	Resolve(ctx context.Context, appID string) (string, error)
}

// 各プロバイダの接続先。
const (
	FDroidBaseURL    = "https://f-droid.org"
	PlayStoreBaseURL = "https://play.google.com"
	AppStoreBaseURL  = "https://itunes.apple.com"
	IzzySoftBaseURL  = "https://apt.izzysoft.de"
)

// DefaultProviders は問い合わせ順に並べた既定のプロバイダ一覧を返す。
// 順序はF-Droid、Google Play、App Store、IzzyOnDroidで固定。
func DefaultProviders(timeout time.Duration) []Provider {
	newClient := func(base string) *httpclient.Client {
		return httpclient.New(base, httpclient.WithTimeout(timeout))
	}
	return []Provider{
		NewFDroid(newClient(FDroidBaseURL)),
		NewPlayStore(newClient(PlayStoreBaseURL)),
		NewAppStore(newClient(AppStoreBaseURL)),
		NewIzzySoft(newClient(IzzySoftBaseURL)),
	}
}
