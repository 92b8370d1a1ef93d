package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/mitto/internal/config"
	"github.com/nao1215/mitto/internal/icon"
	"github.com/nao1215/mitto/internal/notification"
	"github.com/nao1215/mitto/pkg/httpclient"
	"github.com/spf13/cobra"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "通知を中継するサーバーを起動する",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadServer(a.v)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			cache, err := icon.OpenCache(ctx, cfg.IconsDir,
				icon.WithMaxAge(cfg.IconMaxAge), icon.WithCacheLogger(a.log))
			if err != nil {
				return err
			}
			defer cache.Close()

			engine := icon.NewEngine(
				cache,
				icon.DefaultProviders(cfg.IconTimeout),
				httpclient.New("", httpclient.WithTimeout(cfg.IconTimeout)),
				cfg.ProxyIcons,
				a.log,
			)

			store := notification.NewStore()
			defer store.Close()

			return notification.NewServer(cfg, store, engine, cache, a.log).Run(ctx)
		},
	}

	f := cmd.Flags()
	addAuthFlags(cmd, "クライアントに要求する認証")
	f.String(config.KeyCert, "", "TLS証明書のパス（--key と同時に指定するとHTTPSで待ち受ける）")
	f.String(config.KeyKey, "", "TLS秘密鍵のパス")
	f.String(config.KeyPort, config.DefaultPort, "待ち受けるポート")
	f.String(config.KeyAliveTime, config.DefaultAliveTime.String(), "通知を保持する時間（単位無しは秒）")
	f.Bool(config.KeySameIPOnly, false, "送信元と同じIPアドレスにのみ通知を返す")
	f.Int(config.KeyRateLimit, 0, "ウィンドウあたりの最大リクエスト数（0で無効）")
	f.String(config.KeyRateLimitWindow, config.DefaultRateLimitWindow.String(), "レート制限のウィンドウ幅")
	f.Bool(config.KeyTrustForwardedFor, false, "X-Forwarded-Forヘッダーをクライアントアドレスとして信頼する")
	f.String(config.KeyIconsDir, config.DefaultIconsDir(), "アイコンキャッシュのディレクトリ")
	f.Bool(config.KeyProxyIcons, true, "アイコンをダウンロードしてこのサーバーから配信する")
	f.Bool(config.KeyForceHTTPSIcons, false, "アイコンURLを常にhttpsにする")
	f.String(config.KeyIconTimeout, config.DefaultIconTimeout.String(), "アイコンプロバイダへのリクエストタイムアウト")
	f.String(config.KeyIconMaxAge, "0", "キャッシュしたアイコンの有効期間（0で無期限）")
	f.StringSlice(config.KeyCORSOrigin, nil, "クロスオリジンリクエストを許可するオリジン（複数指定可）")
	f.Bool(config.KeyMetrics, false, "/metricsでPrometheusメトリクスを公開する")

	return cmd
}
