package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/mitto/internal/config"
	"github.com/nao1215/mitto/internal/desktop"
	"github.com/nao1215/mitto/internal/poller"
	"github.com/spf13/cobra"
)

func newListenCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listen <url>",
		Short: "サーバーの通知を受信してデスクトップに表示する",
		Long: `指定したmittoサーバーを定期的にポーリングし、新しい通知をデスクトップに表示します。
認証情報のフラグが未指定の場合は "mitto credential set" で保存した値を使います。`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadClient(a.v, args[0])
			if err != nil {
				return err
			}
			a.fillCredentials(&cfg.AuthUser, &cfg.AuthPass)

			notifier, err := desktop.New(cfg.Notifier, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return poller.New(cfg, notifier, a.log).Run(ctx)
		},
	}

	f := cmd.Flags()
	addAuthFlags(cmd, "サーバーに送る認証")
	f.String(config.KeyFrequency, config.DefaultFrequency.String(), "ポーリング間隔（単位無しは秒）")
	f.String(config.KeyNotifier, config.DefaultNotifier, "通知の表示方法 (auto, command, console)")
	f.String(config.KeyIconCacheDir, config.DefaultClient().IconCacheDir, "ダウンロードしたアイコンの保存先（空にするとURLのまま渡す）")

	return cmd
}
