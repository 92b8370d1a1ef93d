package cli

import (
	"fmt"
	"strings"

	"github.com/nao1215/mitto/internal/config"
	"github.com/nao1215/mitto/pkg/httpclient"
	"github.com/nao1215/mitto/pkg/middleware"
	"github.com/spf13/cobra"
)

// sendRequest は通知送信リクエストのJSON構造。
type sendRequest struct {
	// Icon はアイコンのURL。
	Icon string `json:"icon,omitempty"`
	// Text は通知の本文。
	Text string `json:"text,omitempty"`
	// Title は通知のタイトル。
	Title string `json:"title,omitempty"`
	// AppID は通知元アプリケーションのID。
	AppID string `json:"app_id,omitempty"`
	// AppName は通知元アプリケーションの表示名。
	AppName string `json:"app_name,omitempty"`
	// SubText は通知の補足テキスト。
	SubText string `json:"sub_text,omitempty"`
	// SubTitle は通知のサブタイトル。
	SubTitle string `json:"sub_title,omitempty"`
}

func newSendCommand(a *app) *cobra.Command {
	var req sendRequest

	cmd := &cobra.Command{
		Use:   "send <url>",
		Short: "サーバーに通知を1件送信する",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user := a.v.GetString(config.KeyAuthUser)
			pass := a.v.GetString(config.KeyAuthPass)
			a.fillCredentials(&user, &pass)

			var opts []httpclient.Option
			if cred := middleware.Credential(user, pass); cred != "" {
				opts = append(opts, httpclient.WithHeader("Authorization", cred))
			}
			client := httpclient.New(strings.TrimRight(args[0], "/"), opts...)

			if err := client.PostJSON(cmd.Context(), "/new-notification", req, nil); err != nil {
				return fmt.Errorf("通知の送信に失敗: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "通知を送信しました")
			return nil
		},
	}

	addAuthFlags(cmd, "サーバーに送る認証")
	f := cmd.Flags()
	f.StringVar(&req.Title, "title", "", "通知のタイトル")
	f.StringVar(&req.Text, "text", "", "通知の本文")
	f.StringVar(&req.SubTitle, "sub-title", "", "通知のサブタイトル")
	f.StringVar(&req.SubText, "sub-text", "", "通知の補足テキスト")
	f.StringVar(&req.AppName, "app-name", "", "通知元アプリケーションの表示名")
	f.StringVar(&req.AppID, "app-id", "", "アイコンの解決に使うアプリケーションID")
	f.StringVar(&req.Icon, "icon", "", "アイコンのURL（指定するとアイコンの解決を行わない）")

	return cmd
}
