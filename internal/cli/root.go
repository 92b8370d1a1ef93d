// Package cli はmittoコマンドのサブコマンドを定義する。
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/nao1215/mitto/internal/config"
	"github.com/nao1215/mitto/internal/credential"
	"github.com/nao1215/mitto/pkg/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app はサブコマンド間で共有する実行時の状態。
type app struct {
	// v はフラグ、環境変数、設定ファイルを統合した設定値。
	v *viper.Viper
	// log はロガー。
	log *logrus.Logger
	// openCredentials は認証情報のストアを開く関数。テストで差し替える。
	openCredentials func() (*credential.Store, error)
}

// Execute はmittoコマンドを実行する。
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCommand はmittoのルートコマンドを生成する。
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{openCredentials: credential.Open})
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "mitto",
		Short: "通知を中継するセルフホスト型サーバー",
		Long: `mittoは端末から送られた通知を一定時間保持し、別の端末へ中継するサーバーです。
アプリケーションIDからアイコンを探してキャッシュし、通知と一緒に配信します。`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.String(config.KeyConfig, "", "YAML形式の設定ファイル")
	flags.String(config.KeyLogLevel, "info", "ログレベル (debug, info, warn, error)")
	flags.String(config.KeyLogFile, "", "ログの出力先ファイル（未指定時は標準エラー出力）")

	root.AddCommand(
		newServeCommand(a),
		newListenCommand(a),
		newSendCommand(a),
		newCredentialCommand(a),
		newIconsCommand(a),
	)
	return root
}

// init は設定値とロガーを初期化する。
func (a *app) init(cmd *cobra.Command) error {
	configFile, err := cmd.Flags().GetString(config.KeyConfig)
	if err != nil {
		return err
	}
	v, err := config.NewViper(configFile)
	if err != nil {
		return err
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("フラグの読み込みに失敗: %w", err)
	}
	a.v = v

	lc := config.LoadLogging(v)
	log, err := logging.New(logging.Options{Level: lc.Level, File: lc.File})
	if err != nil {
		return err
	}
	a.log = log
	return nil
}

// addAuthFlags は認証情報のフラグを追加する。
func addAuthFlags(cmd *cobra.Command, usage string) {
	cmd.Flags().String(config.KeyAuthUser, "", usage+"のユーザー名")
	cmd.Flags().String(config.KeyAuthPass, "", usage+"のパスワード")
}

// fillCredentials はユーザー名とパスワードが未指定の場合、キーリングの値で補う。
func (a *app) fillCredentials(user, pass *string) {
	if *user != "" || *pass != "" {
		return
	}
	store, err := a.openCredentials()
	if err != nil {
		a.log.WithError(err).Debug("キーリングを開けませんでした")
		return
	}
	u, p, err := store.Load()
	if err != nil {
		if !errors.Is(err, credential.ErrNotFound) {
			a.log.WithError(err).Warn("キーリングから認証情報を読み込めませんでした")
		}
		return
	}
	*user, *pass = u, p
}
