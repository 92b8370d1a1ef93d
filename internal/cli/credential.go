package cli

import (
	"errors"
	"fmt"

	"github.com/nao1215/mitto/internal/config"
	"github.com/spf13/cobra"
)

func newCredentialCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "クライアントの認証情報をOSのキーリングで管理する",
	}

	set := &cobra.Command{
		Use:   "set",
		Short: "認証情報を保存する",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user := a.v.GetString(config.KeyAuthUser)
			pass := a.v.GetString(config.KeyAuthPass)
			if user == "" || pass == "" {
				return errors.New("--auth-user と --auth-pass を指定してください")
			}

			store, err := a.openCredentials()
			if err != nil {
				return err
			}
			if err := store.Save(user, pass); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "認証情報を保存しました")
			return nil
		},
	}
	addAuthFlags(set, "保存する認証")

	del := &cobra.Command{
		Use:   "delete",
		Short: "保存した認証情報を削除する",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openCredentials()
			if err != nil {
				return err
			}
			if err := store.Delete(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "認証情報を削除しました")
			return nil
		},
	}

	cmd.AddCommand(set, del)
	return cmd
}
