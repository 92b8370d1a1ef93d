package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/nao1215/mitto/internal/config"
	"github.com/nao1215/mitto/internal/icon"
	"github.com/spf13/cobra"
)

func newIconsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "icons",
		Short: "アイコンキャッシュを操作する",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "キャッシュ済みのアイコンを一覧表示する",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir := a.v.GetString(config.KeyIconsDir)
			if dir == "" {
				dir = config.DefaultIconsDir()
			}

			cache, err := icon.OpenCache(cmd.Context(), dir)
			if err != nil {
				return err
			}
			defer cache.Close()

			records, err := cache.Records(cmd.Context())
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "キャッシュ済みのアイコンはありません")
				return nil
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("APP ID", "PROVIDER", "TYPE", "SIZE", "FETCHED AT", "SOURCE")
			for _, r := range records {
				t.Row(r.AppID, r.Provider, r.ContentType, strconv.FormatInt(r.Size, 10),
					r.FetchedAt.Local().Format(time.DateTime), r.SourceURL)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
	list.Flags().String(config.KeyIconsDir, config.DefaultIconsDir(), "アイコンキャッシュのディレクトリ")

	cmd.AddCommand(list)
	return cmd
}
