package icon

import (
	"context"
	"embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/nao1215/mitto/pkg/migration"
)

// migrations はアイコンインデックスのスキーマ定義。
//
//go:embed migrations/*.sql
var migrations embed.FS

// initSchema はアイコンインデックスにスキーマを適用する。
func initSchema(ctx context.Context, db *sqlx.DB) ([]string, error) {
	applied, err := migration.Run(ctx, db.DB, migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("スキーマの適用に失敗: %w", err)
	}
	return applied, nil
}
