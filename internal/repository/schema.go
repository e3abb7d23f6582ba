package repository

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/uma-arai/sbcntr-hotel/internal/common/database"
)

//go:embed schema.sql
var schema string

// Migrate はテーブルと制約を作成します。既存のテーブルはそのまま残ります
func Migrate(ctx context.Context, db *database.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
