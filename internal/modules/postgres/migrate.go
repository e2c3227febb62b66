package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"trade_journal/pkg/db"
	"trade_journal/pkg/logger"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Migrate applies every schema file in name order inside one transaction.
// Files are written idempotently (IF NOT EXISTS), so re-running is safe.
func Migrate(ctx context.Context, tx db.TxManager) error {
	names, err := fs.Glob(schemaFS, "schema/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	return tx.RunMaster(ctx, func(ctxTx context.Context, t db.Transaction) error {
		for _, name := range names {
			body, err := schemaFS.ReadFile(name)
			if err != nil {
				return err
			}
			if _, err := t.Exec(ctxTx, string(body)); err != nil {
				return fmt.Errorf("migrate %s: %w", name, err)
			}
			logger.Info("[DB] applied %s", name)
		}
		return nil
	})
}
