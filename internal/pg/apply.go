package pg

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// коды Postgres, при которых DDL считаем уже применённым
var alreadyExists = map[string]struct{}{
	"42710": {}, // duplicate_object
	"42P07": {}, // duplicate_table
	"42701": {}, // duplicate_column
}

// Execer — то, что нужно для DDL (*sql.DB, *sql.Conn, *sql.Tx).
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ApplyDDL выполняет map[key]sql в порядке ключей. Уже существующие объекты пропускаются,
// остальные ошибки — *StorageError.
func ApplyDDL(ctx context.Context, db Execer, ddl map[string]string, log *zap.SugaredLogger) error {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	keys := make([]string, 0, len(ddl))
	for k := range ddl {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	applied := 0
	for _, k := range keys {
		sqlText := strings.TrimSpace(ddl[k])
		if sqlText == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, sqlText); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) {
				if _, ok := alreadyExists[pgErr.Code]; ok {
					log.Debugw("DDL skipped (already exists)", "key", k, "code", pgErr.Code, "message", pgErr.Message)
					continue
				}
			}
			return &StorageError{Op: "apply ddl " + k, Err: err}
		}
		applied++
	}
	log.Infow("DDL applied", "statements", applied, "total", len(keys))
	return nil
}
