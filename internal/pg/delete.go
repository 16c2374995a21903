package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"jds/internal/overview"
	"jds/internal/schema"
)

// DeleteSQL — текст удаления из overview; таблица и колонка — часть on-disk контракта.
// "?" переписывается под плейсхолдеры диалекта.
const DeleteSQL = "DELETE FROM " + schema.OverviewTable + " WHERE id = ?"

// ErrNoOverview — у сущности в пакете нет overview-записи, удалять нечего.
var ErrNoOverview = errors.New("entity has no overview record")

// Deletable — сущность, которую можно удалить по её overview.
type Deletable interface {
	Overview() *overview.Record
}

// DeleteNotifier — необязательный хук перед удалением. Получает отдельное соединение,
// которое закрывается сразу после вызова.
type DeleteNotifier interface {
	OnDelete(ctx context.Context, conn *sql.Conn) error
}

// Deleter — транзакционное пакетное удаление. Внутрипроцессной блокировки нет:
// пересекающиеся наборы id вызывающий сериализует сам.
type Deleter struct {
	db      *sql.DB
	dialect schema.Dialect
	log     *zap.SugaredLogger
}

func NewDeleter(db *sql.DB, d schema.Dialect, log *zap.SugaredLogger) *Deleter {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Deleter{db: db, dialect: d, log: log}
}

// Delete удаляет экземпляры по uuid одной транзакцией: либо все, либо ничего.
// ctx ограничивает только получение соединения; начатый пакет не отменяется.
func (d *Deleter) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	// ids вызывающего могут поменяться после возврата
	ids = slices.Clone(ids)
	fail := func(op string, err error) error {
		return &StorageError{Op: op, IDs: ids, Err: err}
	}

	query, err := d.dialect.Placeholder().ReplacePlaceholders(DeleteSQL)
	if err != nil {
		return fail("build delete", err)
	}

	conn, err := d.db.Conn(ctx)
	if err != nil {
		return fail("acquire connection", err)
	}
	defer conn.Close()

	batchCtx := context.WithoutCancel(ctx)
	tx, err := conn.BeginTx(batchCtx, nil)
	if err != nil {
		return fail("begin", err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			d.log.Warnw("rollback failed", "ids", ids, "error", rbErr)
		}
	}()

	stmt, err := tx.PrepareContext(batchCtx, query)
	if err != nil {
		return fail("prepare delete", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(batchCtx, id); err != nil {
			return fail("delete", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fail("commit", err)
	}
	committed = true

	d.log.Debugw("overview batch deleted", "count", len(ids))
	return nil
}

// DeleteEntities сначала вызывает хуки DeleteNotifier (каждый на своём соединении),
// затем удаляет всех одним пакетом. Ошибка хука отменяет удаление, как и
// сущность без overview (ErrNoOverview): пакет тогда не трогается вовсе.
func (d *Deleter) DeleteEntities(ctx context.Context, entities ...Deletable) error {
	ids := make([]string, 0, len(entities))
	var missing []int
	for i, e := range entities {
		var rec *overview.Record
		if e != nil {
			rec = e.Overview()
		}
		if rec == nil {
			missing = append(missing, i)
			continue
		}
		ids = append(ids, rec.UUID)
	}
	if len(missing) > 0 {
		return &StorageError{Op: "collect ids", IDs: ids, Err: fmt.Errorf("%w: positions %v", ErrNoOverview, missing)}
	}
	for _, e := range entities {
		n, ok := e.(DeleteNotifier)
		if !ok {
			continue
		}
		if err := d.notify(ctx, n); err != nil {
			return &StorageError{Op: "pre-delete hook", IDs: ids, Err: err}
		}
	}
	return d.Delete(ctx, ids...)
}

func (d *Deleter) notify(ctx context.Context, n DeleteNotifier) error {
	conn, err := d.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	return n.OnDelete(ctx, conn)
}
