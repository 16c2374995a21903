package schema

import (
	sq "github.com/Masterminds/squirrel"

	"jds/internal/field"
)

// Dialect — то, что ядро берёт у конкретной БД: имена типов, именование индексов,
// плейсхолдеры и upsert. Реализация для Postgres — pg.Dialect.
type Dialect interface {
	// ColumnType — тип колонки для таблицы хранения; maxLength учитывается для text/blob.
	ColumnType(c TableComponent, maxLength int) string
	// StringType — строковый тип; 0 = по умолчанию диалекта.
	StringType(maxLength int) string
	// QuoteIdent — имя колонки в тексте DDL; квотируется, если как есть его писать нельзя.
	QuoteIdent(name string) string
	IndexName(table, column string) string
	Placeholder() sq.PlaceholderFormat
	// UpsertSuffix — хвост INSERT при конфликте по conflict; пустой update = ничего не делать.
	UpsertSuffix(conflict, update []string) string
}

// EnumSource — откуда генератор берёт значения enum (обычно *field.EnumRegistry).
type EnumSource interface {
	Get(fieldID int64) (field.FieldEnum, error)
}
