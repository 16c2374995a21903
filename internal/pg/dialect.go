package pg

import (
	"fmt"
	"regexp"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"jds/internal/schema"
)

type Dialect struct{}

var _ schema.Dialect = Dialect{}

func (Dialect) ColumnType(c schema.TableComponent, maxLength int) string {
	switch c {
	case schema.StoreText:
		if maxLength > 0 {
			return fmt.Sprintf("varchar(%d)", maxLength)
		}
		return "text"
	case schema.StoreInteger:
		return "integer"
	case schema.StoreLong:
		return "bigint"
	case schema.StoreFloat:
		return "real"
	case schema.StoreDouble:
		return "double precision"
	case schema.StoreBoolean:
		return "boolean"
	case schema.StoreDateTime:
		return "timestamp"
	case schema.StoreZonedDateTime:
		return "timestamp with time zone"
	case schema.StoreTime:
		return "time"
	case schema.StoreDate:
		return "date"
	case schema.StoreBlob:
		// у bytea нет длины
		return "bytea"
	}
	return ""
}

func (d Dialect) StringType(maxLength int) string {
	return d.ColumnType(schema.StoreText, maxLength)
}

var plainIdent = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// QuoteIdent оставляет простые имена как есть, остальные (ключевые слова,
// верхний регистр, спецсимволы) квотирует средствами pgx.
func (Dialect) QuoteIdent(name string) string {
	if plainIdent.MatchString(name) && !schema.IsReserved(name) {
		return name
	}
	return pgx.Identifier{name}.Sanitize()
}

func (Dialect) IndexName(table, column string) string {
	return strings.ToLower(table + "_ix_" + column)
}

func (Dialect) Placeholder() sq.PlaceholderFormat { return sq.Dollar }

func (Dialect) UpsertSuffix(conflict, update []string) string {
	target := strings.Join(conflict, ", ")
	if len(update) == 0 {
		return fmt.Sprintf("ON CONFLICT (%s) DO NOTHING", target)
	}
	set := make([]string, len(update))
	for i, c := range update {
		set[i] = fmt.Sprintf("%s = EXCLUDED.%s", c, c)
	}
	return fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s", target, strings.Join(set, ", "))
}
