package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"jds/internal/field"
)

const (
	OverviewTable     = "jds_entity_overview"
	CompositeKeyCol   = "composite_key"
	CompositeKeyLen   = 128
	DictionaryTable   = "jds_ref_entity_field_dictionary"
	defaultIDColLen   = 64
	defaultPropColLen = 128
)

type Columns struct {
	Definitions []string               // "<name> <type>" в порядке имён полей
	Fields      map[string]field.Field // колонка -> поле
	Ordinals    map[string]int         // колонка EnumCollection -> ординал
}

// GenerateTable строит CREATE TABLE с единственной колонкой composite key.
// cascade добавляет FK на overview с каскадным удалением.
func GenerateTable(d Dialect, table string, cascade bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (%s %s", table, CompositeKeyCol, d.StringType(CompositeKeyLen))
	if cascade {
		fmt.Fprintf(&b, ", FOREIGN KEY (%s) REFERENCES %s(%s) ON DELETE CASCADE",
			CompositeKeyCol, OverviewTable, CompositeKeyCol)
	}
	b.WriteString(")")
	return b.String()
}

// GenerateColumns раскладывает поля по колонкам. Порядок — по имени поля, чтобы DDL
// не «прыгал» между запусками. Структурные типы колонок не дают.
func GenerateColumns(d Dialect, fields []field.Field, enums EnumSource) (Columns, error) {
	sorted := append([]field.Field(nil), fields...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	out := Columns{
		Fields:   make(map[string]field.Field),
		Ordinals: make(map[string]int),
	}
	add := func(col, typ string, f field.Field) error {
		if _, dup := out.Fields[col]; dup {
			return fmt.Errorf("field %d: column %q already generated", f.ID, col)
		}
		out.Definitions = append(out.Definitions, d.QuoteIdent(col)+" "+typ)
		out.Fields[col] = f
		return nil
	}

	for _, f := range sorted {
		if Structural(f.Type) {
			continue
		}
		if f.Type == field.TypeEnumCollection {
			fe, err := enums.Get(f.ID)
			if err != nil {
				return Columns{}, err
			}
			boolType := d.ColumnType(StoreBoolean, 0)
			for _, v := range fe.Values {
				col := f.Name + "_" + strconv.Itoa(v.Ordinal)
				if err := add(col, boolType, f); err != nil {
					return Columns{}, err
				}
				out.Ordinals[col] = v.Ordinal
			}
			continue
		}

		c, err := Classify(f.Type)
		if err != nil {
			return Columns{}, fmt.Errorf("field %d (%s): %w", f.ID, f.Name, err)
		}
		typ := d.ColumnType(c, f.MaxLength)
		if typ == "" {
			return Columns{}, fmt.Errorf("field %d (%s): dialect has no type for %s", f.ID, f.Name, c.Name)
		}
		if err := add(f.Name, typ, f); err != nil {
			return Columns{}, err
		}
	}
	return out, nil
}

// GenerateIndex — имя индекса выдаёт диалект (<table>_ix_<column>).
func GenerateIndex(d Dialect, table, column string) string {
	return fmt.Sprintf("CREATE INDEX %s ON %s(%s)", d.IndexName(table, column), table, d.QuoteIdent(column))
}
