package schema

import (
	"fmt"
	"sort"
	"strings"

	"jds/internal/field"
)

// Entity — тип сущности с набором полей; плоская таблица строится из него.
type Entity struct {
	Name    string
	TypeID  int64
	Fields  []field.Field
	Indexed []string // имена колонок под индекс
}

var reserved = map[string]struct{}{
	"user": {}, "select": {}, "table": {}, "insert": {}, "update": {}, "delete": {},
	"where": {}, "join": {}, "group": {}, "order": {}, "limit": {}, "offset": {},
	"primary": {}, "foreign": {}, "key": {}, "constraint": {}, "default": {},
	"from": {}, "into": {}, "values": {}, "unique": {}, "index": {}, "create": {},
	"drop": {}, "alter": {}, "schema": {}, "grant": {}, "revoke": {},
	// прочие зарезервированные слова Postgres
	"all": {}, "analyse": {}, "analyze": {}, "and": {}, "any": {}, "array": {}, "as": {},
	"asc": {}, "asymmetric": {}, "both": {}, "case": {}, "cast": {}, "check": {},
	"collate": {}, "column": {}, "current_date": {}, "current_role": {}, "current_time": {},
	"current_timestamp": {}, "current_user": {}, "deferrable": {}, "desc": {}, "distinct": {},
	"do": {}, "else": {}, "end": {}, "except": {}, "false": {}, "fetch": {}, "for": {},
	"having": {}, "in": {}, "initially": {}, "intersect": {}, "lateral": {}, "leading": {},
	"localtime": {}, "localtimestamp": {}, "not": {}, "null": {}, "on": {}, "only": {},
	"or": {}, "placing": {}, "references": {}, "returning": {}, "session_user": {},
	"some": {}, "symmetric": {}, "then": {}, "to": {}, "trailing": {}, "true": {},
	"union": {}, "using": {}, "variadic": {}, "when": {}, "window": {}, "with": {},
}

// IsReserved: слово нельзя использовать как имя таблицы или колонки без кавычек.
func IsReserved(s string) bool { _, ok := reserved[strings.ToLower(s)]; return ok }

// элементарная плюрализация (orders, people -> peoples, нас устраивает)
func plural(s string) string {
	s = strings.ToLower(s)
	if strings.HasSuffix(s, "s") {
		return s
	}
	return s + "s"
}

// EntityTableName: plural(entity) с защитой keyword'ов.
func EntityTableName(entity string) string {
	t := plural(entity)
	if IsReserved(t) {
		t = "e_" + t
	}
	return t
}

// OverviewDDL — таблица идентичности/версий. Колонка id хранит uuid экземпляра,
// по ней работает пакетное удаление.
func OverviewDDL(d Dialect) string {
	long := d.ColumnType(StoreLong, 0)
	cols := []string{
		fmt.Sprintf("%s %s PRIMARY KEY", CompositeKeyCol, d.StringType(CompositeKeyLen)),
		fmt.Sprintf("id %s NOT NULL", d.StringType(defaultIDColLen)),
		fmt.Sprintf("uuid_location %s NOT NULL", d.StringType(defaultIDColLen)),
		fmt.Sprintf("uuid_location_version %s NOT NULL", d.ColumnType(StoreInteger, 0)),
		fmt.Sprintf("parent_uuid %s", d.StringType(defaultIDColLen)),
		fmt.Sprintf("parent_composite_key %s", d.StringType(CompositeKeyLen)),
		fmt.Sprintf("entity_id %s NOT NULL", long),
		fmt.Sprintf("live %s NOT NULL", d.ColumnType(StoreBoolean, 0)),
		fmt.Sprintf("version %s NOT NULL", long),
		fmt.Sprintf("last_edit %s NOT NULL", d.ColumnType(StoreDateTime, 0)),
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", OverviewTable, strings.Join(cols, ", "))
}

// StoreDDL — по таблице на каждый TableComponent: (composite_key, field_id, sequence, value).
func StoreDDL(d Dialect) map[string]string {
	out := make(map[string]string, len(Components))
	for _, c := range Components {
		out[c.Name] = fmt.Sprintf(
			"CREATE TABLE %s (%s %s NOT NULL, field_id %s NOT NULL, sequence %s NOT NULL DEFAULT 0, value %s, "+
				"PRIMARY KEY (%s, field_id, sequence), "+
				"FOREIGN KEY (%s) REFERENCES %s(%s) ON DELETE CASCADE)",
			c.Name, CompositeKeyCol, d.StringType(CompositeKeyLen),
			d.ColumnType(StoreLong, 0), d.ColumnType(StoreInteger, 0), d.ColumnType(c, 0),
			CompositeKeyCol, CompositeKeyCol, OverviewTable, CompositeKeyCol,
		)
	}
	return out
}

// DictionaryDDL — (entity_id, field_id, property_name), одна строка на привязку;
// одно поле может жить под несколькими свойствами.
func DictionaryDDL(d Dialect) string {
	long := d.ColumnType(StoreLong, 0)
	return fmt.Sprintf(
		"CREATE TABLE %s (entity_id %s NOT NULL, field_id %s NOT NULL, property_name %s NOT NULL, PRIMARY KEY (entity_id, field_id, property_name))",
		DictionaryTable, long, long, d.StringType(defaultPropColLen),
	)
}

// EntityDDL — CREATE TABLE + ALTER TABLE ADD COLUMN на каждую колонку + индексы.
// Отдельные операторы, чтобы ApplyDDL мог пропустить уже существующие.
func EntityDDL(d Dialect, e Entity, enums EnumSource) ([]string, error) {
	table := EntityTableName(e.Name)
	cols, err := GenerateColumns(d, e.Fields, enums)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Name, err)
	}
	stmts := []string{GenerateTable(d, table, true)}
	for _, def := range cols.Definitions {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", table, def))
	}
	for _, col := range e.Indexed {
		if _, ok := cols.Fields[col]; !ok {
			return nil, fmt.Errorf("%s: index on unknown column %q", e.Name, col)
		}
		stmts = append(stmts, GenerateIndex(d, table, col))
	}
	return stmts, nil
}

// GenerateSchema собирает весь DDL в карту ключ -> оператор; ключи сортируются
// так, что overview идёт раньше зависящих от него таблиц.
func GenerateSchema(d Dialect, entities []Entity, enums EnumSource) (map[string]string, error) {
	out := map[string]string{
		"000_overview":    OverviewDDL(d),
		"001_overview_ix": GenerateIndex(d, OverviewTable, "id"),
		"200_dictionary":  DictionaryDDL(d),
	}
	for name, sql := range StoreDDL(d) {
		out["100_"+name] = sql
	}

	sorted := append([]Entity(nil), entities...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	seen := map[string]string{}
	for _, e := range sorted {
		table := EntityTableName(e.Name)
		if prev, dup := seen[table]; dup {
			return nil, fmt.Errorf("entities %q and %q map to the same table %q", prev, e.Name, table)
		}
		seen[table] = e.Name

		stmts, err := EntityDDL(d, e, enums)
		if err != nil {
			return nil, err
		}
		for i, s := range stmts {
			out[fmt.Sprintf("300_%s_%03d", table, i)] = s
		}
	}
	return out, nil
}
