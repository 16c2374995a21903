package api

import (
	"fmt"
	"strings"

	"jds/internal/field"
	"jds/internal/schema"
)

type SchemaIssue struct {
	Entity  string `json:"entity"`
	Field   string `json:"field,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SchemaLint ищет то, что не мешает старту, но скорее всего ошибка в DSL.
func (s *Server) SchemaLint() []SchemaIssue {
	var issues []SchemaIssue
	tables := map[string]string{}

	for _, e := range s.Catalog.Entities() {
		table := schema.EntityTableName(e.Name)
		if prev, dup := tables[table]; dup {
			issues = append(issues, SchemaIssue{
				Entity:  e.Name,
				Code:    "table_clash",
				Message: fmt.Sprintf("table %q is already used by %s", table, prev),
			})
		}
		tables[table] = e.Name
		if strings.HasPrefix(table, "e_") && !strings.HasPrefix(strings.ToLower(e.Name), "e_") {
			issues = append(issues, SchemaIssue{
				Entity:  e.Name,
				Code:    "table_renamed",
				Message: fmt.Sprintf("plural name is a reserved word, table is %q", table),
			})
		}

		// поле под несколькими свойствами: одна колонка на все, скорее всего опечатка в DSL
		byField := map[int64][]string{}
		for _, b := range s.Catalog.Dictionary.Pairs(e.TypeID) {
			byField[b.FieldID] = append(byField[b.FieldID], b.Property)
		}
		for _, f := range e.Fields {
			if props := byField[f.ID]; len(props) > 1 {
				issues = append(issues, SchemaIssue{
					Entity:  e.Name,
					Field:   f.Name,
					Code:    "field_multi_bound",
					Message: fmt.Sprintf("field %d is bound to properties %s", f.ID, strings.Join(props, ", ")),
				})
				delete(byField, f.ID)
			}
			if f.Type == field.TypeEnum || f.Type == field.TypeEnumCollection {
				if _, err := s.Catalog.Enums.Get(f.ID); err != nil {
					issues = append(issues, SchemaIssue{Entity: e.Name, Field: f.Name, Code: "enum_unbound", Message: err.Error()})
				}
			}
		}
	}
	return issues
}
