package api

import (
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"jds/internal/field"
	"jds/internal/schema"
)

// ===== META HANDLERS =====

type metaField struct {
	field.Field
	Tags      []string          `json:"tags,omitempty"`
	Component string            `json:"component,omitempty"` // таблица хранения
	Enum      []field.EnumValue `json:"enum,omitempty"`
}

func (s *Server) describe(f field.Field) metaField {
	m := metaField{Field: f, Tags: f.TagList()}
	if c, err := schema.Classify(f.Type); err == nil {
		m.Component = c.Name
	}
	if fe, err := s.Catalog.Enums.Get(f.ID); err == nil {
		m.Enum = fe.Values
	}
	return m
}

func (s *Server) FieldListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		all := s.Catalog.Fields.All()
		out := make([]metaField, 0, len(all))
		for _, f := range all {
			out = append(out, s.describe(f))
		}
		c.JSON(http.StatusOK, out)
	}
}

func fieldID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		abort(c, http.StatusBadRequest, ErrBadRequest, "field id must be a positive integer")
		return 0, false
	}
	return id, true
}

func (s *Server) FieldHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := fieldID(c)
		if !ok {
			return
		}
		f, ok := s.Catalog.Fields.Lookup(id)
		if !ok {
			abort(c, http.StatusNotFound, ErrNotFound, "Field not found")
			return
		}
		c.JSON(http.StatusOK, s.describe(f))
	}
}

func (s *Server) EnumHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := fieldID(c)
		if !ok {
			return
		}
		fe, err := s.Catalog.Enums.Get(id)
		var unbound *field.UnboundFieldError
		if errors.As(err, &unbound) {
			abort(c, http.StatusNotFound, ErrNotFound, err.Error())
			return
		}
		if err != nil {
			abort(c, http.StatusInternalServerError, ErrInternal, err.Error())
			return
		}
		c.JSON(http.StatusOK, fe)
	}
}

type metaEntityListItem struct {
	Entity string `json:"entity"`
	TypeID int64  `json:"typeId"`
	Table  string `json:"table"`
}

func (s *Server) EntityListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ents := s.Catalog.Entities()
		out := make([]metaEntityListItem, 0, len(ents))
		for _, e := range ents {
			out = append(out, metaEntityListItem{Entity: e.Name, TypeID: e.TypeID, Table: schema.EntityTableName(e.Name)})
		}
		c.JSON(http.StatusOK, out)
	}
}

type metaProperty struct {
	Property string `json:"property"`
	FieldID  int64  `json:"fieldId"`
}

type metaEntity struct {
	metaEntityListItem
	Fields     []metaField    `json:"fields"`
	Columns    []string       `json:"columns"`
	Properties []metaProperty `json:"properties"`
	Indexed    []string       `json:"indexed,omitempty"`
}

func (s *Server) EntityHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		e, ok := s.Catalog.Entity(c.Param("entity"))
		if !ok {
			abort(c, http.StatusNotFound, ErrNotFound, "Entity not found")
			return
		}
		cols, err := schema.GenerateColumns(s.Dialect, e.Fields, s.Catalog.Enums)
		if err != nil {
			abort(c, http.StatusInternalServerError, ErrInternal, err.Error())
			return
		}
		out := metaEntity{
			metaEntityListItem: metaEntityListItem{Entity: e.Name, TypeID: e.TypeID, Table: schema.EntityTableName(e.Name)},
			Fields:             make([]metaField, 0, len(e.Fields)),
			Columns:            cols.Definitions,
			Indexed:            e.Indexed,
		}
		for _, f := range e.Fields {
			out.Fields = append(out.Fields, s.describe(f))
		}
		for _, b := range s.Catalog.Dictionary.Pairs(e.TypeID) {
			out.Properties = append(out.Properties, metaProperty{Property: b.Property, FieldID: b.FieldID})
		}
		c.JSON(http.StatusOK, out)
	}
}

type ddlStatement struct {
	Key string `json:"key"`
	SQL string `json:"sql"`
}

// DDLHandler отдаёт DDL в порядке применения.
func (s *Server) DDLHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ddl, err := s.Catalog.DDL(s.Dialect)
		if err != nil {
			abort(c, http.StatusInternalServerError, ErrInternal, err.Error())
			return
		}
		keys := make([]string, 0, len(ddl))
		for k := range ddl {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]ddlStatement, 0, len(keys))
		for _, k := range keys {
			out = append(out, ddlStatement{Key: k, SQL: ddl[k]})
		}
		c.JSON(http.StatusOK, out)
	}
}

func (s *Server) LintHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		issues := s.SchemaLint()
		if issues == nil {
			issues = []SchemaIssue{}
		}
		c.JSON(http.StatusOK, issues)
	}
}
