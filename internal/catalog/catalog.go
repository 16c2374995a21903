package catalog

import (
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"jds/internal/dictionary"
	"jds/internal/dsl"
	"jds/internal/field"
	"jds/internal/reference"
	"jds/internal/schema"
)

// Catalog связывает DSL-описания с реестрами полей/enum'ов и словарём.
type Catalog struct {
	Fields     *field.Registry
	Enums      *field.EnumRegistry
	Dictionary *dictionary.Dictionary
	log        *zap.SugaredLogger

	mu       sync.RWMutex
	entities map[string]schema.Entity
}

func New(log *zap.SugaredLogger) *Catalog {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Catalog{
		Fields:     field.NewRegistry(),
		Enums:      field.NewEnumRegistry(),
		Dictionary: dictionary.New(log),
		log:        log,
		entities:   make(map[string]schema.Entity),
	}
}

// Load регистрирует все сущности в порядке имён.
func (c *Catalog) Load(ents map[string]*dsl.Entity, enums map[string]reference.EnumDirectory) error {
	names := make([]string, 0, len(ents))
	for n := range ents {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if _, err := c.Register(ents[n], enums); err != nil {
			return err
		}
	}
	c.log.Infow("catalog loaded", "entities", len(names), "fields", c.Fields.Len())
	return nil
}

// Register регистрирует поля сущности. Привязки поле->свойство попадают в словарь
// только здесь, внутри окна инициализации типа. Сначала проверяется вся сущность,
// и только потом что-то пишется в реестры: ошибка не оставляет полу-зарегистрированный тип.
func (c *Catalog) Register(e *dsl.Entity, enums map[string]reference.EnumDirectory) (schema.Entity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dup := c.entities[strings.ToLower(e.Name)]; dup {
		return schema.Entity{}, fmt.Errorf("entity %q already registered", e.Name)
	}
	for _, prev := range c.entities {
		if prev.TypeID == e.TypeID {
			return schema.Entity{}, fmt.Errorf("entity %q reuses type id %d of %q", e.Name, e.TypeID, prev.Name)
		}
	}

	type binding struct {
		f        field.Field
		property string
		values   []field.EnumValue
	}
	var plan []binding
	out := schema.Entity{Name: e.Name, TypeID: e.TypeID}
	local := map[int64]field.Field{}
	for _, df := range e.Fields {
		fail := func(err error) (schema.Entity, error) {
			return schema.Entity{}, fmt.Errorf("%s.%s: %w", e.Name, df.Property, err)
		}
		f, err := toField(df)
		if err != nil {
			return fail(err)
		}
		existing, ok := local[f.ID]
		if !ok {
			existing, ok = c.Fields.Lookup(f.ID)
		}
		if ok && !existing.Equal(f) {
			return fail(&field.FieldConflictError{ID: f.ID, Existing: existing, Incoming: f})
		}

		b := binding{f: f, property: df.Property}
		if f.Type == field.TypeEnum || f.Type == field.TypeEnumCollection {
			if b.values, err = enumValues(df, enums); err != nil {
				return fail(err)
			}
		}
		if df.Options["index"] == "true" {
			if schema.Structural(f.Type) || f.Type == field.TypeEnumCollection {
				return fail(fmt.Errorf("%s has no single column to index", f.Type))
			}
			if !slices.Contains(out.Indexed, f.Name) {
				out.Indexed = append(out.Indexed, f.Name)
			}
		}
		// одно поле под двумя свойствами даёт одну колонку
		if _, seen := local[f.ID]; !seen {
			out.Fields = append(out.Fields, f)
			local[f.ID] = f
		}
		plan = append(plan, b)
	}

	if !c.Dictionary.Begin(e.TypeID) {
		return schema.Entity{}, fmt.Errorf("entity %q: initialization window of type %d already used", e.Name, e.TypeID)
	}
	defer c.Dictionary.Seal(e.TypeID)

	for _, b := range plan {
		if _, err := c.Fields.Register(b.f); err != nil {
			return schema.Entity{}, fmt.Errorf("%s.%s: %w", e.Name, b.property, err)
		}
		if b.values != nil {
			c.bindEnum(b.f, b.values)
		}
		c.Dictionary.RecordField(e.TypeID, b.f.ID, b.property)
	}

	c.entities[strings.ToLower(e.Name)] = out
	return out, nil
}

func enumValues(df dsl.Field, enums map[string]reference.EnumDirectory) ([]field.EnumValue, error) {
	var values []field.EnumValue
	switch {
	case df.Catalog != "":
		dir, ok := enums[df.Catalog]
		if !ok {
			return nil, fmt.Errorf("enum catalog %q not found", df.Catalog)
		}
		values = dir.Values()
	default:
		values = field.Values(df.Enum...)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("enum without values")
	}
	return values, nil
}

func (c *Catalog) bindEnum(f field.Field, values []field.EnumValue) {
	if c.Enums.Bind(f, values...) {
		return
	}
	// первая привязка побеждает; расхождение только логируем
	if fe, err := c.Enums.Get(f.ID); err == nil && !reflect.DeepEqual(fe.Values, values) {
		c.log.Warnw("enum already bound with different values, keeping first", "field", f.ID, "name", f.Name)
	}
}

// toField переводит DSL-описание в field.Field.
func toField(df dsl.Field) (field.Field, error) {
	ft, err := resolveType(df)
	if err != nil {
		return field.Field{}, err
	}
	id, err := strconv.ParseInt(df.Options["id"], 10, 64)
	if err != nil || id <= 0 {
		return field.Field{}, fmt.Errorf("id=<positive int> required")
	}
	f := field.Field{
		ID:          id,
		Name:        df.Property,
		Type:        ft,
		Description: df.Options["desc"],
	}
	if n := strings.TrimSpace(df.Options["field"]); n != "" {
		f.Name = n
	}
	if m := df.Options["max"]; m != "" {
		if f.MaxLength, err = strconv.Atoi(m); err != nil || f.MaxLength < 0 {
			return field.Field{}, fmt.Errorf("bad max=%q", m)
		}
	}
	if tags := strings.TrimSpace(df.Options["tags"]); tags != "" {
		f.Tags = field.Tags(strings.Split(tags, "|")...)
	}
	for k, v := range df.Options {
		if sys, ok := strings.CutPrefix(k, "code."); ok && sys != "" {
			if f.AlternateCodes == nil {
				f.AlternateCodes = map[string]string{}
			}
			f.AlternateCodes[sys] = v
		}
	}
	return f, nil
}

func resolveType(df dsl.Field) (field.FieldType, error) {
	if df.Type != "array" {
		ft, ok := field.ParseType(df.Type)
		if !ok || ft.IsCollection() {
			return 0, fmt.Errorf("unknown type %q", df.Type)
		}
		return ft, nil
	}
	elem, ok := field.ParseType(df.ElemType)
	if !ok {
		return 0, fmt.Errorf("unknown element type %q", df.ElemType)
	}
	ct, ok := field.CollectionOf(elem)
	if !ok {
		return 0, fmt.Errorf("no collection of %s", elem)
	}
	return ct, nil
}

func (c *Catalog) Entities() []schema.Entity {
	c.mu.RLock()
	out := make([]schema.Entity, 0, len(c.entities))
	for _, e := range c.entities {
		out = append(out, e)
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Entity ищет сущность без учёта регистра.
func (c *Catalog) Entity(name string) (schema.Entity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entities[strings.ToLower(strings.TrimSpace(name))]
	return e, ok
}

// DDL собирает полный набор операторов для pg.ApplyDDL.
func (c *Catalog) DDL(d schema.Dialect) (map[string]string, error) {
	return schema.GenerateSchema(d, c.Entities(), c.Enums)
}
