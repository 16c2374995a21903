package dictionary

import (
	"context"
	"sort"
	"sync"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"jds/internal/pg"
	"jds/internal/schema"
)

// Binding — поле и имя свойства, под которым оно живёт в типе сущности.
type Binding struct {
	FieldID  int64  `json:"fieldId"`
	Property string `json:"property"`
}

type phase int

const (
	phaseNone phase = iota
	phaseInitializing
	phaseSealed
)

// Dictionary копит привязки (entity, field, property) в памяти и по запросу
// пишет их в jds_ref_entity_field_dictionary.
type Dictionary struct {
	mu     sync.RWMutex
	phases map[int64]phase
	pairs  map[int64]map[Binding]struct{}
	log    *zap.SugaredLogger
}

func New(log *zap.SugaredLogger) *Dictionary {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Dictionary{
		phases: make(map[int64]phase),
		pairs:  make(map[int64]map[Binding]struct{}),
		log:    log,
	}
}

// Begin открывает окно инициализации типа. Окно одноразовое: повторный Begin
// (в том числе после Seal) ничего не делает и возвращает false.
func (d *Dictionary) Begin(entityTypeID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.phases[entityTypeID] != phaseNone {
		return false
	}
	d.phases[entityTypeID] = phaseInitializing
	return true
}

// Seal закрывает окно навсегда.
func (d *Dictionary) Seal(entityTypeID int64) {
	d.mu.Lock()
	d.phases[entityTypeID] = phaseSealed
	d.mu.Unlock()
}

func (d *Dictionary) Initializing(entityTypeID int64) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.phases[entityTypeID] == phaseInitializing
}

// RecordField запоминает привязку, только пока окно типа открыто.
func (d *Dictionary) RecordField(entityTypeID, fieldID int64, property string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.phases[entityTypeID] != phaseInitializing {
		return
	}
	set := d.pairs[entityTypeID]
	if set == nil {
		set = make(map[Binding]struct{})
		d.pairs[entityTypeID] = set
	}
	set[Binding{FieldID: fieldID, Property: property}] = struct{}{}
}

// Pairs возвращает снимок привязок, отсортированный по (field id, property).
func (d *Dictionary) Pairs(entityTypeID int64) []Binding {
	d.mu.RLock()
	out := make([]Binding, 0, len(d.pairs[entityTypeID]))
	for b := range d.pairs[entityTypeID] {
		out = append(out, b)
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].FieldID != out[j].FieldID {
			return out[i].FieldID < out[j].FieldID
		}
		return out[i].Property < out[j].Property
	})
	return out
}

// Flush пишет все привязки типа одним INSERT ... ON CONFLICT DO NOTHING.
// Память не очищается, вызов повторяем.
func (d *Dictionary) Flush(ctx context.Context, dialect schema.Dialect, db pg.Execer, entityTypeID int64) error {
	pairs := d.Pairs(entityTypeID)
	if len(pairs) == 0 {
		return nil
	}

	cols := []string{"entity_id", "field_id", "property_name"}
	ins := sq.Insert(schema.DictionaryTable).Columns(cols...)
	for _, b := range pairs {
		ins = ins.Values(entityTypeID, b.FieldID, b.Property)
	}

	// строка целиком и есть ключ: уже записанные привязки пропускаются
	query, args, err := ins.
		Suffix(dialect.UpsertSuffix(cols, nil)).
		PlaceholderFormat(dialect.Placeholder()).
		ToSql()
	if err != nil {
		return &pg.StorageError{Op: "build dictionary upsert", Err: err}
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return &pg.StorageError{Op: "flush dictionary", Err: err}
	}
	d.log.Debugw("dictionary flushed", "entity", entityTypeID, "rows", len(pairs))
	return nil
}
