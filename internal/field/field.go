package field

import (
	"maps"
	"sort"
	"sync"
)

// Field — глобально идентифицируемое типизированное поле. Идентичность — ID.
type Field struct {
	ID             int64               `json:"id"`
	Name           string              `json:"name"`
	Type           FieldType           `json:"type"`
	Description    string              `json:"description,omitempty"`
	AlternateCodes map[string]string   `json:"alternateCodes,omitempty"`
	Tags           map[string]struct{} `json:"-"`
	MaxLength      int                 `json:"maxLength,omitempty"` // 0 = по умолчанию диалекта
}

// Equal сравнивает поля структурно; nil и пустые map считаются равными.
func (f Field) Equal(o Field) bool {
	if f.ID != o.ID || f.Name != o.Name || f.Type != o.Type ||
		f.Description != o.Description || f.MaxLength != o.MaxLength {
		return false
	}
	if len(f.AlternateCodes) != len(o.AlternateCodes) || len(f.Tags) != len(o.Tags) {
		return false
	}
	for k, v := range f.AlternateCodes {
		if ov, ok := o.AlternateCodes[k]; !ok || ov != v {
			return false
		}
	}
	for k := range f.Tags {
		if _, ok := o.Tags[k]; !ok {
			return false
		}
	}
	return true
}

// clone отвязывает map'ы от вызывающего: реестр хранит и отдаёт только копии.
func (f Field) clone() Field {
	f.AlternateCodes = maps.Clone(f.AlternateCodes)
	f.Tags = maps.Clone(f.Tags)
	return f
}

// TagList отдаёт теги отсортированными (для meta/json).
func (f Field) TagList() []string {
	out := make([]string, 0, len(f.Tags))
	for t := range f.Tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Tags собирает set из списка.
func Tags(names ...string) map[string]struct{} {
	if len(names) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out
}

// Registry — справочник полей процесса. Один экземпляр создаётся при старте и
// передаётся потребителям; Reset нужен тестам.
type Registry struct {
	mu     sync.RWMutex
	fields map[int64]Field
}

func NewRegistry() *Registry {
	return &Registry{fields: make(map[int64]Field)}
}

// Register идемпотентен для равных определений; разные определения под одним id —
// *FieldConflictError, исходное определение остаётся.
func (r *Registry) Register(f Field) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.fields[f.ID]; ok {
		if existing.Equal(f) {
			return existing.ID, nil
		}
		return 0, &FieldConflictError{ID: f.ID, Existing: existing, Incoming: f}
	}
	r.fields[f.ID] = f.clone()
	return f.ID, nil
}

func (r *Registry) Lookup(id int64) (Field, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.fields[id]
	return f.clone(), ok
}

// All возвращает снимок, отсортированный по id.
func (r *Registry) All() []Field {
	r.mu.RLock()
	out := make([]Field, 0, len(r.fields))
	for _, f := range r.fields {
		out = append(out, f.clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.fields)
}

func (r *Registry) Reset() {
	r.mu.Lock()
	r.fields = make(map[int64]Field)
	r.mu.Unlock()
}
