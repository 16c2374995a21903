package field

import (
	"slices"
	"sync"
)

// EnumValue — значение enum; Ordinal стабилен и идёт в порядке объявления.
type EnumValue struct {
	Ordinal int    `json:"ordinal"`
	Name    string `json:"name"`
}

type FieldEnum struct {
	Field  Field       `json:"field"`
	Values []EnumValue `json:"values"`
}

func (fe FieldEnum) clone() FieldEnum {
	return FieldEnum{Field: fe.Field.clone(), Values: slices.Clone(fe.Values)}
}

// Values раздаёт ординалы 0..n-1 в порядке аргументов.
func Values(names ...string) []EnumValue {
	out := make([]EnumValue, len(names))
	for i, n := range names {
		out[i] = EnumValue{Ordinal: i, Name: n}
	}
	return out
}

// EnumRegistry — привязки enum'ов к полям. Первая привязка побеждает.
type EnumRegistry struct {
	mu    sync.RWMutex
	enums map[int64]FieldEnum
}

func NewEnumRegistry() *EnumRegistry {
	return &EnumRegistry{enums: make(map[int64]FieldEnum)}
}

// Bind привязывает значения к полю. Если для id уже есть привязка — ничего не делает
// и возвращает false (даже если значения отличаются).
func (r *EnumRegistry) Bind(f Field, values ...EnumValue) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.enums[f.ID]; ok {
		return false
	}
	r.enums[f.ID] = FieldEnum{Field: f.clone(), Values: slices.Clone(values)}
	return true
}

// ValueOf ищет значение по ординалу; отсутствие — не ошибка.
func (r *EnumRegistry) ValueOf(f Field, ordinal int) (EnumValue, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, v := range r.enums[f.ID].Values {
		if v.Ordinal == ordinal {
			return v, true
		}
	}
	return EnumValue{}, false
}

// ValueOfName ищет значение по точному имени.
func (r *EnumRegistry) ValueOfName(f Field, name string) (EnumValue, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, v := range r.enums[f.ID].Values {
		if v.Name == name {
			return v, true
		}
	}
	return EnumValue{}, false
}

// Get в отличие от ValueOf падает громко: *UnboundFieldError.
func (r *EnumRegistry) Get(fieldID int64) (FieldEnum, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fe, ok := r.enums[fieldID]
	if !ok {
		return FieldEnum{}, &UnboundFieldError{ID: fieldID}
	}
	return fe.clone(), nil
}

// FindAll — привязки только для запрошенных id; несвязанные id пропускаются.
func (r *EnumRegistry) FindAll(fieldIDs ...int64) []FieldEnum {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]FieldEnum, 0, len(fieldIDs))
	seen := make(map[int64]struct{}, len(fieldIDs))
	for _, id := range fieldIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if fe, ok := r.enums[id]; ok {
			out = append(out, fe.clone())
		}
	}
	return out
}

func (r *EnumRegistry) Reset() {
	r.mu.Lock()
	r.enums = make(map[int64]FieldEnum)
	r.mu.Unlock()
}
