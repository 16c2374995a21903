package dsl

// Entity описывает тип сущности из DSL
type Entity struct {
	Name   string
	TypeID int64 // id=... в заголовке
	Fields []Field
}

// Field описывает свойство сущности
type Field struct {
	Property string            // имя свойства в сущности
	Type     string            // string, int, enum, array, ...
	ElemType string            // тип элемента для array[...]
	Enum     []string          // значения enum[...] в порядке объявления
	Catalog  string            // enum[@Name] — значения из YAML-справочника
	Options  map[string]string // id, field, max, desc, tags, code.*, index
}
