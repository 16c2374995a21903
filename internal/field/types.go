package field

import (
	"fmt"
	"strings"
)

// FieldType — закрытый набор типов полей. Роутер в schema обязан покрывать его целиком.
type FieldType int

const (
	TypeString FieldType = iota
	TypeInt
	TypeLong
	TypeFloat
	TypeDouble
	TypeBoolean
	TypeEnum
	TypeDate
	TypeDateTime
	TypeZonedDateTime
	TypeTime
	TypeDuration
	TypePeriod
	TypeYearMonth
	TypeMonthDay
	TypeBlob
	TypeEntity

	// коллекции
	TypeStringCollection
	TypeIntCollection
	TypeLongCollection
	TypeFloatCollection
	TypeDoubleCollection
	TypeBooleanCollection
	TypeEnumCollection
	TypeDateCollection
	TypeDateTimeCollection
	TypeZonedDateTimeCollection
	TypeTimeCollection
	TypeDurationCollection
	TypePeriodCollection
	TypeYearMonthCollection
	TypeMonthDayCollection
	TypeEntityCollection

	// TypeCount — количество вариантов, не тип.
	TypeCount
)

var typeNames = [TypeCount]string{
	TypeString:        "string",
	TypeInt:           "int",
	TypeLong:          "long",
	TypeFloat:         "float",
	TypeDouble:        "double",
	TypeBoolean:       "bool",
	TypeEnum:          "enum",
	TypeDate:          "date",
	TypeDateTime:      "datetime",
	TypeZonedDateTime: "zoned_datetime",
	TypeTime:          "time",
	TypeDuration:      "duration",
	TypePeriod:        "period",
	TypeYearMonth:     "year_month",
	TypeMonthDay:      "month_day",
	TypeBlob:          "blob",
	TypeEntity:        "entity",

	TypeStringCollection:        "array[string]",
	TypeIntCollection:           "array[int]",
	TypeLongCollection:          "array[long]",
	TypeFloatCollection:         "array[float]",
	TypeDoubleCollection:        "array[double]",
	TypeBooleanCollection:       "array[bool]",
	TypeEnumCollection:          "array[enum]",
	TypeDateCollection:          "array[date]",
	TypeDateTimeCollection:      "array[datetime]",
	TypeZonedDateTimeCollection: "array[zoned_datetime]",
	TypeTimeCollection:          "array[time]",
	TypeDurationCollection:      "array[duration]",
	TypePeriodCollection:        "array[period]",
	TypeYearMonthCollection:     "array[year_month]",
	TypeMonthDayCollection:      "array[month_day]",
	TypeEntityCollection:        "array[entity]",
}

// scalar -> его коллекция (у blob коллекции нет)
var collectionOf = map[FieldType]FieldType{
	TypeString:        TypeStringCollection,
	TypeInt:           TypeIntCollection,
	TypeLong:          TypeLongCollection,
	TypeFloat:         TypeFloatCollection,
	TypeDouble:        TypeDoubleCollection,
	TypeBoolean:       TypeBooleanCollection,
	TypeEnum:          TypeEnumCollection,
	TypeDate:          TypeDateCollection,
	TypeDateTime:      TypeDateTimeCollection,
	TypeZonedDateTime: TypeZonedDateTimeCollection,
	TypeTime:          TypeTimeCollection,
	TypeDuration:      TypeDurationCollection,
	TypePeriod:        TypePeriodCollection,
	TypeYearMonth:     TypeYearMonthCollection,
	TypeMonthDay:      TypeMonthDayCollection,
	TypeEntity:        TypeEntityCollection,
}

func (t FieldType) Valid() bool { return t >= 0 && t < TypeCount }

func (t FieldType) String() string {
	if !t.Valid() {
		return "unknown"
	}
	return typeNames[t]
}

func (t FieldType) IsCollection() bool {
	return t >= TypeStringCollection && t < TypeCount
}

// CollectionOf возвращает коллекционный вариант скалярного типа.
func CollectionOf(t FieldType) (FieldType, bool) {
	c, ok := collectionOf[t]
	return c, ok
}

// ParseType понимает имена вида "int", "datetime", "array[string]" (регистр не важен).
func ParseType(s string) (FieldType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "boolean":
		s = "bool"
	case "integer":
		s = "int"
	}
	for i, n := range typeNames {
		if n == s {
			return FieldType(i), true
		}
	}
	return 0, false
}

func (t FieldType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid field type %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *FieldType) UnmarshalText(b []byte) error {
	v, ok := ParseType(string(b))
	if !ok {
		return fmt.Errorf("unknown field type %q", string(b))
	}
	*t = v
	return nil
}
