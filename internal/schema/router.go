package schema

import (
	"errors"
	"fmt"

	"jds/internal/field"
)

// TableComponent — одна из канонических EAV-таблиц хранения.
type TableComponent struct {
	Name  string `json:"name"`
	Alias string `json:"alias"`
}

var (
	StoreText          = TableComponent{"jds_store_text", "st"}
	StoreInteger       = TableComponent{"jds_store_integer", "si"}
	StoreLong          = TableComponent{"jds_store_long", "sl"}
	StoreFloat         = TableComponent{"jds_store_float", "sf"}
	StoreDouble        = TableComponent{"jds_store_double", "sdo"}
	StoreBoolean       = TableComponent{"jds_store_boolean", "sb"}
	StoreDateTime      = TableComponent{"jds_store_date_time", "sdt"}
	StoreZonedDateTime = TableComponent{"jds_store_zoned_date_time", "szdt"}
	StoreTime          = TableComponent{"jds_store_time", "stm"}
	StoreDate          = TableComponent{"jds_store_date", "sda"}
	StoreBlob          = TableComponent{"jds_store_blob", "sbl"}
)

// все таблицы хранения в стабильном порядке
var Components = []TableComponent{
	StoreText, StoreInteger, StoreLong, StoreFloat, StoreDouble, StoreBoolean,
	StoreDateTime, StoreZonedDateTime, StoreTime, StoreDate, StoreBlob,
}

// ErrUnroutable — тип вне закрытого набора field.FieldType.
var ErrUnroutable = errors.New("field type has no storage route")

var routes = [...]TableComponent{
	field.TypeString:        StoreText,
	field.TypeInt:           StoreInteger,
	field.TypeLong:          StoreLong,
	field.TypeFloat:         StoreFloat,
	field.TypeDouble:        StoreDouble,
	field.TypeBoolean:       StoreBoolean,
	field.TypeEnum:          StoreInteger, // ординал
	field.TypeDate:          StoreDate,
	field.TypeDateTime:      StoreDateTime,
	field.TypeZonedDateTime: StoreZonedDateTime,
	field.TypeTime:          StoreTime,
	field.TypeDuration:      StoreLong, // наносекунды
	field.TypePeriod:        StoreText, // ISO-8601, P1Y2M3D
	field.TypeYearMonth:     StoreText,
	field.TypeMonthDay:      StoreText,
	field.TypeBlob:          StoreBlob,
	field.TypeEntity:        StoreText, // composite key ссылки

	field.TypeStringCollection:        StoreText,
	field.TypeIntCollection:           StoreInteger,
	field.TypeLongCollection:          StoreLong,
	field.TypeFloatCollection:         StoreFloat,
	field.TypeDoubleCollection:        StoreDouble,
	field.TypeBooleanCollection:       StoreBoolean,
	field.TypeEnumCollection:          StoreInteger,
	field.TypeDateCollection:          StoreDate,
	field.TypeDateTimeCollection:      StoreDateTime,
	field.TypeZonedDateTimeCollection: StoreZonedDateTime,
	field.TypeTimeCollection:          StoreTime,
	field.TypeDurationCollection:      StoreLong,
	field.TypePeriodCollection:        StoreText,
	field.TypeYearMonthCollection:     StoreText,
	field.TypeMonthDayCollection:      StoreText,
	field.TypeEntityCollection:        StoreText,
}

// длина таблицы должна совпадать с числом типов: иначе не скомпилируется
var _ [len(routes) - int(field.TypeCount)]struct{}
var _ [int(field.TypeCount) - len(routes)]struct{}

func init() {
	// пропуск в середине таблицы компилятор не ловит
	for i, c := range routes {
		if c.Name == "" {
			panic(fmt.Sprintf("schema: no storage route for %s", field.FieldType(i)))
		}
	}
}

func Classify(t field.FieldType) (TableComponent, error) {
	if !t.Valid() {
		return TableComponent{}, fmt.Errorf("%w: %d", ErrUnroutable, int(t))
	}
	return routes[t], nil
}

func TableName(t field.FieldType) (string, error) {
	c, err := Classify(t)
	return c.Name, err
}

func TableAlias(t field.FieldType) (string, error) {
	c, err := Classify(t)
	return c.Alias, err
}

// Structural — значения живут только в сателлитных таблицах, колонки нет.
// EnumCollection сюда не входит: он разворачивается в булевы колонки.
func Structural(t field.FieldType) bool {
	switch t {
	case field.TypeBlob, field.TypeEntity, field.TypeEntityCollection:
		return true
	case field.TypeEnumCollection:
		return false
	}
	return t.IsCollection()
}
