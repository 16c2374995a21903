package reference

import "jds/internal/field"

// EnumDirectory описывает один справочник типа enum
type EnumDirectory struct {
	Name  string     `yaml:"name" json:"name"`
	Items []EnumItem `yaml:"items" json:"items"`
}

type EnumItem struct {
	Code string `yaml:"code" json:"code"`
	Name string `yaml:"name" json:"name"`
	// Ordinal — явный ординал; без него берётся позиция в файле
	Ordinal *int `yaml:"ordinal,omitempty" json:"ordinal,omitempty"`
}

// Values — значения enum в порядке объявления; имя значения = Code.
func (d EnumDirectory) Values() []field.EnumValue {
	out := make([]field.EnumValue, 0, len(d.Items))
	for i, it := range d.Items {
		ord := i
		if it.Ordinal != nil {
			ord = *it.Ordinal
		}
		out = append(out, field.EnumValue{Ordinal: ord, Name: it.Code})
	}
	return out
}
