package catalog

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jds/internal/dictionary"
	"jds/internal/dsl"
	"jds/internal/field"
	"jds/internal/pg"
	"jds/internal/reference"
)

const model = `
entity Person id=1:
  firstName: string id=10 field=first_name max=64 desc='Имя' tags=pii|search code.hl7=GIVEN index
  status:    enum[NEW, ACTIVE] id=11
  roles:     array[enum[@Roles]] id=12
  photo:     blob id=13
  nicknames: array[string] id=14

entity Customer id=2:
  firstName: string id=10 field=first_name max=64 desc='Имя' tags=search|pii code.hl7=GIVEN
  status:    enum[ACTIVE] id=11
`

func parse(t *testing.T, src string) map[string]*dsl.Entity {
	t.Helper()
	ents, err := dsl.Parse(strings.NewReader(src))
	require.NoError(t, err)
	out := map[string]*dsl.Entity{}
	for _, e := range ents {
		out[e.Name] = e
	}
	return out
}

var roles = map[string]reference.EnumDirectory{
	"Roles": {Name: "Roles", Items: []reference.EnumItem{{Code: "ADMIN"}, {Code: "USER"}}},
}

func TestLoad(t *testing.T) {
	c := New(nil)
	require.NoError(t, c.Load(parse(t, model), roles))

	f, ok := c.Fields.Lookup(10)
	require.True(t, ok)
	assert.Equal(t, "first_name", f.Name)
	assert.Equal(t, field.TypeString, f.Type)
	assert.Equal(t, 64, f.MaxLength)
	assert.Equal(t, "Имя", f.Description)
	assert.Equal(t, []string{"pii", "search"}, f.TagList())
	assert.Equal(t, map[string]string{"hl7": "GIVEN"}, f.AlternateCodes)

	rf, ok := c.Fields.Lookup(12)
	require.True(t, ok)
	assert.Equal(t, field.TypeEnumCollection, rf.Type)
	fe, err := c.Enums.Get(12)
	require.NoError(t, err)
	assert.Equal(t, field.Values("ADMIN", "USER"), fe.Values)

	// Customer загружается раньше Person: его enum и побеждает
	fe, err = c.Enums.Get(11)
	require.NoError(t, err)
	assert.Equal(t, field.Values("ACTIVE"), fe.Values)

	// словарь заполнен и окна закрыты
	assert.Equal(t, []dictionary.Binding{{FieldID: 10, Property: "firstName"}, {FieldID: 11, Property: "status"}, {FieldID: 12, Property: "roles"}, {FieldID: 13, Property: "photo"}, {FieldID: 14, Property: "nicknames"}},
		c.Dictionary.Pairs(1))
	assert.False(t, c.Dictionary.Initializing(1))
	assert.Len(t, c.Dictionary.Pairs(2), 2)

	p, ok := c.Entity("person")
	require.True(t, ok)
	assert.Equal(t, []string{"first_name"}, p.Indexed)
	assert.Len(t, c.Entities(), 2)
}

func TestLoad_Conflict(t *testing.T) {
	src := `
entity A id=1:
  x: int id=5
entity B id=2:
  x: long id=5
`
	err := New(nil).Load(parse(t, src), nil)
	var conflict *field.FieldConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, int64(5), conflict.ID)
}

func TestLoad_Errors(t *testing.T) {
	tests := map[string]string{
		"missing id":       "entity A id=1:\n  x: int\n",
		"unknown type":     "entity A id=1:\n  x: money id=1\n",
		"missing catalog":  "entity A id=1:\n  x: enum[@Nope] id=1\n",
		"empty enum":       "entity A id=1:\n  x: enum[] id=1\n",
		"blob collection":  "entity A id=1:\n  x: array[blob] id=1\n",
		"index structural": "entity A id=1:\n  x: blob id=1 index\n",
		"bad max":          "entity A id=1:\n  x: string id=1 max=abc\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, New(nil).Load(parse(t, src), nil))
		})
	}
}

func TestDDL(t *testing.T) {
	c := New(nil)
	require.NoError(t, c.Load(parse(t, model), roles))

	ddl, err := c.DDL(pg.Dialect{})
	require.NoError(t, err)
	assert.Equal(t, "ALTER TABLE persons ADD COLUMN first_name varchar(64)", ddl["300_persons_001"])
	assert.Equal(t, "ALTER TABLE persons ADD COLUMN roles_0 boolean", ddl["300_persons_002"])
	assert.Equal(t, "ALTER TABLE persons ADD COLUMN roles_1 boolean", ddl["300_persons_003"])
	assert.Equal(t, "ALTER TABLE persons ADD COLUMN status integer", ddl["300_persons_004"])
	assert.Equal(t, "CREATE INDEX persons_ix_first_name ON persons(first_name)", ddl["300_persons_005"])
	assert.Contains(t, ddl, "300_customers_000")
}

func TestRegister_SharedFieldGivesOneColumn(t *testing.T) {
	src := `
entity A id=1:
  x: string id=5 field=code
  y: string id=5 field=code index
`
	c := New(nil)
	require.NoError(t, c.Load(parse(t, src), nil))

	e, ok := c.Entity("a")
	require.True(t, ok)
	assert.Len(t, e.Fields, 1)
	assert.Equal(t, []string{"code"}, e.Indexed)
	assert.Len(t, c.Dictionary.Pairs(1), 2)

	_, err := c.Register(parse(t, src)["A"], nil)
	assert.Error(t, err, "entity registered twice")
}

func TestRegister_ReusedTypeID(t *testing.T) {
	src := `
entity A id=1:
  x: int id=5
entity B id=1:
  y: int id=6
`
	c := New(nil)
	err := c.Load(parse(t, src), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reuses type id 1")

	// B не зарегистрирован ни в каком виде
	_, ok := c.Fields.Lookup(6)
	assert.False(t, ok)
	assert.Equal(t, []dictionary.Binding{{FieldID: 5, Property: "x"}}, c.Dictionary.Pairs(1))
}

func TestRegister_WindowAlreadyUsed(t *testing.T) {
	c := New(nil)
	c.Dictionary.Begin(3)
	c.Dictionary.Seal(3)

	err := c.Load(parse(t, "entity A id=3:\n  x: int id=5\n"), nil)
	require.Error(t, err)
	_, ok := c.Fields.Lookup(5)
	assert.False(t, ok)
	_, ok = c.Entity("A")
	assert.False(t, ok)
}

func TestRegister_FailureLeavesNoTrace(t *testing.T) {
	src := `
entity A id=1:
  x: int id=5
  s: enum[X] id=6
  y: money id=7
`
	c := New(nil)
	require.Error(t, c.Load(parse(t, src), nil))
	assert.Zero(t, c.Fields.Len())
	_, err := c.Enums.Get(6)
	assert.Error(t, err)
	assert.False(t, c.Dictionary.Initializing(1))

	// после исправления DSL тот же тип регистрируется
	fixed := "entity A id=1:\n  x: int id=5\n  s: enum[X] id=6\n"
	require.NoError(t, c.Load(parse(t, fixed), nil))
	assert.Len(t, c.Dictionary.Pairs(1), 2)
}

func TestRegister_ConflictWithinEntity(t *testing.T) {
	src := "entity A id=1:\n  x: int id=5\n  y: long id=5\n"
	c := New(nil)
	var conflict *field.FieldConflictError
	require.ErrorAs(t, c.Load(parse(t, src), nil), &conflict)
	assert.Zero(t, c.Fields.Len())
}
