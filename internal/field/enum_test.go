package field

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var color = Field{ID: 20, Name: "color", Type: TypeEnumCollection}

func TestBind_FirstWins(t *testing.T) {
	r := NewEnumRegistry()
	assert.True(t, r.Bind(color, Values("RED", "GREEN", "BLUE")...))
	assert.False(t, r.Bind(color, Values("CYAN")...))

	fe, err := r.Get(color.ID)
	require.NoError(t, err)
	assert.Equal(t, []EnumValue{{0, "RED"}, {1, "GREEN"}, {2, "BLUE"}}, fe.Values)
}

func TestBind_KeepsDeclarationOrder(t *testing.T) {
	r := NewEnumRegistry()
	r.Bind(color, EnumValue{Ordinal: 5, Name: "Z"}, EnumValue{Ordinal: 1, Name: "A"})

	fe, err := r.Get(color.ID)
	require.NoError(t, err)
	assert.Equal(t, "Z", fe.Values[0].Name)
	assert.Equal(t, "A", fe.Values[1].Name)
}

func TestValueOf(t *testing.T) {
	r := NewEnumRegistry()
	r.Bind(color, Values("RED", "GREEN", "BLUE")...)

	v, ok := r.ValueOf(color, 1)
	require.True(t, ok)
	assert.Equal(t, "GREEN", v.Name)

	v, ok = r.ValueOfName(color, "BLUE")
	require.True(t, ok)
	assert.Equal(t, 2, v.Ordinal)

	_, ok = r.ValueOf(color, 9)
	assert.False(t, ok)
	_, ok = r.ValueOfName(color, "blue")
	assert.False(t, ok)
}

func TestUnbound(t *testing.T) {
	r := NewEnumRegistry()
	orphan := Field{ID: 99, Name: "orphan", Type: TypeEnum}

	_, err := r.Get(orphan.ID)
	var unbound *UnboundFieldError
	require.True(t, errors.As(err, &unbound))
	assert.Equal(t, int64(99), unbound.ID)

	_, ok := r.ValueOf(orphan, 0)
	assert.False(t, ok)
	_, ok = r.ValueOfName(orphan, "X")
	assert.False(t, ok)
}

func TestFindAll(t *testing.T) {
	r := NewEnumRegistry()
	a := Field{ID: 1, Name: "a", Type: TypeEnum}
	b := Field{ID: 2, Name: "b", Type: TypeEnum}
	c := Field{ID: 3, Name: "c", Type: TypeEnum}
	r.Bind(a, Values("X")...)
	r.Bind(b, Values("Y")...)
	r.Bind(c, Values("Z")...)

	got := r.FindAll(3, 1, 42, 1)
	ids := make([]int64, 0, len(got))
	for _, fe := range got {
		ids = append(ids, fe.Field.ID)
	}
	assert.ElementsMatch(t, []int64{1, 3}, ids)

	r.Reset()
	assert.Empty(t, r.FindAll(1, 2, 3))
}

func TestEnumRegistry_ReturnsCopies(t *testing.T) {
	r := NewEnumRegistry()
	color := Field{ID: 1, Name: "color", Type: TypeEnum}
	vals := Values("RED", "GREEN")
	r.Bind(color, vals...)
	vals[0].Name = "CHANGED"

	fe, err := r.Get(1)
	require.NoError(t, err)
	fe.Values[0].Name = "PURPLE"
	r.FindAll(1)[0].Values[1].Name = "PURPLE"

	v, ok := r.ValueOf(color, 0)
	require.True(t, ok)
	assert.Equal(t, "RED", v.Name)
	v, _ = r.ValueOf(color, 1)
	assert.Equal(t, "GREEN", v.Name)
}
