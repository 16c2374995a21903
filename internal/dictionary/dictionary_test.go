package dictionary

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jds/internal/pg"
)

const upsertRe = `^INSERT INTO jds_ref_entity_field_dictionary \(entity_id,field_id,property_name\) VALUES .* ` +
	`ON CONFLICT \(entity_id, field_id, property_name\) DO NOTHING$`

func TestRecordField_OnlyWhileInitializing(t *testing.T) {
	d := New(nil)

	d.RecordField(1, 10, "before")
	assert.Empty(t, d.Pairs(1))

	assert.True(t, d.Begin(1))
	assert.True(t, d.Initializing(1))
	d.RecordField(1, 11, "name")
	d.RecordField(1, 11, "name") // set
	d.RecordField(1, 10, "age")
	d.Seal(1)
	assert.False(t, d.Initializing(1))

	d.RecordField(1, 12, "after")
	assert.Equal(t, []Binding{{10, "age"}, {11, "name"}}, d.Pairs(1))

	// окно одноразовое
	assert.False(t, d.Begin(1))
	d.RecordField(1, 13, "again")
	assert.Len(t, d.Pairs(1), 2)
}

func TestRecordField_PerEntityType(t *testing.T) {
	d := New(nil)
	d.Begin(1)
	d.Begin(2)
	d.RecordField(1, 10, "a")
	d.RecordField(2, 20, "b")
	d.Seal(1)
	d.RecordField(2, 21, "c")

	assert.Len(t, d.Pairs(1), 1)
	assert.Len(t, d.Pairs(2), 2)
}

func TestFlush(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	d := New(nil)
	d.Begin(7)
	d.RecordField(7, 2, "lastName")
	d.RecordField(7, 1, "firstName")
	d.Seal(7)

	for i := 0; i < 2; i++ {
		mock.ExpectExec(upsertRe).
			WithArgs(int64(7), int64(1), "firstName", int64(7), int64(2), "lastName").
			WillReturnResult(sqlmock.NewResult(0, 2))
	}

	require.NoError(t, d.Flush(context.Background(), pg.Dialect{}, db, 7))
	// память не очищается
	require.NoError(t, d.Flush(context.Background(), pg.Dialect{}, db, 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFlush_FieldUnderSeveralProperties(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	d := New(nil)
	d.Begin(7)
	d.RecordField(7, 1, "b")
	d.RecordField(7, 1, "a")
	d.Seal(7)

	mock.ExpectExec(upsertRe).
		WithArgs(int64(7), int64(1), "a", int64(7), int64(1), "b").
		WillReturnResult(sqlmock.NewResult(0, 2))
	require.NoError(t, d.Flush(context.Background(), pg.Dialect{}, db, 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFlush_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, New(nil).Flush(context.Background(), pg.Dialect{}, db, 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFlush_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	d := New(nil)
	d.Begin(7)
	d.RecordField(7, 1, "a")

	mock.ExpectExec(upsertRe).WillReturnError(errors.New("relation does not exist"))
	err = d.Flush(context.Background(), pg.Dialect{}, db, 7)
	var se *pg.StorageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "flush dictionary", se.Op)
}
