package pg

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jds/internal/overview"
)

const deleteQuery = "DELETE FROM jds_entity_overview WHERE id = $1"

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestDelete_CommitsWholeBatch(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectPrepare(deleteQuery)
	for _, id := range []string{"u1", "u2", "u3"} {
		mock.ExpectExec(deleteQuery).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	err := NewDeleter(db, Dialect{}, nil).Delete(context.Background(), "u1", "u2", "u3")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_FailureRollsBack(t *testing.T) {
	db, mock := newMock(t)
	boom := errors.New("violates foreign key constraint")

	mock.ExpectBegin()
	mock.ExpectPrepare(deleteQuery)
	mock.ExpectExec(deleteQuery).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(deleteQuery).WithArgs("u2").WillReturnError(boom)
	mock.ExpectRollback()

	err := NewDeleter(db, Dialect{}, nil).Delete(context.Background(), "u1", "u2", "u3")
	var se *StorageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, []string{"u1", "u2", "u3"}, se.IDs)
	assert.Equal(t, "delete", se.Op)
	assert.True(t, errors.Is(err, boom))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_CommitFailure(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectPrepare(deleteQuery)
	mock.ExpectExec(deleteQuery).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

	err := NewDeleter(db, Dialect{}, nil).Delete(context.Background(), "u1")
	var se *StorageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "commit", se.Op)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_PrepareFailure(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectPrepare(deleteQuery).WillReturnError(errors.New("relation does not exist"))
	mock.ExpectRollback()

	err := NewDeleter(db, Dialect{}, nil).Delete(context.Background(), "u1")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_Empty(t *testing.T) {
	db, mock := newMock(t)
	require.NoError(t, NewDeleter(db, Dialect{}, nil).Delete(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

type plainEntity struct{ rec *overview.Record }

func (e plainEntity) Overview() *overview.Record { return e.rec }

type hookedEntity struct {
	plainEntity
	called *int
	err    error
}

func (e hookedEntity) OnDelete(ctx context.Context, conn *sql.Conn) error {
	if conn == nil {
		return errors.New("no connection")
	}
	*e.called++
	return e.err
}

func TestDeleteEntities_RunsHooksThenBatch(t *testing.T) {
	db, mock := newMock(t)
	calls := 0
	a := hookedEntity{plainEntity: plainEntity{&overview.Record{UUID: "a"}}, called: &calls}
	b := plainEntity{&overview.Record{UUID: "b"}}
	c := hookedEntity{plainEntity: plainEntity{&overview.Record{UUID: "c"}}, called: &calls}

	mock.ExpectBegin()
	mock.ExpectPrepare(deleteQuery)
	for _, id := range []string{"a", "b", "c"} {
		mock.ExpectExec(deleteQuery).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	err := NewDeleter(db, Dialect{}, nil).DeleteEntities(context.Background(), a, b, c)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteEntities_HookFailureAborts(t *testing.T) {
	db, mock := newMock(t)
	calls := 0
	hookErr := errors.New("listener refused")
	a := hookedEntity{plainEntity: plainEntity{&overview.Record{UUID: "a"}}, called: &calls, err: hookErr}

	err := NewDeleter(db, Dialect{}, nil).DeleteEntities(context.Background(), a)
	var se *StorageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "pre-delete hook", se.Op)
	assert.True(t, errors.Is(err, hookErr))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_ErrorKeepsOwnIDs(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin().WillReturnError(errors.New("no tx"))

	ids := []string{"u1", "u2"}
	err := NewDeleter(db, Dialect{}, nil).Delete(context.Background(), ids...)
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "begin", se.Op)

	ids[0] = "changed"
	assert.Equal(t, []string{"u1", "u2"}, se.IDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteEntities_MissingOverview(t *testing.T) {
	db, mock := newMock(t)
	calls := 0
	a := hookedEntity{plainEntity: plainEntity{&overview.Record{UUID: "a"}}, called: &calls}

	for name, bad := range map[string]Deletable{
		"nil record": plainEntity{},
		"nil entity": nil,
	} {
		t.Run(name, func(t *testing.T) {
			var err error
			require.NotPanics(t, func() {
				err = NewDeleter(db, Dialect{}, nil).DeleteEntities(context.Background(), a, bad)
			})
			var se *StorageError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, "collect ids", se.Op)
			assert.Equal(t, []string{"a"}, se.IDs)
			assert.ErrorIs(t, err, ErrNoOverview)
		})
	}
	// ни хуков, ни обращений к БД
	assert.Zero(t, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStorageError_Message(t *testing.T) {
	err := &StorageError{Op: "delete", IDs: []string{"u1", "u2"}, Err: errors.New("x")}
	assert.Equal(t, "delete [u1, u2]: x", err.Error())
	assert.Equal(t, "apply ddl k: x", (&StorageError{Op: "apply ddl k", Err: errors.New("x")}).Error())
}
