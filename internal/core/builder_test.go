package core

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

type probeRow struct {
	ID        string
	CreatedBy string `db:"author"`
	Ignored   string `db:"-"`
}

func TestBuild_WithAllClauses(t *testing.T) {
	qb := NewQueryBuilder[any](nil).
		From("test").
		Select("id", "author").
		Where("active = ?", true).
		Join("JOIN runs ON runs.test_id = test.id").
		OrderBy("created_at DESC").
		Limit(10).
		Offset(5)

	sql, args := qb.Build()
	require.Equal(t,
		"SELECT id, author FROM test JOIN runs ON runs.test_id = test.id WHERE active = ? ORDER BY created_at DESC LIMIT 10 OFFSET 5",
		sql,
	)
	require.Equal(t, []interface{}{true}, args)
}

func TestBuild_Defaults(t *testing.T) {
	qb := NewQueryBuilder[any](nil).
		From("test")

	sql, args := qb.Build()
	require.Equal(t, "SELECT * FROM test", sql)
	require.Empty(t, args)
}

func TestCount(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM t WHERE x > \?`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	qb := NewQueryBuilder[any](db).
		From("t").
		Where("x > ?", 5)

	count, err := qb.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(3), count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAll_ScansMappedColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// "extra" has no field and must be discarded.
	mock.ExpectQuery(`SELECT id, author FROM test`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "author", "extra"}).
			AddRow("a", "alice", 1).
			AddRow("b", "bob", 2))

	items, err := NewQueryBuilder[probeRow](db).
		From("test").
		Select("id", "author").
		All(context.Background())
	require.NoError(t, err)
	require.Equal(t, []probeRow{{ID: "a", CreatedBy: "alice"}, {ID: "b", CreatedBy: "bob"}}, items)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAll_PropagatesQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("connection refused")
	mock.ExpectQuery(`SELECT \* FROM test`).WillReturnError(boom)

	_, err = NewQueryBuilder[probeRow](db).From("test").All(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestAll_RejectsNonStruct(t *testing.T) {
	_, err := NewQueryBuilder[int](nil).From("test").All(context.Background())
	require.Error(t, err)
}

func TestOne_NoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT \* FROM test LIMIT 1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = NewQueryBuilder[probeRow](db).From("test").One(context.Background())
	require.ErrorIs(t, err, sql.ErrNoRows)
}
