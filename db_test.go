package db_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	db "github.com/TechXTT/tormprobe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type UserRun struct {
	Id       int
	Username string
}

func TestFindMany(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	rows := sqlmock.NewRows([]string{"id", "username"}).
		AddRow(1, "TechXT")
	mock.ExpectQuery(`SELECT id, username FROM user_run`).WillReturnRows(rows)

	testDB := &db.DB{Conn: mockDB}
	runs, err := db.Model[UserRun](testDB).FindMany(context.Background())
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.Len(t, runs, 1)
	assert.Equal(t, "TechXT", runs[0].Username)
}

func TestFindMany_Repeated(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	for i := 0; i < 3; i++ {
		mock.ExpectQuery(`SELECT id, username FROM user_run`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "username"}))
	}

	delegate := db.Model[UserRun](&db.DB{Conn: mockDB})
	for i := 0; i < 3; i++ {
		runs, err := delegate.FindMany(context.Background())
		require.NoError(t, err)
		assert.Empty(t, runs)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCount(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM user_run`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := db.Model[UserRun](&db.DB{Conn: mockDB}).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}

func TestDisconnect_Once(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectClose()

	testDB := &db.DB{Conn: mockDB}
	require.NoError(t, testDB.Disconnect(context.Background()))
	require.NoError(t, testDB.Disconnect(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTableName(t *testing.T) {
	assert.Equal(t, "user_run", db.TableName[UserRun]())
}
