package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFrom_EmptyRows(t *testing.T) {
	n, err := CopyFrom(context.TODO(), nil, "locations", []string{"id", "name"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFrom_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"locations"}, []string{"id", "name"}).WillReturnResult(2)

	rows := [][]any{{"in", "India"}, {"mh", "Maharashtra"}}
	n, err := CopyFrom(context.Background(), mock, "locations", []string{"id", "name"}, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"locations"}, []string{"id"}).WillReturnError(fmt.Errorf("copy failed"))

	_, err = CopyFrom(context.Background(), mock, "locations", []string{"id"}, [][]any{{"in"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO locations")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceTables_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`TRUNCATE "locations", "metric_records"`).WillReturnResult(pgxmock.NewResult("TRUNCATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"locations"}, []string{"id"}).WillReturnResult(1)
	mock.ExpectCopyFrom(pgx.Identifier{"metric_records"}, []string{"location_id"}).WillReturnResult(2)
	mock.ExpectCommit()

	n, err := ReplaceTables(context.Background(), mock, []TableLoad{
		{Table: "locations", Columns: []string{"id"}, Rows: [][]any{{"in"}}},
		{Table: "metric_records", Columns: []string{"location_id"}, Rows: [][]any{{"in"}, {"in"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceTables_CopyErrorRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`TRUNCATE`).WillReturnResult(pgxmock.NewResult("TRUNCATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"locations"}, []string{"id"}).WillReturnError(fmt.Errorf("disk full"))
	mock.ExpectRollback()

	_, err = ReplaceTables(context.Background(), mock, []TableLoad{
		{Table: "locations", Columns: []string{"id"}, Rows: [][]any{{"in"}}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO locations")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceTables_Empty(t *testing.T) {
	n, err := ReplaceTables(context.Background(), nil, nil)
	assert.NoError(t, err)
	assert.Zero(t, n)
}
