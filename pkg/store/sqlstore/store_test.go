package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-instanceselect/pkg/project"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var columns = []string{"record", "event_id", "form", "instance", "field", "value"}

func TestStore_ReadBuildsPostgresQuery(t *testing.T) {
	db, mock := setupMockDB(t)
	store, err := New(db)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT record, event_id, form, instance, field, value FROM "instanceselect_data" `+
			`WHERE record IN ($1) AND event_id IN ($2, $3) AND field IN ($4) `+
			`AND record IN (SELECT record FROM "instanceselect_groups" WHERE group_id = $5) `+
			`ORDER BY record, event_id, instance, field`)).
		WithArgs("A", 10, 11, "visit_date", "north").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("A", 11, "visit", 1, "visit_date", "2024-06-01").
			AddRow("A", 10, "visit", 1, "visit_date", "2024-01-10"))

	values, err := store.Read(context.Background(), project.Query{
		Records: []string{"A"},
		Events:  []int{10, 11},
		Fields:  []string{"visit_date"},
		GroupID: "north",
	})
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, 10, values[0].EventID)
	assert.Equal(t, "2024-06-01", values[1].Value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ReadOrdersRecordsNaturally(t *testing.T) {
	db, mock := setupMockDB(t)
	store, err := New(db, WithDialect(DialectSQLite), WithTables("data", "dags"))
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT record, event_id, form, instance, field, value FROM "data" WHERE field IN (?) ORDER BY`)).
		WithArgs("record_id").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("10", 10, "enrolment", 0, "record_id", "10").
			AddRow("9", 10, "enrolment", 0, "record_id", "9").
			AddRow("B", 10, "enrolment", 0, "record_id", "B"))

	values, err := store.Read(context.Background(), project.Query{Fields: []string{"record_id"}})
	require.NoError(t, err)

	var records []string
	for _, v := range values {
		records = append(records, v.Record)
	}
	assert.Equal(t, []string{"9", "10", "B"}, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ReadPropagatesErrors(t *testing.T) {
	db, mock := setupMockDB(t)
	store, err := New(db)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("connection reset"))
	_, err = store.Read(context.Background(), project.Query{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestStore_WriteUpsertsInTransaction(t *testing.T) {
	db, mock := setupMockDB(t)
	store, err := New(db)
	require.NoError(t, err)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta(
		`INSERT INTO "instanceselect_data" (record, event_id, form, instance, field, value) VALUES ($1, $2, $3, $4, $5, $6)`))
	prep.ExpectExec().
		WithArgs("A", 10, "enrolment", 0, "linked_record", "2.B").
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WithArgs("C", 10, "enrolment", 0, "linked_visit", "follow_up_arm_1.1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = store.Write(context.Background(), []project.Value{
		{Record: "A", EventID: 10, Form: "enrolment", Field: "linked_record", Value: "2.B"},
		{Record: "C", EventID: 10, Form: "enrolment", Field: "linked_visit", Value: "follow_up_arm_1.1"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WriteRollsBackOnError(t *testing.T) {
	db, mock := setupMockDB(t)
	store, err := New(db)
	require.NoError(t, err)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO")
	prep.ExpectExec().WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err = store.Write(context.Background(), []project.Value{
		{Record: "A", EventID: 10, Field: "linked_record", Value: "2.B"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WriteValidatesValues(t *testing.T) {
	db, mock := setupMockDB(t)
	store, err := New(db)
	require.NoError(t, err)

	require.NoError(t, store.Write(context.Background(), nil))
	require.Error(t, store.Write(context.Background(), []project.Value{{EventID: 10, Field: "x"}}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)

	db, _ := setupMockDB(t)
	_, err = New(db, WithDialect("mysql"))
	require.Error(t, err)
}

func TestDialectFor(t *testing.T) {
	for driver, want := range map[string]Dialect{
		"postgres": DialectPostgres,
		"pq":       DialectPostgres,
		"sqlite3":  DialectSQLite,
		" SQLite ": DialectSQLite,
	} {
		got, err := DialectFor(driver)
		require.NoError(t, err, driver)
		assert.Equal(t, want, got, driver)
	}
	_, err := DialectFor("oracle")
	assert.Error(t, err)
}
