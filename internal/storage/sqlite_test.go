package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alvmarrod/fontscan/internal/fonts"
)

func newMockStorage(t *testing.T) (*Storage, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS scan_runs").WillReturnResult(sqlmock.NewResult(0, 0))
	store, err := newWithDB(db)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return store, mock
}

func sampleReport() *fonts.Report {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	return &fonts.Report{
		Stats: fonts.Stats{
			StartURL:      "http://localhost",
			StartedAt:     now,
			FinishedAt:    now.Add(time.Minute),
			PagesFound:    2,
			PagesAnalyzed: []string{"http://localhost/"},
			PagesFailed:   []string{"http://localhost/broken"},
		},
		Used:     []fonts.Observation{{Font: "Inter", Weights: []string{"400"}}},
		Declared: []fonts.Observation{{Font: "Inter", Weights: []string{"400", "700"}}},
		Unused:   []fonts.Observation{{Font: "Inter", Weights: []string{"700"}}},
		Missing:  []string{"Roboto"},
	}
}

func TestNewWithDB_SchemaError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("disk full"))
	mock.ExpectClose()

	_, err = newWithDB(db)
	assert.ErrorContains(t, err, "failed to initialize schema")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveReport(t *testing.T) {
	store, mock := newMockStorage(t)
	r := sampleReport()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO scan_runs").
		WithArgs("http://localhost", sqlmock.AnyArg(), sqlmock.AnyArg(), 2, false).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("INSERT OR IGNORE INTO font_weights").
		WithArgs(int64(7), KindUsed, "Inter", "400").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT OR IGNORE INTO font_weights").
		WithArgs(int64(7), KindDeclared, "Inter", "400").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT OR IGNORE INTO font_weights").
		WithArgs(int64(7), KindDeclared, "Inter", "700").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT OR IGNORE INTO font_weights").
		WithArgs(int64(7), KindUnused, "Inter", "700").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT OR IGNORE INTO missing_fonts").
		WithArgs(int64(7), "Roboto").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO scanned_pages").
		WithArgs(int64(7), "http://localhost/", PageAnalyzed).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO scanned_pages").
		WithArgs(int64(7), "http://localhost/broken", PageFailed).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	runID, err := store.SaveReport(r)
	require.NoError(t, err)
	assert.Equal(t, int64(7), runID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveReport_RollsBackOnError(t *testing.T) {
	store, mock := newMockStorage(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO scan_runs").WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectExec("INSERT OR IGNORE INTO font_weights").WillReturnError(errors.New("constraint"))
	mock.ExpectRollback()

	_, err := store.SaveReport(sampleReport())
	assert.ErrorContains(t, err, "failed to insert used weight Inter/400")
	assert.NoError(t, mock.ExpectationsWereMet())
}
