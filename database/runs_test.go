package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"inference-gateway/models"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jknair0/beforeeach"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	sqlDB *sql.DB
	mock  sqlmock.Sqlmock
	d     *Database
)

func setUp() {
	sqlDB, mock, _ = sqlmock.New()
	d = New(sqlDB)
}

func tearDown() {
	sqlDB.Close()
}

var it = beforeeach.Create(setUp, tearDown)

func testRecord() models.RunRecord {
	return models.RunRecord{
		ID:        "6f1c8f7e-4a43-4b55-9a5e-2f6f0d4c1a11",
		Session:   "session-1",
		Seq:       7,
		Task:      models.KindObjectDetection,
		Model:     "facebook/detr-resnet-50",
		Outcome:   models.OutcomeFailure,
		ErrorKind: models.KindProviderRejection,
		Message:   "provider_rejection (cold_start)",
		Attempts:  3,
		Duration:  1500 * time.Millisecond,
		StartedAt: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestInsertRun(t *testing.T) {
	it(func() {
		rec := testRecord()
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO inference_runs")).
			WithArgs(rec.ID, rec.Session, rec.Seq, "object-detection", rec.Model, rec.Outcome,
				"provider_rejection", rec.Message, 3, int64(1500), rec.StartedAt).
			WillReturnResult(sqlmock.NewResult(1, 1))

		require.NoError(t, d.InsertRun(context.Background(), rec))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestInsertRunError(t *testing.T) {
	it(func() {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO inference_runs")).
			WillReturnError(errors.New("table is locked"))

		err := d.InsertRun(context.Background(), testRecord())
		assert.ErrorContains(t, err, "table is locked")
	})
}

func TestListRuns(t *testing.T) {
	testCases := []struct {
		name      string
		task      models.TaskKind
		limit     int
		wantQuery string
		wantArgs  []driver.Value
	}{
		{
			name:      "all tasks",
			limit:     20,
			wantQuery: "FROM inference_runs ORDER BY started_at DESC LIMIT ?",
			wantArgs:  []driver.Value{20},
		},
		{
			name:      "one task with default limit",
			task:      models.KindObjectDetection,
			wantQuery: "FROM inference_runs WHERE task = ? ORDER BY started_at DESC LIMIT ?",
			wantArgs:  []driver.Value{"object-detection", maxListLimit},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			it(func() {
				rec := testRecord()
				rows := sqlmock.NewRows([]string{"id", "session", "seq", "task", "model", "outcome", "error_kind", "message", "attempts", "duration_ms", "started_at"}).
					AddRow(rec.ID, rec.Session, rec.Seq, "object-detection", rec.Model, rec.Outcome, "provider_rejection", rec.Message, 3, 1500, rec.StartedAt)

				mock.ExpectQuery(regexp.QuoteMeta(tc.wantQuery)).WithArgs(tc.wantArgs...).WillReturnRows(rows)

				runs, err := d.ListRuns(context.Background(), tc.task, tc.limit)
				require.NoError(t, err)
				require.Len(t, runs, 1)
				assert.Equal(t, rec, runs[0])
				assert.NoError(t, mock.ExpectationsWereMet())
			})
		})
	}
}

func TestStats(t *testing.T) {
	it(func() {
		rows := sqlmock.NewRows([]string{"task", "outcome", "count", "avg"}).
			AddRow("translate", "success", 12, 410.5).
			AddRow("visual-qa", "failure", 2, nil)
		mock.ExpectQuery(regexp.QuoteMeta("GROUP BY task, outcome")).WillReturnRows(rows)

		stats, err := d.Stats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []TaskStats{
			{Task: models.KindTranslate, Outcome: "success", Count: 12, AvgDurationMs: 410.5},
			{Task: models.KindVisualQA, Outcome: "failure", Count: 2},
		}, stats)
	})
}

func TestRunMigrations(t *testing.T) {
	it(func() {
		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS inference_runs")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX idx_inference_runs_task_outcome")).
			WillReturnError(errors.New("Duplicate key name"))

		assert.NoError(t, d.RunMigrations(context.Background()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestHistoryObserverSwallowsWriteErrors(t *testing.T) {
	it(func() {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO inference_runs")).
			WillReturnError(errors.New("connection reset"))

		assert.NotPanics(t, func() {
			HistoryObserver{DB: d}.ObserveRun(testRecord())
		})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
