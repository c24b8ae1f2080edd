package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/trendscout/models"
)

func testSnapshot(id string) *models.TrendSnapshot {
	now := time.Date(2026, 10, 17, 14, 2, 59, 0, time.UTC)
	return &models.TrendSnapshot{
		UniqueID:  id,
		Topics:    []string{"TopicA", "TopicB", "TopicC"},
		Timestamp: now.Format(models.TimestampLayout),
		IPAddress: "203.0.113.7",
		CaptureAt: now,
	}
}

func TestPostgres_Insert(t *testing.T) {
	db, mock, setupErr := sqlmock.New()
	if setupErr != nil {
		t.Fatalf("failed to create sqlmock: %v", setupErr)
	}
	defer db.Close()

	repo := NewPostgres(sqlx.NewDb(db, "postgres"))
	ctx := context.Background()
	snap := testSnapshot("4f1d8a02-1b7e-4c55-9a1f-2d7c3b6e9e10")

	testCases := []struct {
		name      string
		setupMock func()
		wantID    string
		wantErr   bool
	}{
		{
			name: "returns generated id",
			setupMock: func() {
				mock.ExpectQuery("INSERT INTO trending_topics").
					WithArgs(snap.UniqueID, sqlmock.AnyArg(), snap.Timestamp, snap.IPAddress, snap.CaptureAt).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
			},
			wantID: "42",
		},
		{
			name: "database error is a storage failure",
			setupMock: func() {
				mock.ExpectQuery("INSERT INTO trending_topics").
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.setupMock()

			id, err := repo.Insert(ctx, snap)
			if tc.wantErr {
				var te *models.TrendError
				require.ErrorAs(t, err, &te)
				assert.Equal(t, models.ErrCodeStorage, te.Code)
				assert.ErrorIs(t, err, sql.ErrConnDone)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.wantID, id)
			}

			if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
				t.Errorf("unfulfilled expectations: %v", expectErr)
			}
		})
	}
}

func TestPostgres_Migrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS trending_topics").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, NewPostgres(sqlx.NewDb(db, "postgres")).Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLite_Insert(t *testing.T) {
	ctx := context.Background()
	st, err := Open(ctx, "sqlite", ":memory:")
	require.NoError(t, err)
	defer st.Close()

	first, err := st.Insert(ctx, testSnapshot("a"))
	require.NoError(t, err)
	second, err := st.Insert(ctx, testSnapshot("b"))
	require.NoError(t, err)

	assert.Equal(t, "1", first)
	assert.Equal(t, "2", second)

	lite := st.(*SQLite)
	var row struct {
		Topics string `db:"trending_topics"`
		IP     string `db:"ip_address"`
		Stamp  string `db:"timestamp"`
	}
	require.NoError(t, lite.db.GetContext(ctx, &row,
		`SELECT trending_topics, ip_address, timestamp FROM trending_topics WHERE unique_id = ?`, "a"))

	var topics []string
	require.NoError(t, json.Unmarshal([]byte(row.Topics), &topics))
	assert.Equal(t, []string{"TopicA", "TopicB", "TopicC"}, topics)
	assert.Equal(t, "203.0.113.7", row.IP)
	assert.Equal(t, "2026-10-17 14:02:59", row.Stamp)
}

func TestSQLite_DuplicateUniqueID(t *testing.T) {
	ctx := context.Background()
	st, err := Open(ctx, "sqlite", ":memory:")
	require.NoError(t, err)
	defer st.Close()

	_, err = st.Insert(ctx, testSnapshot("dup"))
	require.NoError(t, err)

	_, err = st.Insert(ctx, testSnapshot("dup"))
	var te *models.TrendError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, models.ErrCodeStorage, te.Code)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mongodb", "mongodb://localhost")
	assert.ErrorContains(t, err, "unknown store driver")
}
