package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"healthsync/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupMockAuditDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresAuditRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewPostgresAuditRepository(db, zap.NewNop())
	return db, mock, repo
}

// ============================================
// PostgreSQL
// ============================================

func TestEnsureSchema(t *testing.T) {
	db, mock, repo := setupMockAuditDB(t)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS operator_audit_log`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_FillsIDAndTimestamp(t *testing.T) {
	db, mock, repo := setupMockAuditDB(t)
	defer db.Close()

	entry := &models.AuditEntry{
		Action:   models.AuditPatientDelete,
		TargetID: "P-7",
		Operator: "dashboard",
		Success:  true,
		Details:  json.RawMessage(`{"name":"Maria"}`),
	}

	mock.ExpectExec(`INSERT INTO operator_audit_log`).
		WithArgs(sqlmock.AnyArg(), models.AuditPatientDelete, "P-7", "dashboard", true, nil, `{"name":"Maria"}`, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Record(context.Background(), entry))
	assert.NotEmpty(t, entry.EntryID)
	assert.False(t, entry.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_Failure(t *testing.T) {
	db, mock, repo := setupMockAuditDB(t)
	defer db.Close()

	msg := "api error (status 404): Patient not found"
	mock.ExpectExec(`INSERT INTO operator_audit_log`).
		WithArgs(sqlmock.AnyArg(), models.AuditAlertResolve, "a-1", "dashboard", false, msg, nil, sqlmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))

	err := repo.Record(context.Background(), &models.AuditEntry{
		Action:       models.AuditAlertResolve,
		TargetID:     "a-1",
		Operator:     "dashboard",
		ErrorMessage: &msg,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecent(t *testing.T) {
	db, mock, repo := setupMockAuditDB(t)
	defer db.Close()

	t1 := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"entry_id", "action", "target_id", "operator", "success", "error_message", "details", "created_at",
	}).
		AddRow("e2", models.AuditAlertResolve, "a-1", "dashboard", false, "boom", nil, t1.Add(time.Minute)).
		AddRow("e1", models.AuditPatientCreate, "P-1", "dashboard", true, nil, []byte(`{"age":40}`), t1)

	mock.ExpectQuery(`SELECT\s+entry_id`).
		WithArgs(DefaultAuditLimit).
		WillReturnRows(rows)

	entries, err := repo.ListRecent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "e2", entries[0].EntryID)
	require.NotNil(t, entries[0].ErrorMessage)
	assert.Equal(t, "boom", *entries[0].ErrorMessage)
	assert.Nil(t, entries[0].Details)

	assert.Nil(t, entries[1].ErrorMessage)
	assert.JSONEq(t, `{"age":40}`, string(entries[1].Details))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecent_ClampsLimit(t *testing.T) {
	db, mock, repo := setupMockAuditDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+entry_id`).
		WithArgs(MaxAuditLimit).
		WillReturnRows(sqlmock.NewRows([]string{"entry_id"}))

	entries, err := repo.ListRecent(context.Background(), 10000)
	require.NoError(t, err)
	assert.Empty(t, entries)
	require.NoError(t, mock.ExpectationsWereMet())
}

// ============================================
// 内存实现
// ============================================

func TestMemoryAuditRepo(t *testing.T) {
	repo := NewMemoryAuditRepo(3)
	ctx := context.Background()
	t0 := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"P-1", "P-2", "P-3", "P-4"} {
		require.NoError(t, repo.Record(ctx, &models.AuditEntry{
			Action:    models.AuditPatientCreate,
			TargetID:  id,
			Success:   true,
			CreatedAt: t0.Add(time.Duration(i) * time.Second),
		}))
	}

	entries, err := repo.ListRecent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "P-4", entries[0].TargetID)
	assert.Equal(t, "P-2", entries[2].TargetID)
	assert.NotEmpty(t, entries[0].EntryID)

	entries, err = repo.ListRecent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "P-4", entries[0].TargetID)
}

func TestMemoryAuditRepo_SameTimestampNewestFirst(t *testing.T) {
	repo := NewMemoryAuditRepo(10)
	ctx := context.Background()
	at := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Record(ctx, &models.AuditEntry{TargetID: "first", CreatedAt: at}))
	require.NoError(t, repo.Record(ctx, &models.AuditEntry{TargetID: "second", CreatedAt: at}))

	entries, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "second", entries[0].TargetID)
}

var _ AuditRepository = (*PostgresAuditRepository)(nil)
var _ AuditRepository = (*MemoryAuditRepo)(nil)
