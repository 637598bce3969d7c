package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/lifeline-health/lifeline-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestIntentRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewIntentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO donation_intents")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	intent := &models.DonationIntent{
		DonorID:           "donor-1",
		DonorName:         "Asha Rao",
		OrganType:         "KIDNEY",
		DonorHospitalName: "City General",
	}
	require.NoError(t, repo.Create(context.Background(), intent))
	require.NotEmpty(t, intent.ID)
	require.Equal(t, models.IntentStatusAvailable, intent.Status)

	rows := sqlmock.NewRows([]string{"id", "donor_id", "donor_name", "organ_type", "donor_hospital_name", "status", "hospital_verified", "payment_completed", "certificate_ready", "created_at", "completed_at"}).
		AddRow(intent.ID, "donor-1", "Asha Rao", "KIDNEY", "City General", "AVAILABLE_FOR_DONATION", false, false, false, time.Now(), nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, donor_id, donor_name")).
		WithArgs(intent.ID).
		WillReturnRows(rows)

	found, err := repo.GetByID(context.Background(), intent.ID)
	require.NoError(t, err)
	require.Equal(t, intent.ID, found.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIntentRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewIntentRepository(db)
	rows := sqlmock.NewRows([]string{"id", "donor_id", "donor_name", "organ_type", "donor_hospital_name", "status", "hospital_verified", "payment_completed", "certificate_ready", "created_at", "completed_at"}).
		AddRow("intent-1", "donor-1", "Asha Rao", "KIDNEY", "City General", "VERIFIED", true, false, false, time.Now(), nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, donor_id, donor_name")).
		WithArgs("donor-1", "VERIFIED").
		WillReturnRows(rows)

	list, err := repo.List(context.Background(), models.IntentFilter{
		DonorID: "donor-1",
		Status:  []models.IntentStatus{models.IntentStatusVerified},
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "intent-1", list[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIntentRepositoryMarkVerifiedGuard(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewIntentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE donation_intents SET hospital_verified = true")).
		WithArgs(string(models.IntentStatusVerified), "intent-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.MarkVerified(context.Background(), "intent-1"))

	// second verification affects zero rows
	mock.ExpectExec(regexp.QuoteMeta("UPDATE donation_intents SET hospital_verified = true")).
		WithArgs(string(models.IntentStatusVerified), "intent-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.MarkVerified(context.Background(), "intent-1")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIntentRepositoryMarkMatchedGuard(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewIntentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE donation_intents SET status =")).
		WithArgs(string(models.IntentStatusMatched), "intent-1", string(models.IntentStatusVerified)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.MarkMatched(context.Background(), "intent-1")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
