package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/lifeline-health/lifeline-api/internal/models"
)

func TestMatchRepositoryRecordAcceptanceGuard(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMatchRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE matches SET donor_accepted = true")).
		WithArgs(string(models.MatchStateDonorAccepted), "match-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.RecordAcceptance(context.Background(), "match-1", models.PartyDonor, models.MatchStateDonorAccepted))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE matches SET patient_accepted = true")).
		WithArgs(string(models.MatchStateConfirmed), "match-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.RecordAcceptance(context.Background(), "match-1", models.PartyPatient, models.MatchStateConfirmed)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepositoryRecordPaymentRequiresConfirmed(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMatchRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE matches SET payment_completed = true")).
		WithArgs(string(models.MatchStatePaymentDone), "match-1", string(models.MatchStateConfirmed)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.RecordPayment(context.Background(), "match-1")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepositoryCompleteCommitsBothUpdates(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMatchRepository(db)
	completedAt := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE matches SET state =")).
		WithArgs(string(models.MatchStateCompleted), completedAt, "match-1", string(models.MatchStatePaymentDone)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE donation_intents")).
		WithArgs(string(models.IntentStatusCompleted), completedAt, "intent-1", string(models.IntentStatusMatched)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Complete(context.Background(), "match-1", "intent-1", completedAt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepositoryCompleteRollsBackWhenIntentGuardFails(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMatchRepository(db)
	completedAt := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE matches SET state =")).
		WithArgs(string(models.MatchStateCompleted), completedAt, "match-1", string(models.MatchStatePaymentDone)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE donation_intents")).
		WithArgs(string(models.IntentStatusCompleted), completedAt, "intent-1", string(models.IntentStatusMatched)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Complete(context.Background(), "match-1", "intent-1", completedAt)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepositoryCompleteRollsBackWhenMatchGuardFails(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMatchRepository(db)
	completedAt := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE matches SET state =")).
		WithArgs(string(models.MatchStateCompleted), completedAt, "match-1", string(models.MatchStatePaymentDone)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Complete(context.Background(), "match-1", "intent-1", completedAt)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
