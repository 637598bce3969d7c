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

func TestNotificationRepositoryCreateAndList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewNotificationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notifications")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	notification := &models.Notification{
		Type:       models.NotificationInfo,
		Title:      "New donation offer",
		Message:    "Asha Rao offered to donate a KIDNEY.",
		TargetRole: models.RoleHospital,
	}
	require.NoError(t, repo.Create(context.Background(), notification))
	require.NotEmpty(t, notification.ID)

	rows := sqlmock.NewRows([]string{"id", "type", "title", "message", "target_role", "read", "created_at"}).
		AddRow(notification.ID, "info", "New donation offer", "Asha Rao offered to donate a KIDNEY.", "HOSPITAL", false, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, type, title, message")).
		WithArgs("HOSPITAL").
		WillReturnRows(rows)

	list, err := repo.List(context.Background(), models.NotificationFilter{TargetRole: models.RoleHospital, UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryMarkReadScopedToRole(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewNotificationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET read = true WHERE id =")).
		WithArgs("notif-1", "DONOR").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkRead(context.Background(), "notif-1", models.RoleDonor)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryMarkAllReadReturnsCount(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewNotificationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET read = true WHERE target_role =")).
		WithArgs("PATIENT").
		WillReturnResult(sqlmock.NewResult(0, 4))

	updated, err := repo.MarkAllRead(context.Background(), models.RolePatient)
	require.NoError(t, err)
	require.Equal(t, int64(4), updated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryUnreadCount(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewNotificationRepository(db)
	rows := sqlmock.NewRows([]string{"count"}).AddRow(7)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM notifications")).
		WithArgs("NGO").
		WillReturnRows(rows)

	count, err := repo.UnreadCount(context.Background(), models.RoleNGO)
	require.NoError(t, err)
	require.Equal(t, int64(7), count)
	require.NoError(t, mock.ExpectationsWereMet())
}
