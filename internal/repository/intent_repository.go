package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lifeline-health/lifeline-api/internal/models"
)

// requireRowsAffected converts a zero-row update into sql.ErrNoRows so the
// service layer can distinguish "guard failed" from a driver error.
func requireRowsAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check affected rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// IntentRepository persists donation intents.
type IntentRepository struct {
	db *sqlx.DB
}

// NewIntentRepository constructs the repository.
func NewIntentRepository(db *sqlx.DB) *IntentRepository {
	return &IntentRepository{db: db}
}

// Create inserts a new donation intent row.
func (r *IntentRepository) Create(ctx context.Context, intent *models.DonationIntent) error {
	if intent.ID == "" {
		intent.ID = uuid.NewString()
	}
	if intent.Status == "" {
		intent.Status = models.IntentStatusAvailable
	}
	if intent.CreatedAt.IsZero() {
		intent.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO donation_intents
	(id, donor_id, donor_name, organ_type, donor_hospital_name, status, hospital_verified, payment_completed, certificate_ready, created_at, completed_at)
	VALUES (:id, :donor_id, :donor_name, :organ_type, :donor_hospital_name, :status, :hospital_verified, :payment_completed, :certificate_ready, :created_at, :completed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, intent); err != nil {
		return fmt.Errorf("create donation intent: %w", err)
	}
	return nil
}

// GetByID fetches a donation intent by identifier.
func (r *IntentRepository) GetByID(ctx context.Context, id string) (*models.DonationIntent, error) {
	const query = `SELECT id, donor_id, donor_name, organ_type, donor_hospital_name, status,
       hospital_verified, payment_completed, certificate_ready, created_at, completed_at
	FROM donation_intents WHERE id = $1`
	var intent models.DonationIntent
	if err := r.db.GetContext(ctx, &intent, query, id); err != nil {
		return nil, err
	}
	return &intent, nil
}

// List returns donation intents matching the filter (newest first).
func (r *IntentRepository) List(ctx context.Context, filter models.IntentFilter) ([]models.DonationIntent, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(`SELECT id, donor_id, donor_name, organ_type, donor_hospital_name, status,
       hospital_verified, payment_completed, certificate_ready, created_at, completed_at FROM donation_intents`)

	conditions := make([]string, 0, 3)
	if filter.DonorID != "" {
		args = append(args, filter.DonorID)
		conditions = append(conditions, fmt.Sprintf("donor_id = $%d", len(args)))
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.OrganType != "" {
		args = append(args, filter.OrganType)
		conditions = append(conditions, fmt.Sprintf("organ_type = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var intents []models.DonationIntent
	if err := r.db.SelectContext(ctx, &intents, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list donation intents: %w", err)
	}
	return intents, nil
}

// MarkVerified flips the verification flag on an unverified intent. The guard
// on hospital_verified makes concurrent verifications resolve to a single
// winner; losers see sql.ErrNoRows.
func (r *IntentRepository) MarkVerified(ctx context.Context, id string) error {
	const query = `UPDATE donation_intents SET hospital_verified = true, status = $1
	WHERE id = $2 AND hospital_verified = false`
	result, err := r.db.ExecContext(ctx, query, models.IntentStatusVerified, id)
	if err != nil {
		return fmt.Errorf("mark intent verified: %w", err)
	}
	return requireRowsAffected(result)
}

// MarkMatched moves a verified intent into the matched state.
func (r *IntentRepository) MarkMatched(ctx context.Context, id string) error {
	const query = `UPDATE donation_intents SET status = $1 WHERE id = $2 AND status = $3`
	result, err := r.db.ExecContext(ctx, query, models.IntentStatusMatched, id, models.IntentStatusVerified)
	if err != nil {
		return fmt.Errorf("mark intent matched: %w", err)
	}
	return requireRowsAffected(result)
}
