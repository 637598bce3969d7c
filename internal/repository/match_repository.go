package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lifeline-health/lifeline-api/internal/models"
)

// MatchRepository persists donor/patient matches.
type MatchRepository struct {
	db *sqlx.DB
}

// NewMatchRepository constructs the repository.
func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// Create inserts a new match row.
func (r *MatchRepository) Create(ctx context.Context, match *models.Match) error {
	if match.ID == "" {
		match.ID = uuid.NewString()
	}
	if match.State == "" {
		match.State = models.MatchStatePending
	}
	if match.CreatedAt.IsZero() {
		match.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO matches
	(id, intent_id, request_id, donor_id, donor_name, patient_id, patient_name, organ_type, patient_hospital_name, donor_hospital_name,
	 patient_accepted, donor_accepted, hospital_confirmed, payment_completed, state, created_at, completed_at)
	VALUES (:id, :intent_id, :request_id, :donor_id, :donor_name, :patient_id, :patient_name, :organ_type, :patient_hospital_name, :donor_hospital_name,
	 :patient_accepted, :donor_accepted, :hospital_confirmed, :payment_completed, :state, :created_at, :completed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, match); err != nil {
		return fmt.Errorf("create match: %w", err)
	}
	return nil
}

// GetByID fetches a match by identifier.
func (r *MatchRepository) GetByID(ctx context.Context, id string) (*models.Match, error) {
	const query = `SELECT id, intent_id, request_id, donor_id, donor_name, patient_id, patient_name, organ_type,
       patient_hospital_name, donor_hospital_name, patient_accepted, donor_accepted, hospital_confirmed,
       payment_completed, state, created_at, completed_at
	FROM matches WHERE id = $1`
	var match models.Match
	if err := r.db.GetContext(ctx, &match, query, id); err != nil {
		return nil, err
	}
	return &match, nil
}

// List returns matches matching the filter (newest first).
func (r *MatchRepository) List(ctx context.Context, filter models.MatchFilter) ([]models.Match, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(`SELECT id, intent_id, request_id, donor_id, donor_name, patient_id, patient_name, organ_type,
       patient_hospital_name, donor_hospital_name, patient_accepted, donor_accepted, hospital_confirmed,
       payment_completed, state, created_at, completed_at FROM matches`)

	conditions := make([]string, 0, 3)
	if filter.PatientID != "" {
		args = append(args, filter.PatientID)
		conditions = append(conditions, fmt.Sprintf("patient_id = $%d", len(args)))
	}
	if filter.DonorID != "" {
		args = append(args, filter.DonorID)
		conditions = append(conditions, fmt.Sprintf("donor_id = $%d", len(args)))
	}
	if len(filter.State) > 0 {
		placeholders := make([]string, len(filter.State))
		for i, state := range filter.State {
			args = append(args, state)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("state IN (%s)", strings.Join(placeholders, ",")))
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

	var matches []models.Match
	if err := r.db.SelectContext(ctx, &matches, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return matches, nil
}

// RecordAcceptance sets the acceptance flag for one party and stores the
// state derived by the caller. The flag guard keeps acceptance monotonic: a
// repeated acceptance by the same party affects zero rows.
func (r *MatchRepository) RecordAcceptance(ctx context.Context, id string, party models.MatchParty, state models.MatchState) error {
	column := "donor_accepted"
	if party == models.PartyPatient {
		column = "patient_accepted"
	}
	query := fmt.Sprintf(`UPDATE matches SET %s = true, state = $1 WHERE id = $2 AND %s = false`, column, column)
	result, err := r.db.ExecContext(ctx, query, state, id)
	if err != nil {
		return fmt.Errorf("record match acceptance: %w", err)
	}
	return requireRowsAffected(result)
}

// RecordPayment marks the payment as settled on a confirmed match.
func (r *MatchRepository) RecordPayment(ctx context.Context, id string) error {
	const query = `UPDATE matches SET payment_completed = true, state = $1 WHERE id = $2 AND state = $3`
	result, err := r.db.ExecContext(ctx, query, models.MatchStatePaymentDone, id, models.MatchStateConfirmed)
	if err != nil {
		return fmt.Errorf("record match payment: %w", err)
	}
	return requireRowsAffected(result)
}

// Complete finalises a paid match and its donation intent in one transaction.
// Either both rows advance to COMPLETED or neither does.
func (r *MatchRepository) Complete(ctx context.Context, matchID, intentID string, completedAt time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin completion tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const matchQuery = `UPDATE matches SET state = $1, completed_at = $2 WHERE id = $3 AND state = $4`
	result, err := tx.ExecContext(ctx, matchQuery, models.MatchStateCompleted, completedAt, matchID, models.MatchStatePaymentDone)
	if err != nil {
		return fmt.Errorf("complete match: %w", err)
	}
	if err := requireRowsAffected(result); err != nil {
		return err
	}

	const intentQuery = `UPDATE donation_intents
	SET status = $1, payment_completed = true, certificate_ready = true, completed_at = $2
	WHERE id = $3 AND status = $4`
	result, err = tx.ExecContext(ctx, intentQuery, models.IntentStatusCompleted, completedAt, intentID, models.IntentStatusMatched)
	if err != nil {
		return fmt.Errorf("complete donation intent: %w", err)
	}
	if err := requireRowsAffected(result); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit completion tx: %w", err)
	}
	return nil
}
