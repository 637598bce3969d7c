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

// FundRequestRepository persists fund requests.
type FundRequestRepository struct {
	db *sqlx.DB
}

// NewFundRequestRepository constructs the repository.
func NewFundRequestRepository(db *sqlx.DB) *FundRequestRepository {
	return &FundRequestRepository{db: db}
}

// Create inserts a new fund request row.
func (r *FundRequestRepository) Create(ctx context.Context, request *models.FundRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.Status == "" {
		request.Status = models.FundRequestStatusPending
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO fund_requests
	(id, patient_id, patient_name, amount, reason, description, status, created_at)
	VALUES (:id, :patient_id, :patient_name, :amount, :reason, :description, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create fund request: %w", err)
	}
	return nil
}

// GetByID fetches a fund request by identifier.
func (r *FundRequestRepository) GetByID(ctx context.Context, id string) (*models.FundRequest, error) {
	const query = `SELECT id, patient_id, patient_name, amount, reason, description, status, created_at
	FROM fund_requests WHERE id = $1`
	var request models.FundRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// List returns fund requests matching the filter (newest first).
func (r *FundRequestRepository) List(ctx context.Context, filter models.FundRequestFilter) ([]models.FundRequest, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 3)
	builder.WriteString(`SELECT id, patient_id, patient_name, amount, reason, description, status, created_at FROM fund_requests`)

	conditions := make([]string, 0, 2)
	if filter.PatientID != "" {
		args = append(args, filter.PatientID)
		conditions = append(conditions, fmt.Sprintf("patient_id = $%d", len(args)))
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
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

	var requests []models.FundRequest
	if err := r.db.SelectContext(ctx, &requests, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list fund requests: %w", err)
	}
	return requests, nil
}

// UpdateDecision records the NGO verdict. The decision is terminal: only a
// pending request can be decided, so a second decision sees sql.ErrNoRows.
func (r *FundRequestRepository) UpdateDecision(ctx context.Context, id string, status models.FundRequestStatus) error {
	const query = `UPDATE fund_requests SET status = $1 WHERE id = $2 AND status = $3`
	result, err := r.db.ExecContext(ctx, query, status, id, models.FundRequestStatusPending)
	if err != nil {
		return fmt.Errorf("update fund request decision: %w", err)
	}
	return requireRowsAffected(result)
}
