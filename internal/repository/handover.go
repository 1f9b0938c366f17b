package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/loomnotes/loom/internal/access"
	"github.com/loomnotes/loom/internal/domain"
)

type HandoverRepository struct {
	db dbtx
}

func NewHandoverRepository(pool *pgxpool.Pool) *HandoverRepository {
	return &HandoverRepository{db: pool}
}

func NewHandoverRepositoryWithTx(tx pgx.Tx) *HandoverRepository {
	return &HandoverRepository{db: tx}
}

const handoverColumns = `id, title, from_employee, to_employee, cc_employees, status, project_id, context,
	next_steps, resources, contacts, additional_notes, acknowledged_at, completed_at, created_at`

func (r *HandoverRepository) Create(ctx context.Context, h *domain.Handover) error {
	nextSteps, err := json.Marshal(h.NextSteps)
	if err != nil {
		return fmt.Errorf("failed to encode next steps: %w", err)
	}
	resources, err := json.Marshal(h.Resources)
	if err != nil {
		return fmt.Errorf("failed to encode resources: %w", err)
	}
	contacts, err := json.Marshal(h.Contacts)
	if err != nil {
		return fmt.Errorf("failed to encode contacts: %w", err)
	}

	cc := h.CCEmployees
	if cc == nil {
		cc = []string{}
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO handovers (id, title, from_employee, to_employee, cc_employees, status, project_id, context,
			next_steps, resources, contacts, additional_notes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		h.ID, h.Title, h.FromEmployee, h.ToEmployee, cc, h.Status, nullableString(h.ProjectID), h.Context,
		nextSteps, resources, contacts, h.AdditionalNotes, h.CreatedAt,
	)
	return err
}

func (r *HandoverRepository) GetByID(ctx context.Context, id string) (*domain.Handover, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+handoverColumns+` FROM handovers WHERE id = $1`,
		id,
	)
	h, err := scanHandover(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrHandoverNotFound
		}
		return nil, err
	}
	return h, nil
}

// ListForEmployee returns handovers where the employee is sender, recipient,
// or CC'd, newest first. The filter is the same predicate the vector search
// pushes down.
func (r *HandoverRepository) ListForEmployee(ctx context.Context, employeeID string) ([]*domain.Handover, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM handovers h WHERE %s ORDER BY created_at DESC`,
		handoverColumns, access.HandoverPredicateSQL("$1"),
	)

	rows, err := r.db.Query(ctx, query, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.Handover
	for rows.Next() {
		h, err := scanHandover(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, h)
	}
	return results, rows.Err()
}

// UpdateStatus advances a handover and stamps the matching timestamp.
func (r *HandoverRepository) UpdateStatus(ctx context.Context, id string, status domain.HandoverStatus) error {
	now := time.Now().UTC()

	var query string
	switch status {
	case domain.HandoverStatusAcknowledged:
		query = `UPDATE handovers SET status = $1, acknowledged_at = $2 WHERE id = $3`
	case domain.HandoverStatusCompleted:
		query = `UPDATE handovers SET status = $1, completed_at = $2 WHERE id = $3`
	default:
		return domain.ErrInvalidHandoverStatus
	}

	cmdTag, err := r.db.Exec(ctx, query, status, now, id)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrHandoverNotFound
	}
	return nil
}

// Delete removes a handover and, via cascade, its chunks.
func (r *HandoverRepository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM handovers WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrHandoverNotFound
	}
	return nil
}

func scanHandover(row pgx.Row) (*domain.Handover, error) {
	var h domain.Handover
	var projectID *string
	var nextSteps, resources, contacts []byte

	err := row.Scan(
		&h.ID, &h.Title, &h.FromEmployee, &h.ToEmployee, &h.CCEmployees, &h.Status, &projectID, &h.Context,
		&nextSteps, &resources, &contacts, &h.AdditionalNotes, &h.AcknowledgedAt, &h.CompletedAt, &h.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if projectID != nil {
		h.ProjectID = *projectID
	}
	if err := json.Unmarshal(nextSteps, &h.NextSteps); err != nil {
		return nil, fmt.Errorf("failed to decode next steps: %w", err)
	}
	if err := json.Unmarshal(resources, &h.Resources); err != nil {
		return nil, fmt.Errorf("failed to decode resources: %w", err)
	}
	if err := json.Unmarshal(contacts, &h.Contacts); err != nil {
		return nil, fmt.Errorf("failed to decode contacts: %w", err)
	}

	return &h, nil
}
