package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/loomnotes/loom/internal/domain"
)

// AuditRepository persists append-only records of answered queries.
type AuditRepository struct {
	db dbtx
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: pool}
}

func (r *AuditRepository) Insert(ctx context.Context, rec *domain.AuditRecord) error {
	usedIDs := rec.UsedItemIDs
	if usedIDs == nil {
		usedIDs = []string{}
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO audit_queries (id, employee_id, query, used_item_ids, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.EmployeeID, rec.Query, usedIDs, rec.CreatedAt,
	)
	return err
}

func (r *AuditRepository) ListByEmployee(ctx context.Context, employeeID string, limit int) ([]*domain.AuditRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, employee_id, query, used_item_ids, created_at
		 FROM audit_queries
		 WHERE employee_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		employeeID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.AuditRecord
	for rows.Next() {
		var rec domain.AuditRecord
		if err := rows.Scan(&rec.ID, &rec.EmployeeID, &rec.Query, &rec.UsedItemIDs, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
