package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/loomnotes/loom/internal/domain"
)

type EmployeeRepository struct {
	db dbtx
}

func NewEmployeeRepository(pool *pgxpool.Pool) *EmployeeRepository {
	return &EmployeeRepository{db: pool}
}

func (r *EmployeeRepository) Create(ctx context.Context, e *domain.Employee) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO employees (id, name, email, created_at) VALUES ($1, $2, $3, $4)`,
		e.ID, e.Name, e.Email, e.CreatedAt,
	)
	return err
}

func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	var e domain.Employee
	err := r.db.QueryRow(ctx,
		`SELECT id, name, email, created_at FROM employees WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.Name, &e.Email, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEmployeeNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *EmployeeRepository) GetByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	var e domain.Employee
	err := r.db.QueryRow(ctx,
		`SELECT id, name, email, created_at FROM employees WHERE email = $1`,
		email,
	).Scan(&e.ID, &e.Name, &e.Email, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEmployeeNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *EmployeeRepository) AddProjectMembership(ctx context.Context, employeeID, projectID string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO project_memberships (employee_id, project_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		employeeID, projectID,
	)
	return err
}

func (r *EmployeeRepository) RemoveProjectMembership(ctx context.Context, employeeID, projectID string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM project_memberships WHERE employee_id = $1 AND project_id = $2`,
		employeeID, projectID,
	)
	return err
}

// ResolveIdentity loads an employee together with their project memberships.
func (r *EmployeeRepository) ResolveIdentity(ctx context.Context, employeeID string) (*domain.Identity, error) {
	e, err := r.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT project_id FROM project_memberships WHERE employee_id = $1 ORDER BY project_id`,
		employeeID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &domain.Identity{
		ID:                 e.ID,
		Name:               e.Name,
		Email:              e.Email,
		ProjectMemberships: projects,
	}, nil
}
