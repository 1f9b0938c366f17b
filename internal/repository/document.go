package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/loomnotes/loom/internal/domain"
)

type DocumentRepository struct {
	db dbtx
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: pool}
}

func NewDocumentRepositoryWithTx(tx pgx.Tx) *DocumentRepository {
	return &DocumentRepository{db: tx}
}

func (r *DocumentRepository) Create(ctx context.Context, d *domain.Document) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO documents (id, title, owner_project, visibility, source_uri, content_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		d.ID, d.Title, nullableString(d.OwnerProject), d.Visibility, d.SourceURI, d.ContentHash, d.CreatedAt, d.UpdatedAt,
	)
	return err
}

// GetByID returns the document including soft-deleted rows; callers decide
// visibility through the access rules.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	var d domain.Document
	var ownerProject *string
	err := r.db.QueryRow(ctx,
		`SELECT id, title, owner_project, visibility, source_uri, content_hash, deleted_at, created_at, updated_at
		 FROM documents WHERE id = $1`,
		id,
	).Scan(&d.ID, &d.Title, &ownerProject, &d.Visibility, &d.SourceURI, &d.ContentHash, &d.DeletedAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	if ownerProject != nil {
		d.OwnerProject = *ownerProject
	}
	return &d, nil
}

// List returns all live documents, newest first.
func (r *DocumentRepository) List(ctx context.Context) ([]*domain.Document, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, title, owner_project, visibility, source_uri, content_hash, deleted_at, created_at, updated_at
		 FROM documents WHERE deleted_at IS NULL ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocumentRows(rows)
}

func (r *DocumentRepository) Update(ctx context.Context, d *domain.Document) error {
	d.UpdatedAt = time.Now().UTC()
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE documents SET title = $1, owner_project = $2, visibility = $3, source_uri = $4, content_hash = $5, updated_at = $6
		 WHERE id = $7 AND deleted_at IS NULL`,
		d.Title, nullableString(d.OwnerProject), d.Visibility, d.SourceURI, d.ContentHash, d.UpdatedAt, d.ID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// SoftDelete marks a document deleted. Its chunks stay in place but are
// excluded from every search by the access predicate.
func (r *DocumentRepository) SoftDelete(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE documents SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func scanDocumentRows(rows pgx.Rows) ([]*domain.Document, error) {
	var results []*domain.Document
	for rows.Next() {
		var d domain.Document
		var ownerProject *string
		if err := rows.Scan(&d.ID, &d.Title, &ownerProject, &d.Visibility, &d.SourceURI, &d.ContentHash, &d.DeletedAt, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		if ownerProject != nil {
			d.OwnerProject = *ownerProject
		}
		results = append(results, &d)
	}
	return results, rows.Err()
}
