package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/loomnotes/loom/internal/access"
	"github.com/loomnotes/loom/internal/domain"
	"github.com/pgvector/pgvector-go"
)

// ChunkRepository handles persistence and vector search of embedded chunks.
type ChunkRepository struct {
	db dbtx
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: pool}
}

func NewChunkRepositoryWithTx(tx pgx.Tx) *ChunkRepository {
	return &ChunkRepository{db: tx}
}

// ReplaceDocumentChunks deletes existing chunks for a document and inserts new ones.
func (r *ChunkRepository) ReplaceDocumentChunks(ctx context.Context, docID string, chunks []domain.Chunk) error {
	_, err := r.db.Exec(ctx, `DELETE FROM chunks WHERE doc_id = $1`, docID)
	if err != nil {
		return err
	}
	return r.insertChunks(ctx, chunks, func(c *domain.Chunk) (docRef, handoverRef *string) {
		return &docID, nil
	})
}

// ReplaceHandoverChunks deletes existing chunks for a handover and inserts new ones.
func (r *ChunkRepository) ReplaceHandoverChunks(ctx context.Context, handoverID string, chunks []domain.Chunk) error {
	_, err := r.db.Exec(ctx, `DELETE FROM chunks WHERE handover_id = $1`, handoverID)
	if err != nil {
		return err
	}
	return r.insertChunks(ctx, chunks, func(c *domain.Chunk) (docRef, handoverRef *string) {
		return nil, &handoverID
	})
}

func (r *ChunkRepository) insertChunks(ctx context.Context, chunks []domain.Chunk, parent func(*domain.Chunk) (*string, *string)) error {
	for i := range chunks {
		c := &chunks[i]
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		headingPath := c.HeadingPath
		if headingPath == nil {
			headingPath = []string{}
		}
		docRef, handoverRef := parent(c)
		_, err := r.db.Exec(ctx,
			`INSERT INTO chunks (id, doc_id, handover_id, chunk_index, text, heading_path, token_count, embedding, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			c.ID, docRef, handoverRef, c.ChunkIndex, c.Text, headingPath, c.TokenCount,
			pgvector.NewVector(c.Embedding), createdAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// SearchDocumentChunks runs nearest-neighbor search over document chunks with
// the access rule pushed into the WHERE clause, so ranking only happens among
// rows the requester may see. Scores are cosine similarity in [0, 1].
func (r *ChunkRepository) SearchDocumentChunks(ctx context.Context, embedding []float32, projects []string, limit int) ([]*domain.RetrievedCandidate, error) {
	if limit <= 0 {
		limit = 20
	}
	if projects == nil {
		projects = []string{}
	}

	query := fmt.Sprintf(`
		SELECT c.id, c.doc_id, c.chunk_index, c.text, c.heading_path, c.token_count,
		       d.title, d.source_uri,
		       1 - (c.embedding <=> $1) AS score
		FROM chunks c
		JOIN documents d ON d.id = c.doc_id
		WHERE c.doc_id IS NOT NULL
		  AND c.embedding IS NOT NULL
		  AND %s
		ORDER BY c.embedding <=> $1
		LIMIT $3`,
		access.DocumentPredicateSQL("$2"),
	)

	rows, err := r.db.Query(ctx, query, pgvector.NewVector(embedding), projects, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]*domain.RetrievedCandidate, 0)
	for rows.Next() {
		var cand domain.RetrievedCandidate
		if err := rows.Scan(
			&cand.Chunk.ID, &cand.Chunk.DocID, &cand.Chunk.ChunkIndex, &cand.Chunk.Text,
			&cand.Chunk.HeadingPath, &cand.Chunk.TokenCount,
			&cand.Title, &cand.SourceURI, &cand.SimilarityScore,
		); err != nil {
			return nil, err
		}
		cand.Chunk.ParentKind = domain.ParentKindDocument
		results = append(results, &cand)
	}
	return results, rows.Err()
}

// SearchHandoverChunks is the handover-side counterpart of SearchDocumentChunks.
func (r *ChunkRepository) SearchHandoverChunks(ctx context.Context, embedding []float32, employeeID string, limit int) ([]*domain.RetrievedCandidate, error) {
	if limit <= 0 {
		limit = 20
	}

	query := fmt.Sprintf(`
		SELECT c.id, c.handover_id, c.chunk_index, c.text, c.heading_path, c.token_count,
		       h.title,
		       1 - (c.embedding <=> $1) AS score
		FROM chunks c
		JOIN handovers h ON h.id = c.handover_id
		WHERE c.handover_id IS NOT NULL
		  AND c.embedding IS NOT NULL
		  AND %s
		ORDER BY c.embedding <=> $1
		LIMIT $3`,
		access.HandoverPredicateSQL("$2"),
	)

	rows, err := r.db.Query(ctx, query, pgvector.NewVector(embedding), employeeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]*domain.RetrievedCandidate, 0)
	for rows.Next() {
		var cand domain.RetrievedCandidate
		if err := rows.Scan(
			&cand.Chunk.ID, &cand.Chunk.HandoverID, &cand.Chunk.ChunkIndex, &cand.Chunk.Text,
			&cand.Chunk.HeadingPath, &cand.Chunk.TokenCount,
			&cand.Title, &cand.SimilarityScore,
		); err != nil {
			return nil, err
		}
		cand.Chunk.ParentKind = domain.ParentKindHandover
		results = append(results, &cand)
	}
	return results, rows.Err()
}

// ListByParent returns a parent's chunks in order, without embeddings.
func (r *ChunkRepository) ListByParent(ctx context.Context, kind domain.ParentKind, parentID string) ([]*domain.Chunk, error) {
	column := "doc_id"
	if kind == domain.ParentKindHandover {
		column = "handover_id"
	}

	rows, err := r.db.Query(ctx,
		fmt.Sprintf(`SELECT id, chunk_index, text, heading_path, token_count, created_at
			 FROM chunks WHERE %s = $1 ORDER BY chunk_index ASC`, column),
		parentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []*domain.Chunk
	for rows.Next() {
		c := domain.Chunk{ParentKind: kind}
		if err := rows.Scan(&c.ID, &c.ChunkIndex, &c.Text, &c.HeadingPath, &c.TokenCount, &c.CreatedAt); err != nil {
			return nil, err
		}
		if kind == domain.ParentKindHandover {
			c.HandoverID = parentID
		} else {
			c.DocID = parentID
		}
		chunks = append(chunks, &c)
	}
	return chunks, rows.Err()
}
