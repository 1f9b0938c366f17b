// Package service implements the retrieval pipeline and item lifecycles.
package service

import (
	"context"

	"github.com/loomnotes/loom/internal/cohere"
	"github.com/loomnotes/loom/internal/domain"
)

// DocumentRepositoryInterface defines document persistence operations.
type DocumentRepositoryInterface interface {
	Create(ctx context.Context, d *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	List(ctx context.Context) ([]*domain.Document, error)
	Update(ctx context.Context, d *domain.Document) error
	SoftDelete(ctx context.Context, id string) error
}

// HandoverRepositoryInterface defines handover persistence operations.
type HandoverRepositoryInterface interface {
	Create(ctx context.Context, h *domain.Handover) error
	GetByID(ctx context.Context, id string) (*domain.Handover, error)
	ListForEmployee(ctx context.Context, employeeID string) ([]*domain.Handover, error)
	UpdateStatus(ctx context.Context, id string, status domain.HandoverStatus) error
	Delete(ctx context.Context, id string) error
}

// ChunkRepositoryInterface defines chunk persistence and vector search.
type ChunkRepositoryInterface interface {
	ReplaceDocumentChunks(ctx context.Context, docID string, chunks []domain.Chunk) error
	ReplaceHandoverChunks(ctx context.Context, handoverID string, chunks []domain.Chunk) error
	SearchDocumentChunks(ctx context.Context, embedding []float32, projects []string, limit int) ([]*domain.RetrievedCandidate, error)
	SearchHandoverChunks(ctx context.Context, embedding []float32, employeeID string, limit int) ([]*domain.RetrievedCandidate, error)
}

// IngestJobRepositoryInterface defines ingest job persistence.
type IngestJobRepositoryInterface interface {
	Create(ctx context.Context, job *domain.IngestJob) error
}

// AuditRepositoryInterface defines audit record persistence.
type AuditRepositoryInterface interface {
	Insert(ctx context.Context, rec *domain.AuditRecord) error
	ListByEmployee(ctx context.Context, employeeID string, limit int) ([]*domain.AuditRecord, error)
}

// TxRepositories exposes repositories bound to a single transaction.
type TxRepositories interface {
	Documents() DocumentRepositoryInterface
	Chunks() ChunkRepositoryInterface
	IngestJobs() IngestJobRepositoryInterface
}

// TxRunnerInterface runs a function inside a database transaction.
type TxRunnerInterface interface {
	WithTx(ctx context.Context, fn func(repos TxRepositories) error) error
}

// Embedder produces vector embeddings for queries and documents. The two
// methods map to distinct model input modes and must not be interchanged.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// Reranker scores documents against a query with a cross-encoder.
type Reranker interface {
	Rerank(ctx context.Context, query string, documents []string, topN int) ([]cohere.RerankResult, error)
}

// Completer generates a chat completion from a system and user prompt.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// SourceStore holds raw document bodies outside the database.
type SourceStore interface {
	PutDocumentSource(ctx context.Context, docID string, body []byte) (string, error)
	GetDocumentSource(ctx context.Context, docID string) ([]byte, error)
	DeleteDocumentSource(ctx context.Context, docID string) error
}
