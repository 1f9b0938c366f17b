package service

import (
	"context"

	"github.com/loomnotes/loom/internal/chunker"
	"github.com/loomnotes/loom/internal/cohere"
	"github.com/loomnotes/loom/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockChunkRepository is a mock implementation of ChunkRepositoryInterface
type MockChunkRepository struct {
	mock.Mock
}

func (m *MockChunkRepository) ReplaceDocumentChunks(ctx context.Context, docID string, chunks []domain.Chunk) error {
	args := m.Called(ctx, docID, chunks)
	return args.Error(0)
}

func (m *MockChunkRepository) ReplaceHandoverChunks(ctx context.Context, handoverID string, chunks []domain.Chunk) error {
	args := m.Called(ctx, handoverID, chunks)
	return args.Error(0)
}

func (m *MockChunkRepository) SearchDocumentChunks(ctx context.Context, embedding []float32, projects []string, limit int) ([]*domain.RetrievedCandidate, error) {
	args := m.Called(ctx, embedding, projects, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.RetrievedCandidate), args.Error(1)
}

func (m *MockChunkRepository) SearchHandoverChunks(ctx context.Context, embedding []float32, employeeID string, limit int) ([]*domain.RetrievedCandidate, error) {
	args := m.Called(ctx, embedding, employeeID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.RetrievedCandidate), args.Error(1)
}

// MockDocumentRepository is a mock implementation of DocumentRepositoryInterface
type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, d *domain.Document) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentRepository) List(ctx context.Context) ([]*domain.Document, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Document), args.Error(1)
}

func (m *MockDocumentRepository) Update(ctx context.Context, d *domain.Document) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDocumentRepository) SoftDelete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockHandoverRepository is a mock implementation of HandoverRepositoryInterface
type MockHandoverRepository struct {
	mock.Mock
}

func (m *MockHandoverRepository) Create(ctx context.Context, h *domain.Handover) error {
	args := m.Called(ctx, h)
	return args.Error(0)
}

func (m *MockHandoverRepository) GetByID(ctx context.Context, id string) (*domain.Handover, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Handover), args.Error(1)
}

func (m *MockHandoverRepository) ListForEmployee(ctx context.Context, employeeID string) ([]*domain.Handover, error) {
	args := m.Called(ctx, employeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Handover), args.Error(1)
}

func (m *MockHandoverRepository) UpdateStatus(ctx context.Context, id string, status domain.HandoverStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockHandoverRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockIngestJobRepo is a mock implementation of IngestJobRepositoryInterface
type MockIngestJobRepo struct {
	mock.Mock
}

func (m *MockIngestJobRepo) Create(ctx context.Context, job *domain.IngestJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// MockAuditRepository is a mock implementation of AuditRepositoryInterface
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Insert(ctx context.Context, rec *domain.AuditRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockAuditRepository) ListByEmployee(ctx context.Context, employeeID string, limit int) ([]*domain.AuditRecord, error) {
	args := m.Called(ctx, employeeID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AuditRecord), args.Error(1)
}

// MockEmbedder is a mock implementation of Embedder
type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func (m *MockEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

// MockReranker is a mock implementation of Reranker
type MockReranker struct {
	mock.Mock
}

func (m *MockReranker) Rerank(ctx context.Context, query string, documents []string, topN int) ([]cohere.RerankResult, error) {
	args := m.Called(ctx, query, documents, topN)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]cohere.RerankResult), args.Error(1)
}

// MockCompleter is a mock implementation of Completer
type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	args := m.Called(ctx, systemPrompt, userPrompt)
	return args.String(0), args.Error(1)
}

// MockSourceStore is a mock implementation of SourceStore
type MockSourceStore struct {
	mock.Mock
}

func (m *MockSourceStore) PutDocumentSource(ctx context.Context, docID string, body []byte) (string, error) {
	args := m.Called(ctx, docID, body)
	return args.String(0), args.Error(1)
}

func (m *MockSourceStore) GetDocumentSource(ctx context.Context, docID string) ([]byte, error) {
	args := m.Called(ctx, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockSourceStore) DeleteDocumentSource(ctx context.Context, docID string) error {
	args := m.Called(ctx, docID)
	return args.Error(0)
}

// MockRetriever is a mock implementation of Retriever
type MockRetriever struct {
	mock.Mock
}

func (m *MockRetriever) Retrieve(ctx context.Context, identity *domain.Identity, embedding []float32) ([]*domain.RetrievedCandidate, error) {
	args := m.Called(ctx, identity, embedding)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.RetrievedCandidate), args.Error(1)
}

// MockCandidateReranker is a mock implementation of CandidateReranker
type MockCandidateReranker struct {
	mock.Mock
}

func (m *MockCandidateReranker) Rerank(ctx context.Context, query string, candidates []*domain.RetrievedCandidate) ([]*domain.RetrievedCandidate, error) {
	args := m.Called(ctx, query, candidates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.RetrievedCandidate), args.Error(1)
}

// MockSynthesizer is a mock implementation of Synthesizer
type MockSynthesizer struct {
	mock.Mock
}

func (m *MockSynthesizer) Synthesize(ctx context.Context, query string, candidates []*domain.RetrievedCandidate) (string, error) {
	args := m.Called(ctx, query, candidates)
	return args.String(0), args.Error(1)
}

// MockAuditRecorder is a mock implementation of AuditRecorder
type MockAuditRecorder struct {
	mock.Mock
}

func (m *MockAuditRecorder) Record(employeeID, query string, usedItemIDs []string) {
	m.Called(employeeID, query, usedItemIDs)
}

// MockTextChunker is a mock implementation of TextChunker
type MockTextChunker struct {
	mock.Mock
}

func (m *MockTextChunker) Chunk(text string, sections []chunker.Section) ([]chunker.Draft, error) {
	args := m.Called(text, sections)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]chunker.Draft), args.Error(1)
}

// MockHandoverIngester is a mock implementation of HandoverIngester
type MockHandoverIngester struct {
	mock.Mock
}

func (m *MockHandoverIngester) IngestHandover(ctx context.Context, h *domain.Handover) error {
	args := m.Called(ctx, h)
	return args.Error(0)
}

// stubTxRunner runs the transaction body against fixed repositories.
type stubTxRunner struct {
	repos stubTxRepos
}

func (s *stubTxRunner) WithTx(ctx context.Context, fn func(repos TxRepositories) error) error {
	return fn(&s.repos)
}

type stubTxRepos struct {
	docs   DocumentRepositoryInterface
	chunks ChunkRepositoryInterface
	jobs   IngestJobRepositoryInterface
}

func (s *stubTxRepos) Documents() DocumentRepositoryInterface   { return s.docs }
func (s *stubTxRepos) Chunks() ChunkRepositoryInterface         { return s.chunks }
func (s *stubTxRepos) IngestJobs() IngestJobRepositoryInterface { return s.jobs }
