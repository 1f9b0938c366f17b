package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/loomnotes/loom/internal/chunker"
	"github.com/loomnotes/loom/internal/domain"
	"github.com/loomnotes/loom/internal/telemetry"
)

// TextChunker splits text into token-bounded chunk drafts.
type TextChunker interface {
	Chunk(text string, sections []chunker.Section) ([]chunker.Draft, error)
}

// CreateDocumentInput carries the fields for a new document.
type CreateDocumentInput struct {
	Title        string
	OwnerProject string
	Visibility   domain.Visibility
	Body         string
}

// IngestionService turns item text into embedded chunks. Document bodies are
// stored in S3 and processed by the polling worker; handovers are chunked
// inline from their structured fields.
type IngestionService struct {
	docs     DocumentRepositoryInterface
	txRunner TxRunnerInterface
	chunker  TextChunker
	embedder Embedder
	store    SourceStore
}

func NewIngestionService(docs DocumentRepositoryInterface, txRunner TxRunnerInterface, textChunker TextChunker, embedder Embedder, store SourceStore) *IngestionService {
	return &IngestionService{
		docs:     docs,
		txRunner: txRunner,
		chunker:  textChunker,
		embedder: embedder,
		store:    store,
	}
}

// CreateDocument validates and persists a document plus its ingest job. With
// a source store configured the body is uploaded and chunked by the worker;
// without one the document is chunked inline before returning.
func (s *IngestionService) CreateDocument(ctx context.Context, input CreateDocumentInput) (*domain.Document, error) {
	now := time.Now().UTC()
	doc := domain.NewDocument(uuid.NewString(), input.Title, input.OwnerProject, input.Visibility, "", now)
	doc.ContentHash = contentHash(input.Body)

	if err := domain.ValidateDocument(doc); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Body) == "" {
		return nil, domain.ErrEmptyDocumentText
	}

	ctx, span := telemetry.StartSpan(ctx, "ingest.create_document", telemetry.SpanAttributes{
		DocID:     doc.ID,
		ProjectID: doc.OwnerProject,
		Operation: "create_document",
	})
	defer span.End()

	if s.store != nil {
		key, err := s.store.PutDocumentSource(ctx, doc.ID, []byte(input.Body))
		if err != nil {
			span.SetError(err)
			return nil, domain.NewUpstreamError("storage", err)
		}
		doc.SourceURI = key

		err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
			if err := repos.Documents().Create(ctx, doc); err != nil {
				return err
			}
			return repos.IngestJobs().Create(ctx, &domain.IngestJob{
				ID:        uuid.NewString(),
				DocID:     doc.ID,
				Status:    domain.IngestJobStatusPending,
				CreatedAt: now,
			})
		})
		if err != nil {
			span.SetError(err)
			return nil, err
		}
		return doc, nil
	}

	if err := s.docs.Create(ctx, doc); err != nil {
		span.SetError(err)
		return nil, err
	}
	if err := s.ingestBody(ctx, doc.ID, input.Body); err != nil {
		span.SetError(err)
		return nil, err
	}
	return doc, nil
}

// IngestDocument implements jobs.IngestService: fetch the stored body, chunk,
// embed, and replace the document's chunks.
func (s *IngestionService) IngestDocument(ctx context.Context, docID string) error {
	doc, err := s.docs.GetByID(ctx, docID)
	if err != nil {
		return err
	}
	if doc.Deleted() {
		return nil
	}
	if s.store == nil {
		return errors.New("no source store configured")
	}

	body, err := s.store.GetDocumentSource(ctx, docID)
	if err != nil {
		return domain.NewUpstreamError("storage", err)
	}
	return s.ingestBody(ctx, docID, string(body))
}

func (s *IngestionService) ingestBody(ctx context.Context, docID, text string) error {
	ctx, span := telemetry.StartSpan(ctx, "ingest.document", telemetry.SpanAttributes{
		DocID:     docID,
		Operation: "chunk_and_embed",
	})
	defer span.End()

	sections := parseSections(text)
	drafts, err := s.chunker.Chunk(text, sections)
	if err != nil {
		span.SetError(err)
		return err
	}

	chunks, err := s.embedDrafts(ctx, drafts, func(c *domain.Chunk) {
		c.DocID = docID
		c.ParentKind = domain.ParentKindDocument
	})
	if err != nil {
		span.SetError(err)
		return err
	}

	return s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		return repos.Chunks().ReplaceDocumentChunks(ctx, docID, chunks)
	})
}

// IngestHandover chunks and embeds a handover's rendered text. A handover
// whose fields render to nothing is left without chunks.
func (s *IngestionService) IngestHandover(ctx context.Context, h *domain.Handover) error {
	ctx, span := telemetry.StartSpan(ctx, "ingest.handover", telemetry.SpanAttributes{
		Operation: "chunk_and_embed",
	})
	defer span.End()

	text, sections := renderHandover(h)
	drafts, err := s.chunker.Chunk(text, sections)
	if err != nil {
		if errors.Is(err, domain.ErrNoChunksProduced) {
			return nil
		}
		span.SetError(err)
		return err
	}

	chunks, err := s.embedDrafts(ctx, drafts, func(c *domain.Chunk) {
		c.HandoverID = h.ID
		c.ParentKind = domain.ParentKindHandover
	})
	if err != nil {
		span.SetError(err)
		return err
	}

	return s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		return repos.Chunks().ReplaceHandoverChunks(ctx, h.ID, chunks)
	})
}

func (s *IngestionService) embedDrafts(ctx context.Context, drafts []chunker.Draft, bind func(*domain.Chunk)) ([]domain.Chunk, error) {
	texts := make([]string, len(drafts))
	for i, d := range drafts {
		texts[i] = d.Text
	}

	embeddings, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, domain.NewUpstreamError("embed", err)
	}
	if len(embeddings) != len(drafts) {
		return nil, domain.NewUpstreamError("embed",
			fmt.Errorf("expected %d embeddings, got %d", len(drafts), len(embeddings)))
	}

	now := time.Now().UTC()
	chunks := make([]domain.Chunk, len(drafts))
	for i, d := range drafts {
		chunks[i] = domain.Chunk{
			ID:          uuid.NewString(),
			ChunkIndex:  d.Order,
			Text:        d.Text,
			HeadingPath: d.HeadingPath,
			TokenCount:  d.TokenCount,
			Embedding:   embeddings[i],
			CreatedAt:   now,
		}
		bind(&chunks[i])
	}
	return chunks, nil
}

func contentHash(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}

// parseSections splits markdown into sections keyed by their heading path,
// outermost heading first. Text before the first heading gets an empty path.
func parseSections(text string) []chunker.Section {
	var sections []chunker.Section
	var path []string
	var levels []int
	var buf []string

	flush := func() {
		if len(buf) == 0 {
			return
		}
		body := strings.TrimSpace(strings.Join(buf, "\n"))
		buf = nil
		if body == "" {
			return
		}
		sections = append(sections, chunker.Section{
			HeadingPath: append([]string(nil), path...),
			Text:        body,
		})
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if level := headingLevel(trimmed); level > 0 {
			flush()
			title := strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
			for len(levels) > 0 && levels[len(levels)-1] >= level {
				levels = levels[:len(levels)-1]
				path = path[:len(path)-1]
			}
			levels = append(levels, level)
			path = append(path, title)
			continue
		}
		buf = append(buf, line)
	}
	flush()

	return sections
}

func headingLevel(line string) int {
	if !strings.HasPrefix(line, "#") {
		return 0
	}
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level > 6 || level >= len(line) || line[level] != ' ' {
		return 0
	}
	return level
}

// renderHandover flattens a handover's structured fields into markdown so the
// same chunking path serves both item kinds.
func renderHandover(h *domain.Handover) (string, []chunker.Section) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", h.Title)

	if strings.TrimSpace(h.Context) != "" {
		b.WriteString("## Context\n\n")
		b.WriteString(strings.TrimSpace(h.Context))
		b.WriteString("\n\n")
	}

	if len(h.NextSteps) > 0 {
		b.WriteString("## Next Steps\n\n")
		for i, step := range h.NextSteps {
			mark := " "
			if step.Done {
				mark = "x"
			}
			fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, mark, step.Task)
		}
		b.WriteString("\n")
	}

	if len(h.Resources) > 0 {
		b.WriteString("## Resources\n\n")
		for _, r := range h.Resources {
			fmt.Fprintf(&b, "- %s (%s): %s\n", r.Title, r.Type, r.URL)
		}
		b.WriteString("\n")
	}

	if len(h.Contacts) > 0 {
		b.WriteString("## Contacts\n\n")
		for _, c := range h.Contacts {
			fmt.Fprintf(&b, "- %s, %s (%s)\n", c.Name, c.Role, c.Email)
		}
		b.WriteString("\n")
	}

	if strings.TrimSpace(h.AdditionalNotes) != "" {
		b.WriteString("## Additional Notes\n\n")
		b.WriteString(strings.TrimSpace(h.AdditionalNotes))
		b.WriteString("\n")
	}

	text := b.String()
	return text, parseSections(text)
}
