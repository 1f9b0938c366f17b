package service

import (
	"context"

	"github.com/loomnotes/loom/internal/access"
	"github.com/loomnotes/loom/internal/domain"
)

// DocumentService reads and retires documents under the access policy.
type DocumentService struct {
	docs DocumentRepositoryInterface
}

func NewDocumentService(docs DocumentRepositoryInterface) *DocumentService {
	return &DocumentService{docs: docs}
}

// Get returns a document the identity may see. Soft-deleted documents read
// as not found.
func (s *DocumentService) Get(ctx context.Context, identity *domain.Identity, id string) (*domain.Document, error) {
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Deleted() {
		return nil, domain.ErrDocumentNotFound
	}
	if !access.CanAccessDocument(identity, doc) {
		return nil, domain.ErrAccessDenied
	}
	return doc, nil
}

// List returns the live documents visible to the identity.
func (s *DocumentService) List(ctx context.Context, identity *domain.Identity) ([]*domain.Document, error) {
	docs, err := s.docs.List(ctx)
	if err != nil {
		return nil, err
	}

	visible := make([]*domain.Document, 0, len(docs))
	for _, d := range docs {
		if access.CanAccessDocument(identity, d) {
			visible = append(visible, d)
		}
	}
	return visible, nil
}

// Delete soft-deletes a document, excluding it from all future retrieval.
// Its chunks stay in place; the access predicate filters them out.
func (s *DocumentService) Delete(ctx context.Context, identity *domain.Identity, id string) error {
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if doc.Deleted() {
		return domain.ErrDocumentNotFound
	}
	if !access.CanAccessDocument(identity, doc) {
		return domain.ErrAccessDenied
	}
	return s.docs.SoftDelete(ctx, id)
}
