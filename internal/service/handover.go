package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/loomnotes/loom/internal/access"
	"github.com/loomnotes/loom/internal/domain"
	"github.com/loomnotes/loom/internal/telemetry"
)

// HandoverIngester makes a handover retrievable after create.
type HandoverIngester interface {
	IngestHandover(ctx context.Context, h *domain.Handover) error
}

// CreateHandoverInput carries the fields for a new handover.
type CreateHandoverInput struct {
	Title           string
	ToEmployee      string
	CCEmployees     []string
	ProjectID       string
	Context         string
	NextSteps       []domain.HandoverStep
	Resources       []domain.HandoverResource
	Contacts        []domain.HandoverContact
	AdditionalNotes string
}

// HandoverService owns the handover lifecycle and its state machine.
type HandoverService struct {
	handovers HandoverRepositoryInterface
	ingester  HandoverIngester
}

func NewHandoverService(handovers HandoverRepositoryInterface, ingester HandoverIngester) *HandoverService {
	return &HandoverService{
		handovers: handovers,
		ingester:  ingester,
	}
}

// Create persists a handover from the identity to the given recipient and
// makes it retrievable. A failed chunk ingest does not undo the create; the
// handover is still readable directly and ingest failures are surfaced in logs.
func (s *HandoverService) Create(ctx context.Context, identity *domain.Identity, input CreateHandoverInput) (*domain.Handover, error) {
	h := &domain.Handover{
		ID:              uuid.NewString(),
		Title:           input.Title,
		FromEmployee:    identity.ID,
		ToEmployee:      input.ToEmployee,
		CCEmployees:     input.CCEmployees,
		Status:          domain.HandoverStatusPending,
		ProjectID:       input.ProjectID,
		Context:         input.Context,
		NextSteps:       input.NextSteps,
		Resources:       input.Resources,
		Contacts:        input.Contacts,
		AdditionalNotes: input.AdditionalNotes,
		CreatedAt:       time.Now().UTC(),
	}

	if err := domain.ValidateHandover(h); err != nil {
		return nil, err
	}

	if err := s.handovers.Create(ctx, h); err != nil {
		return nil, err
	}

	if s.ingester != nil {
		if err := s.ingester.IngestHandover(ctx, h); err != nil {
			log.Printf("failed to ingest handover %s: %v", h.ID, err)
			telemetry.CaptureError(ctx, err)
		}
	}

	return h, nil
}

// Get returns a handover if the identity is sender, recipient, or CC'd.
func (s *HandoverService) Get(ctx context.Context, identity *domain.Identity, id string) (*domain.Handover, error) {
	h, err := s.handovers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanAccessHandover(identity, h) {
		return nil, domain.ErrAccessDenied
	}
	return h, nil
}

// List returns all handovers the identity is involved in, newest first.
func (s *HandoverService) List(ctx context.Context, identity *domain.Identity) ([]*domain.Handover, error) {
	return s.handovers.ListForEmployee(ctx, identity.ID)
}

// UpdateStatus advances the state machine. Only the recipient may advance,
// and only along pending -> acknowledged -> completed (pending -> completed
// skips the acknowledgement).
func (s *HandoverService) UpdateStatus(ctx context.Context, identity *domain.Identity, id string, status domain.HandoverStatus) (*domain.Handover, error) {
	h, err := s.handovers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanAccessHandover(identity, h) {
		return nil, domain.ErrAccessDenied
	}
	if identity.ID != h.ToEmployee {
		return nil, domain.ErrNotHandoverTarget
	}
	if !domain.IsValidHandoverStatus(status) {
		return nil, domain.ErrInvalidHandoverStatus
	}
	if !domain.CanTransition(h.Status, status) {
		return nil, domain.ErrInvalidStatusTransition
	}

	if err := s.handovers.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.handovers.GetByID(ctx, id)
}

// Delete removes a handover and its chunks. Only the sender may delete.
func (s *HandoverService) Delete(ctx context.Context, identity *domain.Identity, id string) error {
	h, err := s.handovers.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !access.CanAccessHandover(identity, h) {
		return domain.ErrAccessDenied
	}
	if identity.ID != h.FromEmployee {
		return domain.ErrNotHandoverSender
	}
	return s.handovers.Delete(ctx, id)
}
