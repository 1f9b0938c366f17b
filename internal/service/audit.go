package service

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/loomnotes/loom/internal/domain"
	"github.com/loomnotes/loom/internal/telemetry"
)

// AuditService records which items backed each answered query. Recording is
// detached from the request path: enqueue never blocks, and a full queue
// drops the record rather than delaying or failing the answer.
type AuditService struct {
	repo    AuditRepositoryInterface
	queue   chan *domain.AuditRecord
	dropped atomic.Int64
	wg      sync.WaitGroup
	once    sync.Once
}

func NewAuditService(repo AuditRepositoryInterface, queueSize int) *AuditService {
	if queueSize <= 0 {
		queueSize = 256
	}
	s := &AuditService{
		repo:  repo,
		queue: make(chan *domain.AuditRecord, queueSize),
	}
	s.wg.Add(1)
	go s.drain()
	return s
}

// Record enqueues an audit record without blocking the caller.
func (s *AuditService) Record(employeeID, query string, usedItemIDs []string) {
	rec := &domain.AuditRecord{
		ID:          uuid.NewString(),
		EmployeeID:  employeeID,
		Query:       query,
		UsedItemIDs: usedItemIDs,
		CreatedAt:   time.Now().UTC(),
	}

	select {
	case s.queue <- rec:
	default:
		n := s.dropped.Add(1)
		log.Printf("audit queue full, dropped record (total dropped: %d)", n)
	}
}

// Dropped returns how many records were lost to a full queue.
func (s *AuditService) Dropped() int64 {
	return s.dropped.Load()
}

// Close stops accepting records and drains what is already queued.
func (s *AuditService) Close() {
	s.once.Do(func() {
		close(s.queue)
	})
	s.wg.Wait()
}

func (s *AuditService) drain() {
	defer s.wg.Done()
	for rec := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.repo.Insert(ctx, rec); err != nil {
			log.Printf("failed to write audit record for employee %s: %v", rec.EmployeeID, err)
			telemetry.CaptureError(ctx, err)
			s.dropped.Add(1)
		}
		cancel()
	}
}
