package domain

import (
	"fmt"
	"time"
)

// HandoverStatus represents the lifecycle state of a handover.
type HandoverStatus string

const (
	HandoverStatusPending      HandoverStatus = "pending"
	HandoverStatusAcknowledged HandoverStatus = "acknowledged"
	HandoverStatusCompleted    HandoverStatus = "completed"
)

// Handover represents a peer-to-peer knowledge handover note.
type Handover struct {
	ID              string
	Title           string
	FromEmployee    string
	ToEmployee      string
	CCEmployees     []string
	Status          HandoverStatus
	ProjectID       string
	Context         string
	NextSteps       []HandoverStep
	Resources       []HandoverResource
	Contacts        []HandoverContact
	AdditionalNotes string
	AcknowledgedAt  *time.Time
	CompletedAt     *time.Time
	CreatedAt       time.Time
}

// HandoverStep is a single follow-up task in a handover.
type HandoverStep struct {
	Task string `json:"task"`
	Done bool   `json:"done"`
}

// HandoverResource is a linked resource in a handover.
type HandoverResource struct {
	Type  string `json:"type"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// HandoverContact is a named contact in a handover.
type HandoverContact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// ValidateHandover validates a Handover instance
func ValidateHandover(h *Handover) error {
	if h == nil {
		return fmt.Errorf("handover cannot be nil")
	}

	if h.ID == "" {
		return fmt.Errorf("handover ID is required")
	}

	if h.Title == "" {
		return fmt.Errorf("handover Title is required")
	}

	if h.FromEmployee == "" || h.ToEmployee == "" {
		return fmt.Errorf("handover requires both sender and recipient")
	}

	if h.FromEmployee == h.ToEmployee {
		return ErrHandoverSelfTarget
	}

	if !IsValidHandoverStatus(h.Status) {
		return ErrInvalidHandoverStatus
	}

	return nil
}

// IsValidHandoverStatus checks whether a status value is known.
func IsValidHandoverStatus(s HandoverStatus) bool {
	switch s {
	case HandoverStatusPending, HandoverStatusAcknowledged, HandoverStatusCompleted:
		return true
	}
	return false
}

// CanTransition reports whether a handover may move from one status to another.
// Allowed: pending -> acknowledged, acknowledged -> completed, and pending -> completed
// (skipping the acknowledgement).
func CanTransition(from, to HandoverStatus) bool {
	switch from {
	case HandoverStatusPending:
		return to == HandoverStatusAcknowledged || to == HandoverStatusCompleted
	case HandoverStatusAcknowledged:
		return to == HandoverStatusCompleted
	}
	return false
}
