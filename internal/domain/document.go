package domain

import (
	"fmt"
	"time"
)

// Visibility controls who can retrieve a document.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Document represents an ingested company document.
type Document struct {
	ID           string
	Title        string
	OwnerProject string // empty for public documents without a project
	Visibility   Visibility
	SourceURI    string
	ContentHash  string
	DeletedAt    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewDocument creates a new Document instance
func NewDocument(id, title, ownerProject string, visibility Visibility, sourceURI string, now time.Time) *Document {
	return &Document{
		ID:           id,
		Title:        title,
		OwnerProject: ownerProject,
		Visibility:   visibility,
		SourceURI:    sourceURI,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Deleted reports whether the document has been soft-deleted.
func (d *Document) Deleted() bool {
	return d.DeletedAt != nil
}

// ValidateDocument validates a Document instance
func ValidateDocument(d *Document) error {
	if d == nil {
		return fmt.Errorf("document cannot be nil")
	}

	if d.ID == "" {
		return fmt.Errorf("document ID is required")
	}

	if d.Title == "" {
		return fmt.Errorf("document Title is required")
	}

	if !isValidVisibility(d.Visibility) {
		return ErrInvalidVisibility
	}

	// Private documents always belong to a project.
	if d.Visibility == VisibilityPrivate && d.OwnerProject == "" {
		return ErrPrivateNeedsProject
	}

	return nil
}

func isValidVisibility(v Visibility) bool {
	switch v {
	case VisibilityPublic, VisibilityPrivate:
		return true
	}
	return false
}
