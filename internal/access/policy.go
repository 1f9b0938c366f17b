// Package access holds the authorization rules for retrievable items.
//
// The same rule exists in two forms: a pure in-process decision used when
// checking a single item, and a SQL predicate pushed into the store so that
// nearest-neighbor search only ranks among permitted rows. The two forms must
// stay in lockstep; the repository tests assert their agreement.
package access

import (
	"fmt"

	"github.com/loomnotes/loom/internal/domain"
)

// CanAccessDocument decides whether the identity may see a document.
// Public documents are visible to everyone; private documents only to
// members of the owning project. Soft-deleted documents are never visible.
func CanAccessDocument(identity *domain.Identity, doc *domain.Document) bool {
	if identity == nil || doc == nil {
		return false
	}
	if doc.Deleted() {
		return false
	}
	if doc.Visibility == domain.VisibilityPublic {
		return true
	}
	return identity.MemberOf(doc.OwnerProject)
}

// CanAccessHandover decides whether the identity may see a handover.
// Only the sender, the recipient, and CC'd employees have access.
func CanAccessHandover(identity *domain.Identity, h *domain.Handover) bool {
	if identity == nil || h == nil {
		return false
	}
	if identity.ID == h.FromEmployee || identity.ID == h.ToEmployee {
		return true
	}
	for _, cc := range h.CCEmployees {
		if identity.ID == cc {
			return true
		}
	}
	return false
}

// DocumentPredicateSQL returns the document rule as a SQL fragment against an
// aliased documents table d. projectsParam is the placeholder bound to the
// identity's project memberships (a text array).
func DocumentPredicateSQL(projectsParam string) string {
	return fmt.Sprintf(
		"d.deleted_at IS NULL AND (d.visibility = 'public' OR d.owner_project = ANY(%s))",
		projectsParam,
	)
}

// HandoverPredicateSQL returns the handover rule as a SQL fragment against an
// aliased handovers table h. employeeParam is the placeholder bound to the
// identity's employee ID.
func HandoverPredicateSQL(employeeParam string) string {
	return fmt.Sprintf(
		"(h.from_employee = %[1]s OR h.to_employee = %[1]s OR %[1]s = ANY(h.cc_employees))",
		employeeParam,
	)
}
