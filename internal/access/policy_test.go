package access

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/loomnotes/loom/internal/domain"
	"github.com/stretchr/testify/assert"
)

func identityWith(id string, projects ...string) *domain.Identity {
	return &domain.Identity{ID: id, ProjectMemberships: projects}
}

func TestCanAccessDocument_Public(t *testing.T) {
	doc := &domain.Document{ID: "doc-1", Title: "Handbook", Visibility: domain.VisibilityPublic}

	assert.True(t, CanAccessDocument(identityWith("emp-1"), doc))
	assert.True(t, CanAccessDocument(identityWith("emp-2", "Atlas"), doc))
}

func TestCanAccessDocument_PrivateMembership(t *testing.T) {
	doc := &domain.Document{
		ID:           "doc-1",
		Title:        "Atlas Deploy Guide",
		Visibility:   domain.VisibilityPrivate,
		OwnerProject: "Atlas",
	}

	assert.True(t, CanAccessDocument(identityWith("emp-1", "Atlas", "Phoenix"), doc))
	assert.False(t, CanAccessDocument(identityWith("emp-1", "Bolt"), doc))
	assert.False(t, CanAccessDocument(identityWith("emp-1"), doc))
}

func TestCanAccessDocument_SoftDeleted(t *testing.T) {
	now := time.Now().UTC()
	doc := &domain.Document{
		ID:         "doc-1",
		Title:      "Handbook",
		Visibility: domain.VisibilityPublic,
		DeletedAt:  &now,
	}

	assert.False(t, CanAccessDocument(identityWith("emp-1", "Atlas"), doc))
}

func TestCanAccessHandover(t *testing.T) {
	h := &domain.Handover{
		ID:           "ho-1",
		FromEmployee: "sender",
		ToEmployee:   "recipient",
		CCEmployees:  []string{"watcher"},
	}

	assert.True(t, CanAccessHandover(identityWith("sender"), h))
	assert.True(t, CanAccessHandover(identityWith("recipient"), h))
	assert.True(t, CanAccessHandover(identityWith("watcher"), h))
	assert.False(t, CanAccessHandover(identityWith("stranger"), h))
	assert.False(t, CanAccessHandover(identityWith("stranger", "Atlas"), h))
}

func TestCanAccess_NilInputs(t *testing.T) {
	assert.False(t, CanAccessDocument(nil, &domain.Document{}))
	assert.False(t, CanAccessDocument(identityWith("emp-1"), nil))
	assert.False(t, CanAccessHandover(nil, &domain.Handover{}))
	assert.False(t, CanAccessHandover(identityWith("emp-1"), nil))
}

// The decision must be a pure function of (identity, item): random inputs,
// evaluated twice, always agree, and private documents are never visible
// without a matching membership.
func TestCanAccessDocument_Property(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	projects := []string{"Atlas", "Bolt", "Phoenix", "Zephyr"}

	for i := 0; i < 500; i++ {
		var memberships []string
		for _, p := range projects {
			if rng.Intn(2) == 0 {
				memberships = append(memberships, p)
			}
		}
		identity := identityWith(fmt.Sprintf("emp-%d", i), memberships...)

		visibility := domain.VisibilityPublic
		owner := ""
		if rng.Intn(2) == 0 {
			visibility = domain.VisibilityPrivate
			owner = projects[rng.Intn(len(projects))]
		}
		doc := &domain.Document{ID: "doc", Title: "t", Visibility: visibility, OwnerProject: owner}

		got := CanAccessDocument(identity, doc)
		assert.Equal(t, got, CanAccessDocument(identity, doc))

		want := visibility == domain.VisibilityPublic || identity.MemberOf(owner)
		assert.Equal(t, want, got)
	}
}

func TestPredicateSQL_Placeholders(t *testing.T) {
	docSQL := DocumentPredicateSQL("$2")
	assert.Contains(t, docSQL, "d.deleted_at IS NULL")
	assert.Contains(t, docSQL, "d.owner_project = ANY($2)")
	assert.Contains(t, docSQL, "d.visibility = 'public'")

	hoSQL := HandoverPredicateSQL("$3")
	assert.Contains(t, hoSQL, "h.from_employee = $3")
	assert.Contains(t, hoSQL, "h.to_employee = $3")
	assert.Contains(t, hoSQL, "$3 = ANY(h.cc_employees)")
}
