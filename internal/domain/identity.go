package domain

// Identity is an authenticated requester.
type Identity struct {
	ID                 string
	Name               string
	Email              string
	ProjectMemberships []string
}

// MemberOf reports whether the identity belongs to the given project.
func (i *Identity) MemberOf(project string) bool {
	for _, p := range i.ProjectMemberships {
		if p == project {
			return true
		}
	}
	return false
}
