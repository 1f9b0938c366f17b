package domain

import "time"

// AuditRecord captures which source items backed one answered query.
// Records are written once and never mutated.
type AuditRecord struct {
	ID          string
	EmployeeID  string
	Query       string
	UsedItemIDs []string
	CreatedAt   time.Time
}
