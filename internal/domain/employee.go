package domain

import "time"

// Employee is a registered user of the system.
type Employee struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}
