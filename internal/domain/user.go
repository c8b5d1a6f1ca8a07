package domain

import "time"

// User is the end-user who submits tickets.
type User struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}
