package domain

import "time"

// Category groups tickets and optionally carries an SLA policy.
type Category struct {
	ID          string
	Name        string
	Description string
	SLAID       *string
	CreatedAt   time.Time
}

// HasSLA reports whether tickets in the category get deadlines.
func (c *Category) HasSLA() bool {
	return c.SLAID != nil && *c.SLAID != ""
}
