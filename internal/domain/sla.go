package domain

import "time"

// SLAPolicy is a response/resolution time budget attached to a category.
type SLAPolicy struct {
	ID                  string
	Name                string
	Description         string
	ResponseTimeHours   int
	ResolutionTimeHours int
	CreatedAt           time.Time
}

// ResponseDeadline returns createdAt plus the response budget.
func (p SLAPolicy) ResponseDeadline(createdAt time.Time) time.Time {
	return createdAt.Add(time.Duration(p.ResponseTimeHours) * time.Hour)
}

// ResolutionDeadline returns createdAt plus the resolution budget.
func (p SLAPolicy) ResolutionDeadline(createdAt time.Time) time.Time {
	return createdAt.Add(time.Duration(p.ResolutionTimeHours) * time.Hour)
}

// ComputeDeadlines derives (response, resolution) deadlines. Both are nil without a policy.
func ComputeDeadlines(createdAt time.Time, sla *SLAPolicy) (*time.Time, *time.Time) {
	if sla == nil {
		return nil, nil
	}
	response := sla.ResponseDeadline(createdAt)
	resolution := sla.ResolutionDeadline(createdAt)
	return &response, &resolution
}

// IsOverdue reports whether now is past either deadline that is set.
// Status is deliberately ignored, so CLOSED and CANCELLED tickets can report overdue.
func (t *Ticket) IsOverdue(now time.Time) bool {
	if t.ResponseDeadline != nil && now.After(*t.ResponseDeadline) {
		return true
	}
	return t.ResolutionDeadline != nil && now.After(*t.ResolutionDeadline)
}
