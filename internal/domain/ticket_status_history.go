package domain

import "time"

// Audit actor labels.
const (
	ActorSystem          = "System"
	ActorStaff           = "Staff"
	ActorEscalated       = "ESCALATED"
	ActorAutoClosed      = "AUTO_CLOSED"
	ActorCategoryChanged = "CATEGORY_CHANGED"
)

// TicketStatusHistory is an immutable audit trail entry.
type TicketStatusHistory struct {
	ID        string
	TicketID  string
	OldStatus TicketStatus
	NewStatus TicketStatus
	ChangedBy string
	Reason    string
	CreatedAt time.Time
}

// TicketEscalation records an ownership change of an overdue ticket. Immutable.
type TicketEscalation struct {
	ID          string
	TicketID    string
	FromAgentID string
	ToAgentID   string
	Reason      string
	CreatedAt   time.Time
}
