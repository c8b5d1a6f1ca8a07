package events

import (
	"time"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated         EventType = "ticket_created"
	EventTicketStatusChanged   EventType = "ticket_status_changed"
	EventTicketAssigned        EventType = "ticket_assigned"
	EventTicketEscalated       EventType = "ticket_escalated"
	EventTicketAutoClosed      EventType = "ticket_auto_closed"
	EventTicketCategoryChanged EventType = "ticket_category_changed"
)

// AllEventTypes lists every event the workflow emits.
var AllEventTypes = []EventType{
	EventTicketCreated,
	EventTicketStatusChanged,
	EventTicketAssigned,
	EventTicketEscalated,
	EventTicketAutoClosed,
	EventTicketCategoryChanged,
}

// Event represents a domain event emitted by services after their unit of work commits.
// Actor carries the same label as the matching audit entry.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     string      `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	UserID             string     `json:"user_id"`
	CategoryID         string     `json:"category_id"`
	Title              string     `json:"title"`
	ResolutionDeadline *time.Time `json:"resolution_deadline,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Comment   string              `json:"comment,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AgentID         string  `json:"agent_id"`
	PreviousAgentID *string `json:"previous_agent_id,omitempty"`
	Automatic       bool    `json:"automatic"`
}

// TicketEscalatedPayload payload.
type TicketEscalatedPayload struct {
	EscalationID string `json:"escalation_id"`
	FromAgentID  string `json:"from_agent_id"`
	ToAgentID    string `json:"to_agent_id"`
	Reason       string `json:"reason"`
}

// TicketAutoClosedPayload payload.
type TicketAutoClosedPayload struct {
	DaysThreshold int       `json:"days_threshold"`
	ClosedAt      time.Time `json:"closed_at"`
}

// TicketCategoryChangedPayload payload.
type TicketCategoryChangedPayload struct {
	OldCategoryID string `json:"old_category_id"`
	NewCategoryID string `json:"new_category_id"`
}
