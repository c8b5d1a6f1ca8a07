package dto

import (
	"time"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	UserID      string `json:"user_id"`
	CategoryID  string `json:"category_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// UpdateTicketRequest payload. Omitted fields are left unchanged.
type UpdateTicketRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	CategoryID  *string `json:"category_id"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	AgentID string `json:"agent_id"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status  domain.TicketStatus `json:"status"`
	Comment string              `json:"comment"`
}

// CloseTicketRequest payload.
type CloseTicketRequest struct {
	Solution string `json:"solution"`
}

// EscalateRequest payload; an empty reason uses the configured default.
type EscalateRequest struct {
	Reason string `json:"reason"`
}

// BulkUpdateCategoryRequest payload.
type BulkUpdateCategoryRequest struct {
	UserID        string `json:"user_id"`
	OldCategoryID string `json:"old_category_id"`
	NewCategoryID string `json:"new_category_id"`
}

// TicketResponse represents a ticket.
type TicketResponse struct {
	ID                 string              `json:"id"`
	Title              string              `json:"title"`
	Description        string              `json:"description"`
	Status             domain.TicketStatus `json:"status"`
	UserID             string              `json:"user_id"`
	AgentID            *string             `json:"agent_id"`
	CategoryID         string              `json:"category_id"`
	Solution           string              `json:"solution,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
	ResponseDeadline   *time.Time          `json:"response_deadline"`
	ResolutionDeadline *time.Time          `json:"resolution_deadline"`
	ClosedAt           *time.Time          `json:"closed_at"`
}

// TicketHistoryResponse represents one audit entry.
type TicketHistoryResponse struct {
	ID        string              `json:"id"`
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	ChangedBy string              `json:"changed_by"`
	Reason    string              `json:"reason"`
	CreatedAt time.Time           `json:"created_at"`
}

// TicketEscalationResponse represents one escalation record.
type TicketEscalationResponse struct {
	ID          string    `json:"id"`
	TicketID    string    `json:"ticket_id"`
	FromAgentID string    `json:"escalated_from_agent_id"`
	ToAgentID   string    `json:"escalated_to_agent_id"`
	Reason      string    `json:"reason"`
	CreatedAt   time.Time `json:"created_at"`
}

// EscalationResultResponse is returned by the escalate operation.
type EscalationResultResponse struct {
	Ticket     TicketResponse           `json:"ticket"`
	Escalation TicketEscalationResponse `json:"escalation"`
}

// AgentStatsResponse summarizes an agent's workload.
type AgentStatsResponse struct {
	AgentID                string    `json:"agent_id"`
	AgentName              string    `json:"agent_name"`
	TotalTickets           int64     `json:"total_tickets"`
	ClosedTickets          int64     `json:"closed_tickets"`
	OverdueTickets         int64     `json:"overdue_tickets"`
	AvgResolutionTimeHours float64   `json:"avg_resolution_time_hours"`
	StartDate              time.Time `json:"start_date"`
	EndDate                time.Time `json:"end_date"`
}

// SweepResultResponse reports how many tickets a batch operation changed.
type SweepResultResponse struct {
	Count int `json:"count"`
}
