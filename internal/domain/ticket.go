package domain

import (
	"strings"
	"time"

	apperrors "github.com/spec-kit/sla-ticket-service/pkg/util/errorutil"
)

// Ticket is the aggregate for support requests.
//
// Invariants: ClosedAt is set iff Status is CLOSED, and Solution is non-empty iff Status is
// CLOSED. Use the mutation methods below rather than assigning Status, AgentID or CategoryID
// directly; all but ChangeCategory stamp UpdatedAt.
type Ticket struct {
	ID                 string
	Title              string
	Description        string
	Status             TicketStatus
	UserID             string
	AgentID            *string
	CategoryID         string
	Solution           string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	ResponseDeadline   *time.Time
	ResolutionDeadline *time.Time
	ClosedAt           *time.Time
}

// NewTicket builds an OPEN ticket whose deadlines derive from the category SLA, if any.
func NewTicket(userID, categoryID, title, description string, sla *SLAPolicy, now time.Time) *Ticket {
	t := &Ticket{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Status:      TicketStatusOpen,
		UserID:      userID,
		CategoryID:  categoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	t.ResponseDeadline, t.ResolutionDeadline = ComputeDeadlines(t.CreatedAt, sla)
	return t
}

// IsAssigned reports whether an agent owns the ticket.
func (t *Ticket) IsAssigned() bool {
	return t.AgentID != nil && *t.AgentID != ""
}

// AssignedAgentID returns the owning agent id or "".
func (t *Ticket) AssignedAgentID() string {
	if !t.IsAssigned() {
		return ""
	}
	return *t.AgentID
}

// ApplyTransition moves the ticket to target and refreshes UpdatedAt.
// It fails with an InvalidTransition error if the pair is not in the transition table.
func (t *Ticket) ApplyTransition(target TicketStatus, now time.Time) error {
	if !CanTransition(t.Status, target) {
		return apperrors.NewInvalidTransition(string(t.Status), string(target))
	}
	t.Status = target
	t.UpdatedAt = now
	return nil
}

// Close applies the closing rule: the ticket must be RESOLVED and the solution non-blank.
// On success the status becomes CLOSED and Solution, ClosedAt and UpdatedAt are set.
// On failure the ticket is left untouched.
func (t *Ticket) Close(solution string, now time.Time) error {
	if t.Status != TicketStatusResolved {
		return apperrors.NewInvalidCloseState(string(t.Status))
	}
	if strings.TrimSpace(solution) == "" {
		return apperrors.NewEmptySolution()
	}
	closedAt := now
	t.Solution = solution
	t.Status = TicketStatusClosed
	t.ClosedAt = &closedAt
	t.UpdatedAt = now
	return nil
}

// AssignAgent sets the owning agent and refreshes UpdatedAt. Status is not touched.
func (t *Ticket) AssignAgent(agentID string, now time.Time) {
	id := agentID
	t.AgentID = &id
	t.UpdatedAt = now
}

// ChangeCategory moves the ticket to another category and recomputes its deadlines from
// the new category's SLA and the original CreatedAt. UpdatedAt is left alone so a moved
// RESOLVED ticket keeps its auto-close clock.
func (t *Ticket) ChangeCategory(categoryID string, sla *SLAPolicy) {
	t.CategoryID = categoryID
	t.ResponseDeadline, t.ResolutionDeadline = ComputeDeadlines(t.CreatedAt, sla)
}

// UpdateDetails replaces title and description, trimmed, and refreshes UpdatedAt.
func (t *Ticket) UpdateDetails(title, description string, now time.Time) {
	t.Title = strings.TrimSpace(title)
	t.Description = strings.TrimSpace(description)
	t.UpdatedAt = now
}
