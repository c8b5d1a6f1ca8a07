package domain

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusOnHold     TicketStatus = "ON_HOLD"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusReopened   TicketStatus = "REOPENED"
	TicketStatusCancelled  TicketStatus = "CANCELLED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// AllTicketStatuses lists every status in lifecycle order.
var AllTicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusOnHold,
	TicketStatusResolved,
	TicketStatusReopened,
	TicketStatusCancelled,
	TicketStatusClosed,
}

// CLOSED is terminal.
var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:       {TicketStatusInProgress, TicketStatusCancelled},
	TicketStatusInProgress: {TicketStatusResolved, TicketStatusCancelled, TicketStatusOnHold},
	TicketStatusOnHold:     {TicketStatusInProgress, TicketStatusCancelled},
	TicketStatusResolved:   {TicketStatusClosed, TicketStatusReopened},
	TicketStatusReopened:   {TicketStatusInProgress, TicketStatusCancelled},
	TicketStatusCancelled:  {TicketStatusReopened},
	TicketStatusClosed:     {},
}

// CanTransition reports whether current may move to target. It is a pure table lookup.
func CanTransition(current, target TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == target {
			return true
		}
	}
	return false
}

// AllowedTransitions returns a copy of the targets reachable from current.
func AllowedTransitions(current TicketStatus) []TicketStatus {
	return append([]TicketStatus(nil), allowedTransitions[current]...)
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}
