package domain

import "time"

// Agent models a support agent that tickets can be assigned to.
type Agent struct {
	ID        string
	Name      string
	Email     string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AgentStats summarizes an agent's workload over a time window.
type AgentStats struct {
	AgentID                string
	AgentName              string
	TotalTickets           int64
	ClosedTickets          int64
	OverdueTickets         int64
	AvgResolutionTimeHours float64
	WindowStart            time.Time
	WindowEnd              time.Time
}
