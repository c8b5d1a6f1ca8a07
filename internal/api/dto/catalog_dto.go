package dto

import "time"

// CreateAgentRequest payload.
type CreateAgentRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SetAgentActiveRequest payload.
type SetAgentActiveRequest struct {
	Active *bool `json:"active"`
}

// AgentResponse represents an agent.
type AgentResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateCategoryRequest payload.
type CreateCategoryRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	SLAID       *string `json:"sla_id"`
}

// CategoryResponse represents a category.
type CategoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	SLAID       *string   `json:"sla_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateSLARequest payload.
type CreateSLARequest struct {
	Name                string `json:"name"`
	Description         string `json:"description"`
	ResponseTimeHours   int    `json:"response_time_hours"`
	ResolutionTimeHours int    `json:"resolution_time_hours"`
}

// SLAResponse represents an SLA policy.
type SLAResponse struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Description         string    `json:"description"`
	ResponseTimeHours   int       `json:"response_time_hours"`
	ResolutionTimeHours int       `json:"resolution_time_hours"`
	CreatedAt           time.Time `json:"created_at"`
}

// CreateUserRequest payload.
type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserResponse represents an end-user.
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
