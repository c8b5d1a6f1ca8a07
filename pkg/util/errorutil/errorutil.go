package errorutil

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes surfaced to API clients.
const (
	CodeValidation        = "VALIDATION_FAILED"
	CodeNotFound          = "NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeInternal          = "INTERNAL_ERROR"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeInvalidCloseState = "INVALID_CLOSE_STATE"
	CodeEmptySolution     = "EMPTY_SOLUTION"
	CodeAlreadyAssigned   = "ALREADY_ASSIGNED"
	CodeUnassigned        = "UNASSIGNED"
	CodeNoAgents          = "NO_AGENTS_AVAILABLE"
	CodeNotOverdue        = "NOT_OVERDUE"
)

// Sentinels for errors.Is. Any DomainError carrying the same code matches.
var (
	ErrValidation        = &DomainError{Code: CodeValidation}
	ErrNotFound          = &DomainError{Code: CodeNotFound}
	ErrConflict          = &DomainError{Code: CodeConflict}
	ErrInvalidTransition = &DomainError{Code: CodeInvalidTransition}
	ErrInvalidCloseState = &DomainError{Code: CodeInvalidCloseState}
	ErrEmptySolution     = &DomainError{Code: CodeEmptySolution}
	ErrAlreadyAssigned   = &DomainError{Code: CodeAlreadyAssigned}
	ErrUnassigned        = &DomainError{Code: CodeUnassigned}
	ErrNoAgentsAvailable = &DomainError{Code: CodeNoAgents}
	ErrNotOverdue        = &DomainError{Code: CodeNotOverdue}
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Message == "" {
		return e.Code
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInvalidTransition(from, to string) error {
	return NewDomainError(CodeInvalidTransition,
		fmt.Sprintf("invalid status transition from %s to %s", from, to),
		http.StatusConflict,
		map[string]any{"from": from, "to": to})
}

func NewInvalidCloseState(status string) error {
	return NewDomainError(CodeInvalidCloseState,
		"ticket must be in RESOLVED status to be closed",
		http.StatusConflict,
		map[string]any{"status": status})
}

func NewEmptySolution() error {
	return NewDomainError(CodeEmptySolution, "solution must not be blank", http.StatusBadRequest, nil)
}

func NewAlreadyAssigned(ticketID, agentID string) error {
	return NewDomainError(CodeAlreadyAssigned, "ticket already assigned", http.StatusConflict,
		map[string]any{"ticket_id": ticketID, "agent_id": agentID})
}

func NewUnassigned(ticketID string) error {
	return NewDomainError(CodeUnassigned, "ticket not assigned to any agent", http.StatusConflict,
		map[string]any{"ticket_id": ticketID})
}

func NewNoAgentsAvailable(message string) error {
	if message == "" {
		message = "no active agents available"
	}
	return NewDomainError(CodeNoAgents, message, http.StatusConflict, nil)
}

func NewNotOverdue(ticketID string) error {
	return NewDomainError(CodeNotOverdue, "ticket is not overdue", http.StatusConflict,
		map[string]any{"ticket_id": ticketID})
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		if domainErr.HTTPStatus == 0 {
			// bare sentinel; never mutate the shared value
			cp := *domainErr
			cp.HTTPStatus = statusForCode(cp.Code)
			cp.Message = cp.Error()
			return &cp
		}
		return domainErr
	}
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}

func statusForCode(code string) int {
	switch code {
	case CodeValidation, CodeEmptySolution:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusConflict
	}
}

// MapError converts any error to a DomainError, keeping nil as nil.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}
