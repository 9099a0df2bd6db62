package shared

import "fmt"

// DomainError is the base error type for all domain errors
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func NewDomainError(message string) *DomainError {
	return &DomainError{Message: message}
}

// Validation error

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// Lookup errors

type NotFoundError struct {
	*DomainError
	Kind string
	Key  string
}

func NewNotFoundError(kind, key string) *NotFoundError {
	return &NotFoundError{
		DomainError: NewDomainError(fmt.Sprintf("%s not found: %s", kind, key)),
		Kind:        kind,
		Key:         key,
	}
}

// Session errors

type SessionError struct {
	*DomainError
	SessionID string
}

func NewSessionError(sessionID, message string) *SessionError {
	return &SessionError{
		DomainError: NewDomainError(fmt.Sprintf("session %s: %s", sessionID, message)),
		SessionID:   sessionID,
	}
}
