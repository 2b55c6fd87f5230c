package webhook

import "fmt"

// Rejection reasons returned by the guard before any store mutation happens.
const (
	ReasonMissingHeaders    = "missing_headers"
	ReasonInvalidPayload    = "invalid_payload"
	ReasonMissingRepository = "missing_repository"
	ReasonInvalidSignature  = "invalid_signature"
)

// RejectionError is returned when a delivery fails guard validation. These are
// input errors: the delivery is refused without touching the store or the
// audit trail.
type RejectionError struct {
	Reason  string
	Message string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("webhook rejected (%s): %s", e.Reason, e.Message)
}

// NewRejectionError creates a new RejectionError
func NewRejectionError(reason, message string) *RejectionError {
	return &RejectionError{Reason: reason, Message: message}
}

// IsRejection checks if the error is a guard rejection
func IsRejection(err error) (*RejectionError, bool) {
	rejection, ok := err.(*RejectionError)
	return rejection, ok
}
