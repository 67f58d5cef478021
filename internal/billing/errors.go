package billing

// UnavailableMessage is the only text ever shown to users when the billing
// service cannot be reached. The transport cause stays server-side.
const UnavailableMessage = "Service temporarily unavailable, please try again later."

// UnavailableError means the exchange with the billing service did not
// complete: connection refused, timeout, DNS failure, or a garbled body.
type UnavailableError struct {
	cause error
}

func (e *UnavailableError) Error() string {
	return UnavailableMessage
}

// Cause returns the underlying transport error for logging. It is never
// part of the user-facing message.
func (e *UnavailableError) Cause() error {
	return e.cause
}

// RejectedError means the billing service answered and declined the
// operation. Status, message and per-field errors come from the error body
// and are safe to render to the caller.
type RejectedError struct {
	Status      int
	Message     string
	FieldErrors map[string][]string
}

func (e *RejectedError) Error() string {
	return e.Message
}
