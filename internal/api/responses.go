package api

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

// FieldErrorResponse carries per-field messages, rendered next to form inputs.
type FieldErrorResponse struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}
