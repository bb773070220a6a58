package api

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ValidationResponse carries the per-field validation messages.
type ValidationResponse struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields"`
}

// MessageResponse is a simple acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}
