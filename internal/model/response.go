package model

// ProjectList is the admin listing of every project, drafts included.
type ProjectList struct {
	Success  bool      `json:"success"`
	Projects []Project `json:"projects"`
	Count    int       `json:"count"`
}

// ErrorResponse is the envelope of every error response:
// {"error":{"code":401,"message":"..."}}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the HTTP status, a message safe to show to the user
// and optional machine-readable context.
type ErrorDetail struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// MessageResponse is returned by endpoints that only report an outcome,
// such as logout or delete.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
