package response

// StandardApiResponse is the uniform JSON envelope of the reservation API.
// Data carries the payload on success; Errors carries validation detail or
// the underlying failure on error responses. Both are omitted when empty.
type StandardApiResponse struct {
	Status     string      `json:"status"`
	StatusCode int         `json:"status_code"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
	Errors     interface{} `json:"errors,omitempty"`
}
