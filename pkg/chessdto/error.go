package chessdto

// DomainError is the JSON error body. Code carries the rejection reason for
// illegal moves ("path_blocked") and a generic code otherwise.
type DomainError struct {
	Code      string `json:"reason"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "chess service error"
}
