package attest

import "fmt"

// ErrorResponse represents an attestation API error response
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Code       string `json:"code"`
	Message    string `json:"error"`
}

func (e *ErrorResponse) Error() string {
	return fmt.Sprintf("attestation API error [%d]: %s", e.StatusCode, e.Message)
}

func (e *ErrorResponse) IsNotFound() bool {
	return e.StatusCode == 404
}

func (e *ErrorResponse) IsRateLimited() bool {
	return e.StatusCode == 429
}

// ErrNoMessages indicates no messages were found for the transaction
var ErrNoMessages = fmt.Errorf("no messages found for transaction")
