package dto

import "time"

// ErrorResponse is the JSON body returned for every failed request.
//
// Fields:
//   - Message: human readable summary of the failure.
//   - ErrorDetails: underlying error text, omitted when there is none.
//   - Timestamp: moment the response was built (UTC).
type ErrorResponse struct {
	Message      string    `json:"message" example:"invalid page"`
	ErrorDetails string    `json:"error,omitempty" example:"page must be >= 0"`
	Timestamp    time.Time `json:"timestamp"`
}

// Error makes ErrorResponse usable as an error value.
func (e ErrorResponse) Error() string {
	if e.ErrorDetails == "" {
		return e.Message
	}
	return e.Message + ": " + e.ErrorDetails
}

// NewErrorResponse builds an ErrorResponse, copying err's text when err is not nil.
func NewErrorResponse(message string, err error) ErrorResponse {
	resp := ErrorResponse{Message: message, Timestamp: time.Now().UTC()}
	if err != nil {
		resp.ErrorDetails = err.Error()
	}
	return resp
}
