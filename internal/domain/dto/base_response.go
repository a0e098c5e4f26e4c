package dto

import "time"

// BaseResponse is the envelope wrapping every successful market endpoint payload.
type BaseResponse struct {
	Success   bool      `json:"success" example:"true"`
	Message   string    `json:"message,omitempty" example:"12 records"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Success wraps data in a successful envelope.
func Success(data any, message string) BaseResponse {
	return BaseResponse{Success: true, Message: message, Data: data, Timestamp: time.Now().UTC()}
}
