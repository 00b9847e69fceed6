package dto

import "time"

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Message      string    `json:"message" example:"run not found"`
	ErrorDetails string    `json:"error_details,omitempty" example:"no run with id 4f1c..."`
	Timestamp    time.Time `json:"timestamp" example:"2025-01-02T15:04:05Z"`
}

// NewErrorResponse builds an ErrorResponse; err, if any, becomes the details.
func NewErrorResponse(message string, err error) ErrorResponse {
	resp := ErrorResponse{Message: message, Timestamp: time.Now().UTC()}
	if err != nil {
		resp.ErrorDetails = err.Error()
	}
	return resp
}

func (e ErrorResponse) Error() string {
	if e.ErrorDetails == "" {
		return e.Message
	}
	return e.Message + ": " + e.ErrorDetails
}
