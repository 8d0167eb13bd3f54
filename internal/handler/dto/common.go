// Package dto provides Data Transfer Objects for API requests and responses.
package dto

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}
