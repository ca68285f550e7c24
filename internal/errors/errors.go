package errors

import "fmt"

// APIError represents a structured API error with an HTTP status code.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Error codes shared between handlers and response bodies.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternal           = "INTERNAL_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeOracleUnavailable  = "ORACLE_UNAVAILABLE"
	CodeGenerationTimeout  = "GENERATION_TIMEOUT"
)

func NotFound(resource, id string) *APIError {
	return &APIError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s '%s' not found", resource, id),
		Status:  404,
	}
}

func Validation(msg string) *APIError {
	return &APIError{
		Code:    CodeValidation,
		Message: msg,
		Status:  400,
	}
}

func TooManyRequests(msg string) *APIError {
	return &APIError{
		Code:    CodeRateLimited,
		Message: msg,
		Status:  429,
	}
}

func Internal(msg string) *APIError {
	return &APIError{
		Code:    CodeInternal,
		Message: msg,
		Status:  500,
	}
}

func ServiceUnavailable(msg string) *APIError {
	return &APIError{
		Code:    CodeServiceUnavailable,
		Message: msg,
		Status:  503,
	}
}

// OracleUnavailable reports that the embedding or strength model could not
// be reached.
func OracleUnavailable(msg string) *APIError {
	return &APIError{
		Code:    CodeOracleUnavailable,
		Message: msg,
		Status:  503,
	}
}

// GenerationTimeout reports that no full set of safe suggestions could be
// produced within the attempt or time budget.
func GenerationTimeout(msg string) *APIError {
	return &APIError{
		Code:    CodeGenerationTimeout,
		Message: msg,
		Status:  503,
	}
}
