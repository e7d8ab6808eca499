package dto

import "net/http"

// Error code constants
// Format: ERR_<CATEGORY>_<DESCRIPTION>
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeValidation is used for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeUpstream is used when an upstream system (ERP, marketplace)
	// rejects or fails the request
	ErrCodeUpstream = "ERR_UPSTREAM"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeValidation: http.StatusBadRequest,
	ErrCodeNotFound:   http.StatusNotFound,
	ErrCodeUpstream:   http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainErrorCodeMapping maps domain error codes to API error codes
var domainErrorCodeMapping = map[string]string{
	"NOT_FOUND":              ErrCodeNotFound,
	"INVALID_STORE":          ErrCodeBadRequest,
	"INVALID_ARTICLE":        ErrCodeBadRequest,
	"INVALID_BRAND":          ErrCodeBadRequest,
	"INVALID_CATEGORY":       ErrCodeBadRequest,
	"INVALID_MARKETPLACE_ID": ErrCodeBadRequest,
	"INVALID_PRICE":          ErrCodeBadRequest,
	"INVALID_QUANTITY":       ErrCodeBadRequest,
	"UNSUPPORTED_CATEGORY":   ErrCodeValidation,
	"CATALOG_UNAVAILABLE":    ErrCodeUpstream,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Unknown codes pass through as-is.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := domainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
