package aliexpress

import "strings"

// ErrorType buckets gateway error responses for logging.
type ErrorType int

const (
	ErrorUnknown ErrorType = iota
	ErrorRateLimited
	ErrorInvalidSignature
	ErrorMissingParameter
	ErrorPermission
	ErrorSystem
)

// APIError carries a classified gateway error. It is used for log
// specificity only; the client still reports plain absence to its callers.
type APIError struct {
	Type      ErrorType
	Code      string
	Message   string
	Retryable bool
}

func (e *APIError) Error() string {
	return e.Message
}

// classifyErrorResponse buckets an error_response by its code and message.
// The gateway mixes numeric and symbolic codes across APIs, so matching is
// by keyword rather than an exhaustive code table.
func classifyErrorResponse(er *errorResponse) *APIError {
	apiErr := &APIError{
		Type:    ErrorUnknown,
		Code:    string(er.Code),
		Message: er.Msg,
	}
	if er.SubMsg != "" {
		apiErr.Message += ": " + er.SubMsg
	}

	haystack := strings.ToLower(er.Msg + " " + er.SubMsg + " " + string(er.Code) + " " + er.SubCode)
	switch {
	case strings.Contains(haystack, "limit") || strings.Contains(haystack, "flow control"):
		apiErr.Type = ErrorRateLimited
		apiErr.Retryable = true
	case strings.Contains(haystack, "sign"):
		apiErr.Type = ErrorInvalidSignature
	case strings.Contains(haystack, "param") || strings.Contains(haystack, "missing"):
		apiErr.Type = ErrorMissingParameter
	case strings.Contains(haystack, "permission") || strings.Contains(haystack, "unauthorized"):
		apiErr.Type = ErrorPermission
	case strings.Contains(haystack, "system error") || strings.Contains(haystack, "service unavailable"):
		apiErr.Type = ErrorSystem
		apiErr.Retryable = true
	}
	return apiErr
}
