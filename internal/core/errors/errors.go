package errors

const (
	HttpInternalError        = "internal_error"
	HttpInvalidJsonError     = "invalid_json"
	HttpInvalidPathError     = "invalid_path"
	HttpMissingIdentityError = "missing_identity"
	HttpNotFoundError        = "not_found"
	HttpForbiddenError       = "forbidden"
	HttpStoreUnavailable     = "store_unavailable"
)

// ErrorResponse is the error response body for transport-level failures
// (malformed requests, missing identity). Ledger outcomes use v1.Result instead.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}
