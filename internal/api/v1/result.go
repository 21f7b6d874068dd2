package v1

// ResultError is the error arm of a ledger result.
type ResultError struct {
	Kind    string `json:"kind"`
	Message string `json:"message,omitempty"`
}

// Result is the tagged {ok}|{err} shape returned by every mutating endpoint.
// Exactly one of Ok and Err is set.
type Result struct {
	Ok  any          `json:"ok,omitempty"`
	Err *ResultError `json:"err,omitempty"`
}

// OkResult wraps a success value. Operations without a value report true.
func OkResult(v any) Result {
	if v == nil {
		v = true
	}
	return Result{Ok: v}
}

// ErrResult wraps one typed failure.
func ErrResult(kind, message string) Result {
	return Result{Err: &ResultError{Kind: kind, Message: message}}
}
