package pipeline

import "errors"

// Failure is the structured soft error returned in place of a payload.
type Failure struct {
	Code    string `json:"error"`
	Hint    string `json:"hint,omitempty"`
	Details string `json:"details,omitempty"`
}

// Result carries either a payload or a Failure. Transport code renders both with status 200.
type Result[T any] struct {
	Value   T
	Failure *Failure
}

// OK reports whether the result holds a payload.
func (r Result[T]) OK() bool {
	return r.Failure == nil
}

// Succeed wraps a payload.
func Succeed[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Fail wraps err as a Failure.
func Fail[T any](err error) Result[T] {
	return Result[T]{Failure: FailureFrom(err)}
}

// FailureFrom maps extraction errors to their own code and everything else to fetch_failed.
func FailureFrom(err error) *Failure {
	if err == nil {
		return nil
	}
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return &Failure{Code: ee.Code, Hint: ee.Hint}
	}
	return &Failure{Code: CodeFetchFailed, Details: err.Error()}
}
