package lifecycle

import "fmt"

// CallError wraps any failure while resolving, scaling, submitting or
// awaiting confirmation of a contract call. The underlying cause is
// always carried; the caller is responsible for surfacing it.
type CallError struct {
	Op  string
	Err error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s call failed: %v", e.Op, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

func callError(op string, format string, args ...interface{}) *CallError {
	return &CallError{Op: op, Err: fmt.Errorf(format, args...)}
}
