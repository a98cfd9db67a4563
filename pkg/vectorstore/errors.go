package vectorstore

import "fmt"

// StoreError wraps a failed vector store request. Collection absence is
// not a failure: Exists and Stats report it as a valid state instead.
type StoreError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("vector store %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying request error.
func (e *StoreError) Unwrap() error {
	return e.Err
}
