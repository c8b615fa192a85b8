package housekeeper

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by directory validation. Both are fatal to the
// requested operation; callers match them with errors.Is to pick a status.
var (
	ErrDirectoryNotFound = errors.New("directory not found")
	ErrProtectedPath     = errors.New("directory is in a protected system location")
)

// ErrInvalidPattern marks a pattern override that does not compile. Raised
// before any filesystem access happens.
var ErrInvalidPattern = errors.New("invalid pattern")

// OperationError wraps an unexpected traversal or comparison failure that is
// not covered by the validation sentinels. Fatal to the call that raised it.
type OperationError struct {
	Op   string
	Path string
	Err  error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// RemovalError records a single file that could not be deleted. Collected
// into the cleanup result, never escalated.
type RemovalError struct {
	Path    string `json:"path"`
	Pattern string `json:"pattern"`
	Reason  string `json:"reason"`
}

// MoveError records a single subdirectory that could not be relocated.
type MoveError struct {
	Name        string `json:"name"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Reason      string `json:"reason"`
}
