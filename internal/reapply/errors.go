package reapply

import (
	"errors"
	"fmt"
)

// ErrLineCountMismatch is the cause of a strict-policy failure when the
// rewritten text has a different number of lines than the snapshot has
// paragraphs.
var ErrLineCountMismatch = errors.New("rewritten line count does not match paragraph count")

// ReapplicationError means the output document could not be built. Any
// partially written output must be discarded.
type ReapplicationError struct {
	Message string
	Cause   error
}

func (e *ReapplicationError) Error() string {
	if e.Cause == nil {
		return "reapplication failed: " + e.Message
	}
	return fmt.Sprintf("reapplication failed: %s: %v", e.Message, e.Cause)
}

func (e *ReapplicationError) Unwrap() error {
	return e.Cause
}
