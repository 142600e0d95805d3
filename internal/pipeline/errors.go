package pipeline

import "fmt"

// RewriteFailedError means a chunk could not be rewritten. The run is
// aborted before reapplication and no output is written.
type RewriteFailedError struct {
	Chunk int // zero-based
	Total int
	Cause error
}

func (e *RewriteFailedError) Error() string {
	return fmt.Sprintf("rewrite failed on chunk %d of %d: %v", e.Chunk+1, e.Total, e.Cause)
}

func (e *RewriteFailedError) Unwrap() error {
	return e.Cause
}
