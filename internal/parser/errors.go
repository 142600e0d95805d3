package parser

import "fmt"

// MalformedDocumentError is returned when input bytes cannot be read as a
// document container. No partial snapshot accompanies it.
type MalformedDocumentError struct {
	Message string
	Cause   error
}

func (e *MalformedDocumentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed document: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("malformed document: %s", e.Message)
}

func (e *MalformedDocumentError) Unwrap() error {
	return e.Cause
}
