package core

import (
	"errors"
	"fmt"
)

// MalformedRecordError reports a spectrum whose charge cannot be extracted.
// It is fatal for a run.
type MalformedRecordError struct {
	Title string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	title := e.Title
	if title == "" {
		title = "<untitled>"
	}
	return fmt.Sprintf("malformed spectrum %s: %v", title, e.Err)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

// IsMalformedRecord reports whether err wraps a *MalformedRecordError.
func IsMalformedRecord(err error) bool {
	var e *MalformedRecordError
	return errors.As(err, &e)
}
