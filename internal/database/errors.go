package database

import (
	"errors"
	"fmt"
)

// ErrStorageUnavailable means the backing store could not be created or opened
var ErrStorageUnavailable = errors.New("storage unavailable")

// ErrMissingField is wrapped by validation failures
var ErrMissingField = errors.New("missing required field")

func errMissingField(name string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, name)
}

// RecordInsertError describes one record of a batch that could not be stored
type RecordInsertError struct {
	PDFID string
	Err   error
}

func (e *RecordInsertError) Error() string {
	return fmt.Sprintf("insert %q: %v", e.PDFID, e.Err)
}

func (e *RecordInsertError) Unwrap() error {
	return e.Err
}
