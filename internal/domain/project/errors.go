package project

import (
	"errors"
	"fmt"
)

var (
	// ErrProjectNotFound indicates the project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")
	// ErrInvalidInput indicates invalid project input.
	ErrInvalidInput = errors.New("invalid project input")
	// ErrInvalidStatus indicates a status outside the lifecycle enum.
	ErrInvalidStatus = errors.New("invalid project status")
	// ErrInvalidTransition indicates a rejected status change under strict transitions.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrDuplicateID indicates two records in one collection share an id.
	ErrDuplicateID = errors.New("duplicate project id")
	// ErrInvalidImport indicates an import document that is neither an envelope nor a record list.
	ErrInvalidImport = errors.New("invalid import document")
	// ErrCorruptData indicates a stored blob that cannot be decoded.
	ErrCorruptData = errors.New("corrupt project data")
	// ErrIDExhausted indicates the id generator kept returning ids already in use.
	ErrIDExhausted = errors.New("no unused project id available")
)

// StorageError reports a failed read or write against the backing store.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
