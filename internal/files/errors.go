package files

import "errors"

var (
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("File not found")
	ErrStorage      = errors.New("storage unavailable")
)

// ErrDuplicateName is returned when another live record already uses the
// display name.
var ErrDuplicateName error = conflictError("duplicate name")

// ErrBlobMissing is returned when a record exists but its bytes do not.
var ErrBlobMissing error = notFoundError("File not found on server")

type badRequestError string

func (e badRequestError) Error() string        { return string(e) }
func (e badRequestError) Is(target error) bool { return target == ErrInvalidInput }

type forbiddenError string

func (e forbiddenError) Error() string        { return string(e) }
func (e forbiddenError) Is(target error) bool { return target == ErrForbidden }

type conflictError string

func (e conflictError) Error() string        { return string(e) }
func (e conflictError) Is(target error) bool { return target == ErrConflict }

type notFoundError string

func (e notFoundError) Error() string        { return string(e) }
func (e notFoundError) Is(target error) bool { return target == ErrNotFound }
