package common

import (
	"errors"
	"fmt"
)

// Failure kinds the pipeline distinguishes. Callers branch on these with
// errors.Is instead of inferring the cause from an absent result.
var (
	ErrLoad              = errors.New("load failure")
	ErrDecode            = errors.New("decode failure")
	ErrRasterize         = errors.New("rasterize failure")
	ErrRecognition       = errors.New("recognition failure")
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// AppError ties a failure kind to the offending path and a human-readable
// message.
type AppError struct {
	Kind  error // one of the Err* sentinels above
	Path  string
	Msg   string
	Cause error
}

func (e *AppError) Error() string {
	s := e.Msg
	if e.Path != "" {
		s = e.Path + ": " + s
	}
	if e.Cause != nil {
		s = fmt.Sprintf("%s: %v", s, e.Cause)
	}
	return s
}

// Unwrap exposes both the failure kind and the underlying cause, so
// errors.Is matches either.
func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func NewAppError(kind error, path, msg string, cause error) *AppError {
	return &AppError{Kind: kind, Path: path, Msg: msg, Cause: cause}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
