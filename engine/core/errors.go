package core

import (
	"errors"
	"fmt"
	"runtime"
)

var (
	ErrTextureNotCreated = errors.New("texture has not been created")
	ErrNoBackingStore    = errors.New("texture has no cpu backing store")
	ErrInvalidBackend    = errors.New("unknown renderer backend")
	ErrDeviceDestroyed   = errors.New("render device already destroyed")
	ErrUnknownHandle     = errors.New("unknown handle")
	ErrUnknown           = errors.New("unknown")
)

// AssertionError is raised when an engine invariant is violated. It signals a
// programming error and is never returned as an ordinary error value.
type AssertionError struct {
	Description string
	File        string
	Line        int
}

func (e *AssertionError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("assertion failed: %s", e.Description)
	}
	return fmt.Sprintf("assertion failed at %s:%d: %s", e.File, e.Line, e.Description)
}

// Assert panics with an *AssertionError when expression is false.
func Assert(expression bool, description string, args ...interface{}) {
	if expression {
		return
	}
	Abort(fmt.Sprintf(description, args...))
}

// Abort raises an *AssertionError unconditionally.
func Abort(description string) {
	_, file, line, _ := runtime.Caller(2)
	err := &AssertionError{
		Description: description,
		File:        file,
		Line:        line,
	}
	LogError(err.Error())
	panic(err)
}

// AsAssertion reports whether a recovered value is an engine assertion.
func AsAssertion(recovered interface{}) (*AssertionError, bool) {
	if recovered == nil {
		return nil, false
	}
	if err, ok := recovered.(*AssertionError); ok {
		return err, true
	}
	if err, ok := recovered.(error); ok {
		var ae *AssertionError
		if errors.As(err, &ae) {
			return ae, true
		}
	}
	return nil, false
}
