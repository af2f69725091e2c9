// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package bag

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kinds of failure reported by a bag, test for them with errors.Is.
var (
	ErrConfigIO       = errors.New("texture config unreadable")
	ErrConfigFormat   = errors.New("invalid texture config")
	ErrUnknownTexture = errors.New("unknown texture id")
	ErrMaterialize    = errors.New("texture materialization failed")
)

// Error describes a failed load or texture request. None of them are
// recoverable by the bag, the failed operation leaves no state behind.
type Error struct {
	// Kind is one of the package errors.
	Kind error

	// Path of the texture config, if the config was read from a file.
	Path string

	// ID and Locator of the texture involved, if any.
	ID      string
	Locator string

	// Msg details a config format error.
	Msg string

	// Err is the underlying cause.
	Err error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Path != "" {
		msg += " " + e.Path
	}
	switch {
	case e.Msg != "":
		msg += ": " + e.Msg
	case e.Locator != "":
		msg += fmt.Sprintf(": %s (%s)", e.ID, e.Locator)
	case e.ID != "":
		msg += ": " + e.ID
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the error against its kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func formatError(format string, args ...interface{}) *Error {
	return &Error{
		Kind: ErrConfigFormat,
		Msg:  fmt.Sprintf(format, args...),
	}
}
