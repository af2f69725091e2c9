// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"errors"
)

type usageError struct {
	error
}

func newUsageError(msg string) usageError {
	return usageError{error: errors.New(msg)}
}

var errorWantedNoArgs = newUsageError("expected no (non-flag) arguments")

func exactlyOneArg(what string, args []string) error {
	if len(args) != 1 {
		return newUsageError("expected exactly one argument: " + what)
	}
	return nil
}
