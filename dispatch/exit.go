// Copyright 2023 The Authors (see AUTHORS file)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dispatch

import (
	"errors"
	"fmt"
)

// ExitError carries an explicit process exit code out of a handler. A
// handler that wants a specific code - including an explicit 0 - returns
// one via [Exit]; its code is used as-is.
type ExitError struct {
	// Code is the process exit code.
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// Exit returns an error that maps to the given process exit code.
func Exit(code int) error {
	return &ExitError{Code: code}
}

// ExitCode translates a handler or dispatch result into a process exit
// code: nil maps to 0, an [ExitError] maps to its code as-is, and any other
// error maps to 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return 1
}

func isExit(err error) bool {
	var ee *ExitError
	return errors.As(err, &ee)
}
