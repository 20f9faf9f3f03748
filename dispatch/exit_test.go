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
	"fmt"
	"testing"
)

func TestExitCode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		exp  int
	}{
		{name: "nil", err: nil, exp: 0},
		{name: "plain_error", err: fmt.Errorf("boom"), exp: 1},
		{name: "exit", err: Exit(4), exp: 4},
		{name: "exit_zero", err: Exit(0), exp: 0},
		{name: "wrapped_exit", err: fmt.Errorf("context: %w", Exit(7)), exp: 7},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := ExitCode(tc.err); got != tc.exp {
				t.Errorf("expected %d to be %d", got, tc.exp)
			}
		})
	}
}

func TestExitError_Error(t *testing.T) {
	t.Parallel()

	if got, want := Exit(3).Error(), "exit code 3"; got != want {
		t.Errorf("expected %q to be %q", got, want)
	}
}
