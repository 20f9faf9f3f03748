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
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/bschnitz/tusks/decl"
)

// Prompt reads one line of input from the invocation's stdin. If stdin is
// an interactive terminal, the message is printed to stdout first;
// otherwise input is consumed silently, which keeps piped usage quiet.
func Prompt(inv *decl.Invocation, msg string) (string, error) {
	scanner := bufio.NewScanner(io.LimitReader(inv.Stdin(), 64*1_000))

	if inv.Stdin() == os.Stdin && isatty.IsTerminal(os.Stdin.Fd()) {
		fmt.Fprint(inv.Stdout(), msg)
	}

	scanner.Scan()

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return scanner.Text(), nil
}
