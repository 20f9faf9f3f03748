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

package dispatch_test

import (
	"context"
	"fmt"
	"os"

	"github.com/bschnitz/tusks/buildinfo"
	"github.com/bschnitz/tusks/decl"
	"github.com/bschnitz/tusks/dispatch"
	"github.com/bschnitz/tusks/schema"
	"github.com/bschnitz/tusks/tree"
)

// Example demonstrates declaring a small tool, compiling it, and executing
// one invocation. A real program would pass os.Args[1:] and call os.Exit
// with the result.
func Example() {
	ctx := context.Background()

	root := &decl.Command{
		Name:    "greeter",
		About:   "Greets people",
		Version: buildinfo.Version(),
		Root:    true,
		Params: &decl.ParamSet{Fields: []*decl.Field{
			{Name: "greeting", Arg: &decl.ArgSpec{
				Name:    "greeting",
				Usage:   "Word to greet with.",
				Default: "Hello",
			}},
		}},
		Children: []*decl.Command{
			{
				Name:  "greet",
				About: "Print a greeting",
				Args: []*decl.ArgSpec{
					{Name: "name", Usage: "Who to greet.", Required: true},
				},
				Run: func(ctx context.Context, inv *decl.Invocation) error {
					greeting := inv.Params().Super().String("greeting")
					fmt.Fprintf(inv.Stdout(), "%s, %s!\n", greeting, inv.String("name"))
					return nil
				},
			},
		},
	}

	t, err := tree.Build(ctx, root)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	s, err := schema.Compile(ctx, t)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}

	d := dispatch.New(dispatch.WithStdout(os.Stdout))
	code := d.Execute(ctx, s, []string{"greet", "-name", "World"})
	fmt.Println("exit:", code)

	// Output:
	// Hello, World!
	// exit: 0
}
