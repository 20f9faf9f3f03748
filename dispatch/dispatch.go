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

// Package dispatch executes a compiled schema against a concrete argument
// vector: it resolves the subcommand path from root to leaf, parses the
// leaf's flattened argument surface, assembles the parameter-instance chain
// top-down, invokes the leaf handler, and translates the handler's result
// into a process exit code.
//
// Each call to [Dispatcher.Run] is independent and allocates its own
// parameter instances, so any number of dispatches may run concurrently
// against the same schema.
package dispatch

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bschnitz/tusks/argflag"
	"github.com/bschnitz/tusks/decl"
	"github.com/bschnitz/tusks/logging"
	"github.com/bschnitz/tusks/schema"
	"github.com/bschnitz/tusks/tree"
)

// Dispatcher routes argument vectors through a compiled schema. The zero
// value is not usable; create one with [New].
type Dispatcher struct {
	stdin          io.Reader
	stdout, stderr io.Writer
	lookupEnv      argflag.LookupEnvFunc
}

// Option customizes a dispatcher.
type Option func(d *Dispatcher) *Dispatcher

// WithStdin sets the stdin stream handed to handlers.
func WithStdin(r io.Reader) Option {
	return func(d *Dispatcher) *Dispatcher {
		if r != nil {
			d.stdin = r
		}
		return d
	}
}

// WithStdout sets the stdout stream handed to handlers.
func WithStdout(w io.Writer) Option {
	return func(d *Dispatcher) *Dispatcher {
		if w != nil {
			d.stdout = w
		}
		return d
	}
}

// WithStderr sets the stream used for parse failures and help output.
func WithStderr(w io.Writer) Option {
	return func(d *Dispatcher) *Dispatcher {
		if w != nil {
			d.stderr = w
		}
		return d
	}
}

// WithLookupEnv overrides the environment lookup used for argument
// defaults. Compose [argflag.MapLookuper] or a cfgloader lookup with the
// real environment via [argflag.MultiLookuper].
func WithLookupEnv(fn argflag.LookupEnvFunc) Option {
	return func(d *Dispatcher) *Dispatcher {
		if fn != nil {
			d.lookupEnv = fn
		}
		return d
	}
}

// New creates a dispatcher bound to the process streams unless overridden.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		stdin:     os.Stdin,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		lookupEnv: os.LookupEnv,
	}
	for _, opt := range opts {
		d = opt(d)
	}
	return d
}

// Run resolves and executes exactly one leaf handler for the given argument
// vector (excluding the program name). Help and version requests are
// written to stderr and return nil. Unknown subcommands, missing required
// arguments, and value-parse failures are returned as ordinary errors; they
// are user errors, never build errors, and never crash the process.
//
// The handler's error is returned as-is so [Execute] can apply the
// exit-code translation.
func (d *Dispatcher) Run(ctx context.Context, s *schema.Schema, args []string) error {
	logger := logging.FromContext(ctx)

	node := s.Root()
	version := node.Command().Version()
	rest := args

	// Resolve the subcommand path. Nodes with a handler terminate the walk;
	// everything else is a selector over its children.
	for node.Command().Run() == nil {
		name, remaining := extractCommandAndArgs(rest)

		// Short-circuit help.
		if name == "" || name == "-h" || name == "-help" || name == "--help" {
			fmt.Fprintln(d.stderr, d.groupHelp(node))
			return nil
		}

		// Short-circuit version.
		if name == "-v" || name == "-version" || name == "--version" {
			fmt.Fprintln(d.stderr, version)
			return nil
		}

		sub := node.Subcommand(name)
		if sub == nil {
			return fmt.Errorf("unknown command %q: run %q for a list of commands",
				name, node.Command().Path()+" -help")
		}
		if v := sub.Command().Version(); v != "" {
			version = v
		}
		node = sub
		rest = remaining
	}

	set, captured := node.NewFlagSet(argflag.WithLookupEnv(d.lookupEnv))

	// Short-circuit version on the handler node too, so a root that carries
	// its own handler can still report the version it declares. A leaf that
	// defines the flag itself wins.
	if len(rest) > 0 && version != "" {
		switch rest[0] {
		case "-v", "-version", "--version":
			if set.Lookup(strings.TrimLeft(rest[0], "-")) == nil {
				fmt.Fprintln(d.stderr, version)
				return nil
			}
		}
	}

	if err := set.Parse(rest); err != nil {
		if argflag.IsHelp(err) {
			fmt.Fprintln(d.stderr, d.leafHelp(node, set))
			return nil
		}
		return fmt.Errorf("%s: %w", node.Command().Path(), err)
	}

	params := buildParams(node.Command(), captured)
	inv := decl.NewInvocation(params, captured.Locals(), set.Args(), d.stdin, d.stdout, d.stderr)

	logger.DebugContext(ctx, "dispatching command",
		"path", node.Command().Path(),
		"chain", len(node.Command().Chain()))

	return node.Command().Run()(ctx, inv)
}

// Execute runs the argument vector and translates the result into a process
// exit code: nil maps to 0, an [ExitError] maps to its code as-is, and any
// other error prints to stderr and maps to 1. This is the only place exit
// code semantics are decided.
func (d *Dispatcher) Execute(ctx context.Context, s *schema.Schema, args []string) int {
	err := d.Run(ctx, s, args)
	if err != nil && !isExit(err) {
		fmt.Fprintf(d.stderr, "%s\n", err)
	}
	return ExitCode(err)
}

// buildParams constructs the parameter-instance chain for the matched leaf,
// root level first, so every instance's navigation reference is valid by
// the time it is linked.
func buildParams(leaf *tree.Node, captured *schema.Capture) *decl.ParamValue {
	chain := leaf.Chain()

	owners := make([]string, len(chain))
	n := leaf
	for i := range chain {
		owners[i] = n.Name()
		n = n.Parent()
	}

	var super *decl.ParamValue
	for i := len(chain) - 1; i >= 0; i-- {
		names := make([]string, 0, len(chain[i].Fields))
		for _, f := range chain[i].Fields {
			names = append(names, f.Name)
		}
		super = decl.NewParamValue(owners[i], names, captured.Level(i), super)
	}
	return super
}

// groupHelp renders the subcommand listing for a selector node, preserving
// declaration order.
func (d *Dispatcher) groupHelp(n *schema.Node) string {
	var b strings.Builder

	subs := n.Subcommands()
	longest := 0
	for _, s := range subs {
		if l := len(s.Command().Name()); l > longest {
			longest = l
		}
	}

	fmt.Fprintf(&b, "Usage: %s COMMAND\n\n", n.Command().Path())
	for _, s := range subs {
		fmt.Fprintf(&b, "  %-*s%s\n", longest+4, s.Command().Name(), s.Command().About())
	}

	return strings.TrimRight(b.String(), "\n")
}

// leafHelp renders usage and the flattened flag surface for a leaf.
func (d *Dispatcher) leafHelp(n *schema.Node, set *argflag.FlagSet) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Usage: %s [options]\n", n.Command().Path())
	if about := n.Command().About(); about != "" {
		fmt.Fprintf(&b, "\n  %s\n", about)
	}
	if flagHelp := set.Help(); flagHelp != "" {
		fmt.Fprintf(&b, "\n%s\n", flagHelp)
	}

	return strings.TrimRight(b.String(), "\n")
}

// extractCommandAndArgs is a helper that pulls the subcommand and arguments.
func extractCommandAndArgs(args []string) (string, []string) {
	switch len(args) {
	case 0:
		return "", nil
	case 1:
		return args[0], nil
	default:
		return args[0], args[1:]
	}
}
