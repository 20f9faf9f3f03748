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

// Package decl defines the declaration model for a command-line program: a
// nested structure of commands, subcommand groups, shared parameter sets, and
// argument specs. Declarations are raw input; they are validated and assembled
// into a command tree by the tree package and are never consulted directly at
// dispatch time.
//
// A minimal declaration looks like:
//
//	root := &decl.Command{
//	  Name: "my-tool",
//	  Root: true,
//	  Children: []*decl.Command{
//	    {
//	      Name:   "version",
//	      About:  "Print version information",
//	      Run:    runVersion,
//	    },
//	  },
//	}
//
// Independently declared subtrees can be spliced under a node of another
// declaration by setting LinkTo to the target node's name; see the tree
// package for link resolution rules.
package decl

import (
	"context"
	"io"
)

// SuperField is the reserved chain-navigation identifier. Every parameter
// instance carries an automatically synthesized reference to its parent
// instance under this name, so declaring a parameter field (or a command)
// with this name is a build-time error.
const SuperField = "super"

// RunFunc is the signature of a leaf command handler. The returned error is
// translated to a process exit code by the dispatch package: nil maps to 0,
// a *dispatch.ExitError maps to its code, anything else maps to 1.
type RunFunc func(ctx context.Context, inv *Invocation) error

// Command is one raw declaration node. The zero value is not usable; at
// minimum Name must be set, and exactly one node in a declaration set must
// have Root set.
type Command struct {
	// Name is the command word used to select this node on the command line.
	// It must be unique among its siblings and must not be [SuperField].
	Name string

	// About is the human-friendly one-line description of the command.
	About string

	// Version is the version string reported for "-version". It is normally
	// set only on the root and is inherited downward.
	Version string

	// Params is the parameter set shared by this node and, through chain
	// resolution, by every descendant. A nil Params is equivalent to an empty
	// parameter set.
	Params *ParamSet

	// Args are the arguments local to this node. They are only consulted when
	// the node is a leaf.
	Args []*ArgSpec

	// Run is the handler. A node with Run and no Children becomes a leaf; a
	// node with Children and no Run becomes a group. Declaring both is a
	// build-time error.
	Run RunFunc

	// Children are the nested subcommand declarations, in the order they
	// should appear in help output.
	Children []*Command

	// Root marks this node as the tree root. Exactly one declaration among
	// all inputs to a build must be marked.
	Root bool

	// Skip excludes this node and its entire subtree from the build. Skipped
	// subtrees are pruned before any validation, so their contents can never
	// surface an error.
	Skip bool

	// LinkTo names a node of another declaration under which this subtree is
	// spliced at build time. Only meaningful on the top node of an
	// independently declared subtree.
	LinkTo string

	// LinkAs overrides the command name used when this subtree is spliced
	// under its LinkTo target. Empty means use Name.
	LinkAs string
}

// ArgSpec describes a single argument. The core does not interpret values; it
// shapes them into a parser schema and routes the parsed results.
type ArgSpec struct {
	// Name is the long flag name, without leading dashes.
	Name string

	// Aliases are alternate flag names, typically single letters.
	Aliases []string

	// Usage is the help text.
	Usage string

	// Example is an example value shown in help output.
	Example string

	// Default is the value used when the flag is absent from argv and the
	// environment.
	Default string

	// Required reports whether parsing fails when the flag is absent.
	Required bool

	// Hidden removes the flag from help output without disabling it.
	Hidden bool

	// EnvVar names an environment variable consulted for a default value.
	EnvVar string

	// Parse converts the raw string into the value handed to the handler. A
	// nil Parse passes the string through unchanged.
	Parse func(val string) (any, error)
}

// Invocation carries everything a leaf handler receives: its parsed local
// arguments, the resolved parameter-instance chain, the positional rest
// arguments, and the process streams.
type Invocation struct {
	params *ParamValue
	values map[string]any
	rest   []string

	stdin          io.Reader
	stdout, stderr io.Writer
}

// NewInvocation assembles an invocation. It is exported for the dispatch
// package and for tests that call handlers directly; the values map is
// copied, so the invocation is unaffected by later mutation of the argument.
func NewInvocation(params *ParamValue, values map[string]any, rest []string, stdin io.Reader, stdout, stderr io.Writer) *Invocation {
	cp := make(map[string]any, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return &Invocation{
		params: params,
		values: cp,
		rest:   rest,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}
}

// Params returns the parameter instance for the leaf's own chain level. It is
// never nil; a leaf with no declared parameters receives an empty instance
// whose Super chain still reaches the root.
func (i *Invocation) Params() *ParamValue {
	return i.params
}

// Lookup returns the parsed value of the named leaf-local argument.
func (i *Invocation) Lookup(name string) (any, bool) {
	v, ok := i.values[name]
	return v, ok
}

// String returns the parsed value of the named leaf-local argument as a
// string, or "" if it is absent or not a string.
func (i *Invocation) String(name string) string {
	v, ok := i.values[name]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// Rest returns the positional arguments remaining after flag parsing.
func (i *Invocation) Rest() []string {
	return i.rest
}

// Stdin returns the stdin stream for this invocation.
func (i *Invocation) Stdin() io.Reader {
	return i.stdin
}

// Stdout returns the stdout stream for this invocation.
func (i *Invocation) Stdout() io.Writer {
	return i.stdout
}

// Stderr returns the stderr stream for this invocation.
func (i *Invocation) Stderr() io.Writer {
	return i.stderr
}
