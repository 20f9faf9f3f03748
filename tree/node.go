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

// Package tree assembles raw declarations into a single validated command
// tree and resolves each node's parameter chain.
//
// Construction is a two-phase build: local trees are constructed
// independently, then externally declared subtrees are spliced under their
// named link targets. The finished tree is immutable; it is safe to share
// across any number of concurrent dispatches without locking.
package tree

import (
	"strings"

	"github.com/bschnitz/tusks/decl"
)

// Kind distinguishes the three node roles in a command tree.
type Kind int

const (
	// KindRoot is the single top node; it has no parent. A root may carry a
	// handler (a single-command CLI) or children.
	KindRoot Kind = iota + 1

	// KindGroup has children and no handler; it exists to select among its
	// subcommands.
	KindGroup

	// KindLeaf has a handler and no children.
	KindLeaf
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindGroup:
		return "group"
	case KindLeaf:
		return "leaf"
	default:
		return "invalid"
	}
}

// Node is one validated command or command group. Nodes are built once by
// [Build] and never mutated afterwards.
type Node struct {
	kind    Kind
	name    string
	about   string
	version string

	args   []*decl.ArgSpec
	params *decl.ParamSet
	run    decl.RunFunc

	children []*Node
	byName   map[string]*Node

	// parent is a non-owning back-reference; ownership always flows
	// parent-to-child.
	parent *Node

	// chain is the resolved parameter chain, nearest-ancestor-first,
	// terminating at the root's parameter set. Populated after the full tree
	// is assembled.
	chain []*decl.ParamSet
}

// Kind returns the node's role in the tree.
func (n *Node) Kind() Kind { return n.kind }

// Name returns the command word for this node.
func (n *Node) Name() string { return n.name }

// About returns the one-line description.
func (n *Node) About() string { return n.about }

// Version returns the declared version string, normally empty below the
// root.
func (n *Node) Version() string { return n.version }

// Args returns the node-local argument specs. They are only consulted when
// the node has a handler.
func (n *Node) Args() []*decl.ArgSpec { return n.args }

// Params returns the node's parameter set. It is never nil: nodes declared
// without parameters get a synthesized empty set so chain navigation is
// always well-defined.
func (n *Node) Params() *decl.ParamSet { return n.params }

// Run returns the node's handler, or nil for groups.
func (n *Node) Run() decl.RunFunc { return n.run }

// Children returns the child nodes in declaration order.
func (n *Node) Children() []*Node {
	return append([]*Node(nil), n.children...)
}

// Child returns the named child, or nil.
func (n *Node) Child(name string) *Node {
	return n.byName[name]
}

// Parent returns the parent node, or nil on the root.
func (n *Node) Parent() *Node { return n.parent }

// Depth returns the number of ancestors above this node.
func (n *Node) Depth() int {
	d := 0
	for p := n.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

// Path returns the space-joined command words from the root down to this
// node, e.g. "my-tool user create".
func (n *Node) Path() string {
	var names []string
	for p := n; p != nil; p = p.parent {
		names = append(names, p.name)
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, " ")
}

// Chain returns the resolved parameter chain: this node's parameter set
// first, then each ancestor's, ending with the root's. Its length is always
// the node's depth plus one.
func (n *Node) Chain() []*decl.ParamSet {
	return append([]*decl.ParamSet(nil), n.chain...)
}

// Tree is a fully assembled and validated command tree.
type Tree struct {
	root *Node
}

// Root returns the tree's root node.
func (t *Tree) Root() *Node { return t.root }

// Walk visits every node in depth-first declaration order, parents before
// children. Walking stops at the first error, which is returned.
func (t *Tree) Walk(fn func(n *Node) error) error {
	return walk(t.root, fn)
}

func walk(n *Node, fn func(n *Node) error) error {
	if err := fn(n); err != nil {
		return err
	}
	for _, c := range n.children {
		if err := walk(c, fn); err != nil {
			return err
		}
	}
	return nil
}
