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

package tree

import (
	"context"
	"fmt"
	"strings"

	"github.com/bschnitz/tusks/decl"
	"github.com/bschnitz/tusks/logging"
)

// BuildError is a fatal declaration error. It identifies the offending node
// by its path from the root (or from the top of an external subtree that was
// not yet attached).
type BuildError struct {
	// Path is the space-joined command path of the offending node.
	Path string

	// Err is the underlying cause.
	Err error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("declaration %q: %s", e.Path, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

func buildErrf(path []string, format string, a ...any) error {
	return &BuildError{
		Path: strings.Join(path, " "),
		Err:  fmt.Errorf(format, a...),
	}
}

// pendingLink is an external subtree waiting to be spliced under its named
// target node.
type pendingLink struct {
	node   *Node
	target string
	as     string
}

// Build assembles the given declarations into a single validated command
// tree. The first argument is the root declaration (it must have Root set);
// the remaining arguments are independently declared subtrees carrying a
// LinkTo marker naming the node they attach under.
//
// Declarations marked Skip are pruned, together with their entire subtrees,
// before any other validation runs: a skipped node's otherwise-invalid
// contents never surface an error.
//
// After validation and link resolution, every node's parameter chain is
// resolved. The returned tree is immutable.
func Build(ctx context.Context, root *decl.Command, external ...*decl.Command) (*Tree, error) {
	logger := logging.FromContext(ctx)

	if root == nil {
		return nil, fmt.Errorf("no root declaration")
	}
	if root.Skip {
		return nil, fmt.Errorf("root declaration is skipped, no tree remains")
	}
	if !root.Root {
		return nil, buildErrf([]string{root.Name}, "first declaration must be marked as root")
	}
	if root.LinkTo != "" {
		return nil, buildErrf([]string{root.Name}, "root declaration cannot carry a link marker")
	}

	rootNode, err := buildSubtree(root, true)
	if err != nil {
		return nil, err
	}

	var pending []*pendingLink
	for _, ext := range external {
		if ext == nil || ext.Skip {
			continue
		}
		if ext.Root {
			return nil, buildErrf([]string{ext.Name}, "multiple declarations are marked as root")
		}
		if ext.LinkTo == "" {
			return nil, buildErrf([]string{ext.Name}, "external declaration is missing a link marker")
		}

		node, err := buildSubtree(ext, false)
		if err != nil {
			return nil, err
		}
		pending = append(pending, &pendingLink{
			node:   node,
			target: ext.LinkTo,
			as:     linkName(ext),
		})
	}

	if err := resolveLinks(rootNode, pending); err != nil {
		return nil, err
	}

	resolveChains(rootNode, nil)

	t := &Tree{root: rootNode}
	logger.DebugContext(ctx, "assembled command tree",
		"root", rootNode.Name(),
		"linked", len(pending))
	return t, nil
}

func linkName(d *decl.Command) string {
	if d.LinkAs != "" {
		return d.LinkAs
	}
	return d.Name
}

// buildSubtree converts one declaration (and its nested children) into
// nodes, pruning skipped declarations and validating names, parameter
// fields, and node shape.
func buildSubtree(d *decl.Command, isRoot bool) (*Node, error) {
	name := d.Name
	if !isRoot && d.LinkTo != "" {
		name = linkName(d)
	}
	return buildNode(d, name, isRoot, []string{name})
}

func buildNode(d *decl.Command, name string, isRoot bool, path []string) (*Node, error) {
	if name == "" {
		return nil, buildErrf(path, "command has no name")
	}
	if name == decl.SuperField {
		return nil, buildErrf(path, "command name %q is reserved for chain navigation", decl.SuperField)
	}

	if err := validateParams(d.Params, path); err != nil {
		return nil, err
	}

	n := &Node{
		name:    name,
		about:   d.About,
		version: d.Version,
		args:    append([]*decl.ArgSpec(nil), d.Args...),
		params:  d.Params,
		run:     d.Run,
		byName:  map[string]*Node{},
	}
	if n.params == nil {
		n.params = &decl.ParamSet{}
	}

	for _, c := range d.Children {
		if c == nil || c.Skip {
			continue
		}
		childPath := append(append([]string(nil), path...), c.Name)
		if c.Root {
			return nil, buildErrf(childPath, "multiple declarations are marked as root")
		}
		if c.LinkTo != "" {
			return nil, buildErrf(childPath, "link markers are only valid on the top of an external declaration")
		}
		if _, ok := n.byName[c.Name]; ok {
			return nil, buildErrf(childPath, "duplicate sibling command name %q", c.Name)
		}

		child, err := buildNode(c, c.Name, false, childPath)
		if err != nil {
			return nil, err
		}
		child.parent = n
		n.children = append(n.children, child)
		n.byName[child.name] = child
	}

	switch {
	case d.Run != nil && len(n.children) > 0:
		return nil, buildErrf(path, "command declares both a handler and subcommands")
	case isRoot:
		n.kind = KindRoot
	case d.Run != nil:
		n.kind = KindLeaf
	case len(n.children) > 0:
		n.kind = KindGroup
	default:
		return nil, buildErrf(path, "command declares neither a handler nor subcommands")
	}

	return n, nil
}

func validateParams(p *decl.ParamSet, path []string) error {
	if p == nil {
		return nil
	}
	seen := map[string]struct{}{}
	for _, f := range p.Fields {
		if f == nil || f.Name == "" {
			return buildErrf(path, "parameter field has no name")
		}
		if f.Name == decl.SuperField {
			return buildErrf(path, "parameter field name %q is reserved for chain navigation", decl.SuperField)
		}
		if _, ok := seen[f.Name]; ok {
			return buildErrf(path, "duplicate parameter field %q", f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// resolveLinks splices pending external subtrees under their named targets.
// It runs in passes so an external subtree may attach under another external
// subtree, as long as the link relation remains acyclic. Links that never
// find an attached target - because the target does not exist, or because
// the links form a cycle - are reported as errors.
func resolveLinks(root *Node, pending []*pendingLink) error {
	for len(pending) > 0 {
		progressed := false
		remaining := pending[:0]

		for _, l := range pending {
			target := findByName(root, l.target)
			if target == nil {
				remaining = append(remaining, l)
				continue
			}

			if target.kind == KindLeaf {
				return buildErrf([]string{l.node.name}, "link target %q is a leaf command and cannot take subcommands", l.target)
			}
			if _, ok := target.byName[l.as]; ok {
				return buildErrf([]string{l.node.name}, "link target %q already has a subcommand named %q", l.target, l.as)
			}

			l.node.parent = target
			target.children = append(target.children, l.node)
			target.byName[l.as] = l.node
			if target.kind != KindRoot && target.run == nil {
				target.kind = KindGroup
			}
			progressed = true
		}

		pending = remaining
		if !progressed {
			break
		}
	}

	for _, l := range pending {
		// Distinguish a self-referential link from a plainly missing target
		// for a clearer message. Either way the build fails.
		if findByName(l.node, l.target) != nil {
			return buildErrf([]string{l.node.name}, "subtree links to its own descendant %q", l.target)
		}
		return buildErrf([]string{l.node.name}, "link target %q not found or the links form a cycle", l.target)
	}
	return nil
}

// findByName returns the first node with the given name in depth-first
// declaration order, or nil.
func findByName(n *Node, name string) *Node {
	if n.name == name {
		return n
	}
	for _, c := range n.children {
		if found := findByName(c, name); found != nil {
			return found
		}
	}
	return nil
}

// resolveChains annotates every node with its parameter chain. Each node's
// chain depends only on its ancestors' parameter sets, which are final once
// the tree is assembled, so a single top-down pass suffices.
func resolveChains(n *Node, parentChain []*decl.ParamSet) {
	n.chain = append([]*decl.ParamSet{n.params}, parentChain...)
	for _, c := range n.children {
		resolveChains(c, n.chain)
	}
}
