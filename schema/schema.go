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

// Package schema lowers a validated command tree into the flat, per-node
// shape the argflag parsing layer consumes: for every group a subcommand
// selector, for every leaf the union of its own argument specs and the specs
// contributed by every parameter set in its chain.
//
// Lowering is purely structural. It performs no parsing and fails only on
// schema-level conflicts, such as two chain levels explicitly declaring the
// same flag name with incompatible requiredness. Identically named fields at
// different chain depths are disambiguated by prefixing the farther one with
// the name of the node that owns it.
package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/bschnitz/tusks/argflag"
	"github.com/bschnitz/tusks/decl"
	"github.com/bschnitz/tusks/logging"
	"github.com/bschnitz/tusks/sets"
	"github.com/bschnitz/tusks/tree"
)

// LevelLocal marks a binding populated from a leaf-local argument spec
// rather than from a parameter-chain level.
const LevelLocal = -1

// Binding connects one flag in a leaf's flattened argument surface back to
// the spec it populates: either a leaf-local argument or a field of some
// chain level's parameter set.
type Binding struct {
	// Flag is the possibly namespaced flag name registered with the parser.
	Flag string

	// Field is the declared name: the argument spec name for local bindings,
	// or the parameter field name for chain bindings.
	Field string

	// Level is the chain index this binding populates, with 0 being the
	// leaf's own parameter set and increasing toward the root, or
	// [LevelLocal] for a leaf-local argument.
	Level int

	// Owner is the name of the node whose declaration contributed the spec.
	Owner string

	// Spec is the argument spec carried through to the parser.
	Spec *decl.ArgSpec
}

// Node is the compiled schema for one command node.
type Node struct {
	cmd  *tree.Node
	subs []*Node

	// bindings is non-empty only on nodes with a handler.
	bindings []*Binding
}

// Command returns the underlying tree node.
func (n *Node) Command() *tree.Node { return n.cmd }

// Subcommands returns the compiled children in declaration order.
func (n *Node) Subcommands() []*Node {
	return append([]*Node(nil), n.subs...)
}

// Subcommand returns the compiled child with the given command word, or nil.
func (n *Node) Subcommand(name string) *Node {
	for _, s := range n.subs {
		if s.cmd.Name() == name {
			return s
		}
	}
	return nil
}

// Bindings returns the node's flattened argument surface. It is empty for
// groups, which compile to a pure subcommand selector.
func (n *Node) Bindings() []*Binding {
	return append([]*Binding(nil), n.bindings...)
}

// Schema is a compiled command tree, ready for dispatch.
type Schema struct {
	root *Node
}

// Root returns the compiled root node.
func (s *Schema) Root() *Node { return s.root }

// Compile lowers the tree into per-node parser schemas. The tree must have
// been produced by tree.Build; Compile assumes chains are already resolved.
func Compile(ctx context.Context, t *tree.Tree) (*Schema, error) {
	logger := logging.FromContext(ctx)

	root, err := compileNode(t.Root())
	if err != nil {
		return nil, err
	}

	logger.DebugContext(ctx, "compiled parser schema", "root", t.Root().Name())
	return &Schema{root: root}, nil
}

func compileNode(cmd *tree.Node) (*Node, error) {
	n := &Node{cmd: cmd}

	if cmd.Run() != nil {
		bindings, err := flatten(cmd)
		if err != nil {
			return nil, err
		}
		n.bindings = bindings
	}

	for _, c := range cmd.Children() {
		sub, err := compileNode(c)
		if err != nil {
			return nil, err
		}
		n.subs = append(n.subs, sub)
	}
	return n, nil
}

// flatten computes a leaf's argument surface: its own specs first, then each
// chain level's fields from nearest to farthest. The nearest declaration of
// a flag name keeps the bare name; a farther duplicate is prefixed with its
// owning node's name. Explicitly conflicting requiredness is an error, as
// is a declared default its own parse func rejects.
func flatten(cmd *tree.Node) ([]*Binding, error) {
	type level struct {
		owner    string
		chainIdx int
		bindings []*Binding
	}

	var levels []*level

	local := &level{owner: cmd.Name(), chainIdx: LevelLocal}
	for _, spec := range cmd.Args() {
		if spec == nil || spec.Name == "" {
			return nil, fmt.Errorf("schema %q: argument spec has no name", cmd.Path())
		}
		local.bindings = append(local.bindings, &Binding{
			Flag:  spec.Name,
			Field: spec.Name,
			Level: LevelLocal,
			Owner: cmd.Name(),
			Spec:  spec,
		})
	}
	levels = append(levels, local)

	owner := cmd
	for i, ps := range cmd.Chain() {
		lv := &level{owner: owner.Name(), chainIdx: i}
		for _, f := range ps.Fields {
			lv.bindings = append(lv.bindings, &Binding{
				Flag:  FlagName(f.Name),
				Field: f.Name,
				Level: i,
				Owner: owner.Name(),
				Spec:  f.Arg,
			})
		}
		levels = append(levels, lv)
		owner = owner.Parent()
	}

	var out []*Binding
	var used []string
	specFor := map[string]*decl.ArgSpec{}

	for _, lv := range levels {
		names := make([]string, 0, len(lv.bindings))
		for _, b := range lv.bindings {
			names = append(names, b.Flag)
		}

		for _, dup := range sets.IntersectStable(names, used) {
			for _, b := range lv.bindings {
				if b.Flag != dup {
					continue
				}
				prev := specFor[dup]
				if prev != nil && b.Spec != nil && prev.Required != b.Spec.Required {
					return nil, fmt.Errorf("schema %q: flag -%s is declared at multiple chain levels with conflicting requiredness", cmd.Path(), dup)
				}
				b.Flag = FlagName(lv.owner) + "-" + b.Flag
				if sliceHas(used, b.Flag) {
					return nil, fmt.Errorf("schema %q: flag -%s conflicts across chain levels even after namespacing", cmd.Path(), b.Flag)
				}
			}
		}

		seenHere := map[string]struct{}{}
		for _, b := range lv.bindings {
			if _, ok := seenHere[b.Flag]; ok {
				// Duplicate within one level: two local specs or two fields
				// lowering to the same flag name.
				return nil, fmt.Errorf("schema %q: duplicate flag -%s", cmd.Path(), b.Flag)
			}
			seenHere[b.Flag] = struct{}{}
			if b.Spec != nil && b.Spec.Default != "" && b.Spec.Parse != nil {
				if _, err := b.Spec.Parse(b.Spec.Default); err != nil {
					return nil, fmt.Errorf("schema %q: invalid default %q for -%s: %w", cmd.Path(), b.Spec.Default, b.Flag, err)
				}
			}
			out = append(out, b)
			if b.Spec != nil {
				specFor[b.Flag] = b.Spec
			}
		}
		used = sets.Union(used, flagNames(lv.bindings))
	}

	return out, nil
}

func flagNames(bs []*Binding) []string {
	out := make([]string, 0, len(bs))
	for _, b := range bs {
		out = append(out, b.Flag)
	}
	return out
}

func sliceHas(haystack []string, needle string) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}

// FlagName converts a declared field name into its command-line spelling:
// underscores become dashes, so the field "user_config" surfaces as the flag
// "-user-config".
func FlagName(field string) string {
	return strings.ReplaceAll(field, "_", "-")
}

// NewFlagSet builds the argflag set for this node's argument surface,
// returning the set together with a capture that exposes the parsed values
// once Parse has run. Each call allocates fresh targets, so concurrent
// dispatches never share parse state.
func (n *Node) NewFlagSet(opts ...argflag.Option) (*argflag.FlagSet, *Capture) {
	set := argflag.NewFlagSet(opts...)
	captured := &Capture{
		locals: map[string]*any{},
		levels: make([]map[string]*any, len(n.cmd.Chain())),
	}
	for i := range captured.levels {
		captured.levels[i] = map[string]*any{}
	}

	sections := map[string]*argflag.Section{}
	sectionFor := func(b *Binding) *argflag.Section {
		title := "OPTIONS"
		if b.Level != LevelLocal {
			title = strings.ToUpper(b.Owner) + " OPTIONS"
		}
		s, ok := sections[title]
		if !ok {
			s = set.NewSection(title)
			sections[title] = s
		}
		return s
	}

	for _, b := range n.bindings {
		target := new(any)
		if b.Level == LevelLocal {
			captured.locals[b.Field] = target
		} else {
			captured.levels[b.Level][b.Field] = target
		}

		spec := b.Spec
		if spec == nil {
			spec = &decl.ArgSpec{Name: b.Field}
		}

		sectionFor(b).AnyVar(&argflag.AnyVar{
			Name:     b.Flag,
			Aliases:  spec.Aliases,
			Usage:    spec.Usage,
			Example:  spec.Example,
			Default:  spec.Default,
			Required: spec.Required,
			Hidden:   spec.Hidden,
			EnvVar:   spec.EnvVar,
			Target:   target,
			Parse:    spec.Parse,
		})
	}

	return set, captured
}

// Capture holds the parse targets for one NewFlagSet call. Values are
// meaningful only after the returned flag set has been parsed.
type Capture struct {
	locals map[string]*any
	levels []map[string]*any
}

// Locals returns the parsed leaf-local argument values keyed by spec name.
func (c *Capture) Locals() map[string]any {
	return deref(c.locals)
}

// Level returns the parsed field values for the given chain level, 0 being
// the leaf's own parameter set.
func (c *Capture) Level(i int) map[string]any {
	if i < 0 || i >= len(c.levels) {
		return map[string]any{}
	}
	return deref(c.levels[i])
}

// Levels returns the number of chain levels captured.
func (c *Capture) Levels() int {
	return len(c.levels)
}

func deref(m map[string]*any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = *v
	}
	return out
}
