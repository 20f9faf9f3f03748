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
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bschnitz/tusks/decl"
	"github.com/bschnitz/tusks/logging"
	"github.com/bschnitz/tusks/testutil"
)

func testContext(tb testing.TB) context.Context {
	tb.Helper()
	return logging.WithLogger(context.Background(), logging.TestLogger(tb))
}

func noopRun(ctx context.Context, inv *decl.Invocation) error { return nil }

func TestBuild_Validation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		root     *decl.Command
		external []*decl.Command
		err      string
	}{
		{
			name: "nil_root",
			root: nil,
			err:  "no root declaration",
		},
		{
			name: "unmarked_root",
			root: &decl.Command{Name: "tool", Run: noopRun},
			err:  "must be marked as root",
		},
		{
			name: "skipped_root",
			root: &decl.Command{Name: "tool", Root: true, Skip: true},
			err:  "root declaration is skipped",
		},
		{
			name: "root_with_link_marker",
			root: &decl.Command{Name: "tool", Root: true, LinkTo: "other"},
			err:  "root declaration cannot carry a link marker",
		},
		{
			name: "unnamed_child",
			root: &decl.Command{
				Name: "tool",
				Root: true,
				Children: []*decl.Command{
					{Run: noopRun},
				},
			},
			err: "command has no name",
		},
		{
			name: "reserved_command_name",
			root: &decl.Command{
				Name: "tool",
				Root: true,
				Children: []*decl.Command{
					{Name: "super", Run: noopRun},
				},
			},
			err: `command name "super" is reserved`,
		},
		{
			name: "duplicate_sibling_names",
			root: &decl.Command{
				Name: "tool",
				Root: true,
				Children: []*decl.Command{
					{Name: "create", Run: noopRun},
					{Name: "create", Run: noopRun},
				},
			},
			err: `duplicate sibling command name "create"`,
		},
		{
			name: "same_name_different_branches_ok",
			root: &decl.Command{
				Name: "tool",
				Root: true,
				Children: []*decl.Command{
					{Name: "user", Children: []*decl.Command{
						{Name: "list", Run: noopRun},
					}},
					{Name: "group", Children: []*decl.Command{
						{Name: "list", Run: noopRun},
					}},
				},
			},
		},
		{
			name: "nested_root_marker",
			root: &decl.Command{
				Name: "tool",
				Root: true,
				Children: []*decl.Command{
					{Name: "extra", Root: true, Run: noopRun},
				},
			},
			err: "multiple declarations are marked as root",
		},
		{
			name: "external_root_marker",
			root: &decl.Command{Name: "tool", Root: true, Run: noopRun},
			external: []*decl.Command{
				{Name: "extra", Root: true, Run: noopRun},
			},
			err: "multiple declarations are marked as root",
		},
		{
			name: "nested_link_marker",
			root: &decl.Command{
				Name: "tool",
				Root: true,
				Children: []*decl.Command{
					{Name: "child", LinkTo: "elsewhere", Run: noopRun},
				},
			},
			err: "link markers are only valid on the top of an external declaration",
		},
		{
			name: "handler_and_children",
			root: &decl.Command{
				Name: "tool",
				Root: true,
				Children: []*decl.Command{
					{
						Name: "both",
						Run:  noopRun,
						Children: []*decl.Command{
							{Name: "sub", Run: noopRun},
						},
					},
				},
			},
			err: "declares both a handler and subcommands",
		},
		{
			name: "neither_handler_nor_children",
			root: &decl.Command{
				Name: "tool",
				Root: true,
				Children: []*decl.Command{
					{Name: "empty"},
				},
			},
			err: "declares neither a handler nor subcommands",
		},
		{
			name: "reserved_param_field",
			root: &decl.Command{
				Name: "tool",
				Root: true,
				Children: []*decl.Command{
					{
						Name: "user",
						Params: &decl.ParamSet{Fields: []*decl.Field{
							{Name: "super", Arg: &decl.ArgSpec{Name: "super"}},
						}},
						Children: []*decl.Command{
							{Name: "create", Run: noopRun},
						},
					},
				},
			},
			err: `parameter field name "super" is reserved`,
		},
		{
			name: "reserved_param_field_deeply_nested",
			root: &decl.Command{
				Name: "tool",
				Root: true,
				Children: []*decl.Command{
					{Name: "a", Children: []*decl.Command{
						{Name: "b", Children: []*decl.Command{
							{
								Name: "c",
								Params: &decl.ParamSet{Fields: []*decl.Field{
									{Name: "super"},
								}},
								Run: noopRun,
							},
						}},
					}},
				},
			},
			err: `parameter field name "super" is reserved`,
		},
		{
			name: "duplicate_param_field",
			root: &decl.Command{
				Name: "tool",
				Root: true,
				Params: &decl.ParamSet{Fields: []*decl.Field{
					{Name: "color"},
					{Name: "color"},
				}},
				Children: []*decl.Command{
					{Name: "show", Run: noopRun},
				},
			},
			err: `duplicate parameter field "color"`,
		},
		{
			name: "skipped_subtree_never_validated",
			root: &decl.Command{
				Name: "tool",
				Root: true,
				Children: []*decl.Command{
					{
						Name: "broken",
						Skip: true,
						// Invalid contents below must never surface an error.
						Params: &decl.ParamSet{Fields: []*decl.Field{
							{Name: "super"},
						}},
						Children: []*decl.Command{
							{Name: "x", Root: true},
							{Name: "x"},
						},
					},
					{Name: "ok", Run: noopRun},
				},
			},
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := Build(testContext(t), tc.root, tc.external...)
			if diff := testutil.DiffErrString(err, tc.err); diff != "" {
				t.Errorf("Build got unexpected err: %s", diff)
			}
		})
	}
}

func TestBuild_ErrorIdentifiesPath(t *testing.T) {
	t.Parallel()

	root := &decl.Command{
		Name: "tool",
		Root: true,
		Children: []*decl.Command{
			{Name: "user", Children: []*decl.Command{
				{Name: "create", Run: noopRun, Children: []*decl.Command{
					{Name: "oops", Run: noopRun},
				}},
			}},
		},
	}

	_, err := Build(testContext(t), root)
	if diff := testutil.DiffErrString(err, `declaration "tool user create"`); diff != "" {
		t.Errorf("Build got unexpected err: %s", diff)
	}
}

func TestBuild_Shape(t *testing.T) {
	t.Parallel()

	root := &decl.Command{
		Name:    "tool",
		About:   "A test tool",
		Version: "1.2.3",
		Root:    true,
		Children: []*decl.Command{
			{Name: "user", Children: []*decl.Command{
				{Name: "create", Run: noopRun},
				{Name: "delete", Run: noopRun},
			}},
			{Name: "version", Run: noopRun},
			{Name: "hidden", Skip: true, Run: noopRun},
		},
	}

	tr, err := Build(testContext(t), root)
	if err != nil {
		t.Fatalf("Build got unexpected err: %v", err)
	}

	rootNode := tr.Root()
	if got, want := rootNode.Kind(), KindRoot; got != want {
		t.Errorf("expected kind %q to be %q", got, want)
	}
	if rootNode.Parent() != nil {
		t.Errorf("expected root to have no parent")
	}

	var names []string
	for _, c := range rootNode.Children() {
		names = append(names, c.Name())
	}
	if diff := cmp.Diff([]string{"user", "version"}, names); diff != "" {
		t.Errorf("children (skipped pruned, order preserved) (-want,+got):\n%s", diff)
	}

	user := rootNode.Child("user")
	if got, want := user.Kind(), KindGroup; got != want {
		t.Errorf("expected kind %q to be %q", got, want)
	}
	if got, want := user.Parent(), rootNode; got != want {
		t.Errorf("expected parent %v to be %v", got, want)
	}

	create := user.Child("create")
	if got, want := create.Kind(), KindLeaf; got != want {
		t.Errorf("expected kind %q to be %q", got, want)
	}
	if got, want := create.Path(), "tool user create"; got != want {
		t.Errorf("expected path %q to be %q", got, want)
	}
	if got, want := create.Depth(), 2; got != want {
		t.Errorf("expected depth %d to be %d", got, want)
	}

	// Every node has exactly one parent and no cycles: walking parents from
	// any node terminates at the root.
	if err := tr.Walk(func(n *Node) error {
		seen := map[*Node]struct{}{}
		for p := n; p != nil; p = p.Parent() {
			if _, ok := seen[p]; ok {
				t.Fatalf("cycle detected at %q", n.Path())
			}
			seen[p] = struct{}{}
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}
}

func TestBuild_Links(t *testing.T) {
	t.Parallel()

	newRoot := func() *decl.Command {
		return &decl.Command{
			Name: "tool",
			Root: true,
			Children: []*decl.Command{
				{Name: "user", Children: []*decl.Command{
					{Name: "create", Run: noopRun},
				}},
			},
		}
	}

	t.Run("splice_under_group", func(t *testing.T) {
		t.Parallel()

		ext := &decl.Command{
			Name:   "audit",
			LinkTo: "user",
			Run:    noopRun,
		}

		tr, err := Build(testContext(t), newRoot(), ext)
		if err != nil {
			t.Fatalf("Build got unexpected err: %v", err)
		}

		audit := tr.Root().Child("user").Child("audit")
		if audit == nil {
			t.Fatalf("expected audit to be spliced under user")
		}
		if got, want := audit.Path(), "tool user audit"; got != want {
			t.Errorf("expected path %q to be %q", got, want)
		}
	})

	t.Run("splice_with_alias", func(t *testing.T) {
		t.Parallel()

		ext := &decl.Command{
			Name:   "audit",
			LinkAs: "log",
			LinkTo: "user",
			Run:    noopRun,
		}

		tr, err := Build(testContext(t), newRoot(), ext)
		if err != nil {
			t.Fatalf("Build got unexpected err: %v", err)
		}

		if tr.Root().Child("user").Child("log") == nil {
			t.Errorf("expected audit to be spliced as %q", "log")
		}
	})

	t.Run("external_under_external", func(t *testing.T) {
		t.Parallel()

		// Deliberately pass the inner link first so resolution needs a second
		// pass.
		inner := &decl.Command{Name: "deep", LinkTo: "mid", Run: noopRun}
		mid := &decl.Command{
			Name:   "mid",
			LinkTo: "user",
			Children: []*decl.Command{
				{Name: "show", Run: noopRun},
			},
		}

		tr, err := Build(testContext(t), newRoot(), inner, mid)
		if err != nil {
			t.Fatalf("Build got unexpected err: %v", err)
		}

		deep := tr.Root().Child("user").Child("mid").Child("deep")
		if deep == nil {
			t.Fatalf("expected deep to be spliced under mid")
		}
		if got, want := deep.Depth(), 3; got != want {
			t.Errorf("expected depth %d to be %d", got, want)
		}
	})

	t.Run("missing_target", func(t *testing.T) {
		t.Parallel()

		ext := &decl.Command{Name: "audit", LinkTo: "nope", Run: noopRun}

		_, err := Build(testContext(t), newRoot(), ext)
		if diff := testutil.DiffErrString(err, `link target "nope" not found`); diff != "" {
			t.Errorf("Build got unexpected err: %s", diff)
		}
	})

	t.Run("name_collision_at_target", func(t *testing.T) {
		t.Parallel()

		ext := &decl.Command{Name: "create", LinkTo: "user", Run: noopRun}

		_, err := Build(testContext(t), newRoot(), ext)
		if diff := testutil.DiffErrString(err, `already has a subcommand named "create"`); diff != "" {
			t.Errorf("Build got unexpected err: %s", diff)
		}
	})

	t.Run("target_is_leaf", func(t *testing.T) {
		t.Parallel()

		ext := &decl.Command{Name: "audit", LinkTo: "create", Run: noopRun}

		_, err := Build(testContext(t), newRoot(), ext)
		if diff := testutil.DiffErrString(err, "is a leaf command"); diff != "" {
			t.Errorf("Build got unexpected err: %s", diff)
		}
	})

	t.Run("link_to_own_descendant", func(t *testing.T) {
		t.Parallel()

		ext := &decl.Command{
			Name:   "outer",
			LinkTo: "inner",
			Children: []*decl.Command{
				{Name: "inner", Children: []*decl.Command{
					{Name: "cmd", Run: noopRun},
				}},
			},
		}

		_, err := Build(testContext(t), newRoot(), ext)
		if diff := testutil.DiffErrString(err, "links to its own descendant"); diff != "" {
			t.Errorf("Build got unexpected err: %s", diff)
		}
	})

	t.Run("mutual_links_cycle", func(t *testing.T) {
		t.Parallel()

		a := &decl.Command{Name: "a", LinkTo: "b", Children: []*decl.Command{
			{Name: "acmd", Run: noopRun},
		}}
		b := &decl.Command{Name: "b", LinkTo: "a", Children: []*decl.Command{
			{Name: "bcmd", Run: noopRun},
		}}

		_, err := Build(testContext(t), newRoot(), a, b)
		if diff := testutil.DiffErrString(err, "form a cycle"); diff != "" {
			t.Errorf("Build got unexpected err: %s", diff)
		}
	})

	t.Run("skipped_external_ignored", func(t *testing.T) {
		t.Parallel()

		ext := &decl.Command{Name: "audit", LinkTo: "nope", Skip: true, Run: noopRun}

		tr, err := Build(testContext(t), newRoot(), ext)
		if err != nil {
			t.Fatalf("Build got unexpected err: %v", err)
		}
		if tr.Root().Child("user").Child("audit") != nil {
			t.Errorf("expected skipped external to be pruned")
		}
	})
}

func TestBuild_Chains(t *testing.T) {
	t.Parallel()

	root := &decl.Command{
		Name: "tool",
		Root: true,
		Params: &decl.ParamSet{Fields: []*decl.Field{
			{Name: "verbose"},
		}},
		Children: []*decl.Command{
			{
				Name: "user",
				Params: &decl.ParamSet{Fields: []*decl.Field{
					{Name: "name"},
				}},
				Children: []*decl.Command{
					{Name: "create", Run: noopRun},
				},
			},
			{Name: "version", Run: noopRun},
		},
	}

	tr, err := Build(testContext(t), root)
	if err != nil {
		t.Fatalf("Build got unexpected err: %v", err)
	}

	// Chain length is depth plus one, on every node.
	if err := tr.Walk(func(n *Node) error {
		if got, want := len(n.Chain()), n.Depth()+1; got != want {
			t.Errorf("%s: expected chain length %d to be %d", n.Path(), got, want)
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	create := tr.Root().Child("user").Child("create")
	chain := create.Chain()
	if got, want := len(chain), 3; got != want {
		t.Fatalf("expected chain length %d to be %d", got, want)
	}

	// Nearest first: the leaf's own synthesized empty set, then user's, then
	// the root's.
	if !chain[0].Empty() {
		t.Errorf("expected leaf level to be a synthesized empty set")
	}
	if chain[1].Field("name") == nil {
		t.Errorf("expected second level to carry user fields")
	}
	if chain[2].Field("verbose") == nil {
		t.Errorf("expected third level to carry root fields")
	}

	// A declared-empty node still contributes a level.
	version := tr.Root().Child("version")
	vchain := version.Chain()
	if got, want := len(vchain), 2; got != want {
		t.Fatalf("expected chain length %d to be %d", got, want)
	}
	if !vchain[0].Empty() {
		t.Errorf("expected leaf level to be a synthesized empty set")
	}
	if diff := cmp.Diff(tr.Root().Params(), vchain[1]); diff != "" {
		t.Errorf("root level (-want,+got):\n%s", diff)
	}
}
