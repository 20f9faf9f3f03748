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

// Package argflag is the argument-parsing layer consumed by the schema
// compiler and the dispatcher. It wraps the standard library's flag package
// with sectioned help output, flag aliases, hidden flags, required flags,
// environment-variable defaults, and shell-completion predictors.
//
// The package knows nothing about command trees or parameter chains; it
// accepts a flat set of flag definitions and a raw argument vector and
// reports matched values or a structured parse failure. The standard
// -h/--help short-circuit surfaces as [flag.ErrHelp].
//
//nolint:wrapcheck // Several methods intentionally just wrap flag.FlagSet.
package argflag

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/kr/text"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

const maxLineLength = 80

// LookupEnvFunc is the signature of a function for looking up environment
// variables. It matches that of [os.LookupEnv].
type LookupEnvFunc = func(string) (string, bool)

// MapLookuper returns a LookupEnvFunc that reads from a map instead of the
// environment. This is mostly used for testing and for config-file overlays.
func MapLookuper(m map[string]string) LookupEnvFunc {
	return func(s string) (string, bool) {
		if m == nil {
			return "", false
		}

		v, ok := m[s]
		return v, ok
	}
}

// MultiLookuper accepts multiple [LookupEnvFunc]. It runs them in order on
// the environment key, returning the first entry that reports found.
func MultiLookuper(fns ...LookupEnvFunc) LookupEnvFunc {
	return func(s string) (string, bool) {
		for _, fn := range fns {
			if fn == nil {
				continue
			}

			v, ok := fn(s)
			if ok {
				return v, ok
			}
		}

		return "", false
	}
}

// AfterParseFunc is the type signature for functions that are called after
// flags have been parsed.
type AfterParseFunc func(existingErr error) error

// FlagSet is the root flag set for creating and managing flag sections.
type FlagSet struct {
	flagSet         *flag.FlagSet
	sections        []*Section
	lookupEnv       LookupEnvFunc
	afterParseFuncs []AfterParseFunc

	// required maps a flag name to whether a value was already supplied from
	// the environment. Flags supplied neither on argv nor from the
	// environment fail Parse.
	required map[string]bool

	// aliasOf maps an alias back to its canonical flag name, since the
	// underlying flag set reports aliases under their own name.
	aliasOf map[string]string
}

// Option is an option to the flag set.
type Option func(fs *FlagSet) *FlagSet

// WithLookupEnv defines a custom function for looking up environment
// variables, replacing [os.LookupEnv]. Use [MapLookuper] or a cfgloader
// lookup to back flag defaults with something other than the real
// environment.
func WithLookupEnv(fn LookupEnvFunc) Option {
	return func(fs *FlagSet) *FlagSet {
		if fn != nil {
			fs.lookupEnv = fn
		}
		return fs
	}
}

// NewFlagSet creates a new root flag set.
func NewFlagSet(opts ...Option) *FlagSet {
	f := flag.NewFlagSet("", flag.ContinueOnError)

	// Errors and usage are controlled by the caller.
	f.Usage = func() {}
	f.SetOutput(io.Discard)

	fs := &FlagSet{
		flagSet:   f,
		lookupEnv: os.LookupEnv,
		required:  map[string]bool{},
		aliasOf:   map[string]string{},
	}

	for _, opt := range opts {
		fs = opt(fs)
	}

	return fs
}

// Section represents a group of flags. The flags are actually "flat" in
// memory, but maintain a grouping for help output and alias matching.
type Section struct {
	name      string
	flagNames []string

	// fields inherited from the parent
	parent *FlagSet
}

// NewSection creates a new flag section. By convention, section names are
// all capital letters (e.g. "SERVER OPTIONS"), but this is not enforced.
func (f *FlagSet) NewSection(name string) *Section {
	s := &Section{
		name:   name,
		parent: f,
	}
	f.sections = append(f.sections, s)
	return s
}

// Arg implements flag.FlagSet#Arg.
func (f *FlagSet) Arg(i int) string {
	return f.flagSet.Arg(i)
}

// Args implements flag.FlagSet#Args.
func (f *FlagSet) Args() []string {
	return f.flagSet.Args()
}

// Lookup implements flag.FlagSet#Lookup.
func (f *FlagSet) Lookup(name string) *flag.Flag {
	return f.flagSet.Lookup(name)
}

// AfterParse defines a post-parse function. This can be used to set flag
// defaults that should not be set until after parsing, such as defaulting
// flag values to the value of other flags. These functions are called after
// flags have been parsed by the flag library, but before [Parse] returns.
func (f *FlagSet) AfterParse(fn AfterParseFunc) {
	if fn == nil {
		return
	}

	f.afterParseFuncs = append(f.afterParseFuncs, fn)
}

// Parse parses the given arguments. After ordinary parsing, it verifies
// that every required flag received a value (on the command line or from
// the environment) and then runs any registered after-parse functions.
// A missing required flag is reported as a single error listing the flag
// names.
func (f *FlagSet) Parse(args []string) error {
	merr := f.flagSet.Parse(args)

	if merr == nil {
		seen := map[string]struct{}{}
		f.flagSet.Visit(func(fl *flag.Flag) {
			name := fl.Name
			if canonical, ok := f.aliasOf[name]; ok {
				name = canonical
			}
			seen[name] = struct{}{}
		})

		var missing []string
		for name, fromEnv := range f.required {
			if fromEnv {
				continue
			}
			if _, ok := seen[name]; !ok {
				missing = append(missing, "-"+name)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			merr = fmt.Errorf("missing required flag(s): %s", strings.Join(missing, ", "))
		}
	}

	for _, fn := range f.afterParseFuncs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					merr = errors.Join(merr, fmt.Errorf("panic: %v", r))
				}
			}()

			merr = errors.Join(merr, fn(merr))
		}()
	}

	return merr
}

// Parsed implements flag.FlagSet#Parsed.
func (f *FlagSet) Parsed() bool {
	return f.flagSet.Parsed()
}

// Visit implements flag.FlagSet#Visit.
func (f *FlagSet) Visit(fn func(*flag.Flag)) {
	f.flagSet.Visit(fn)
}

// VisitAll implements flag.FlagSet#VisitAll.
func (f *FlagSet) VisitAll(fn func(*flag.Flag)) {
	f.flagSet.VisitAll(fn)
}

// GetEnv is a convenience function for looking up an environment variable.
// It is the same as [os.Getenv] unless the lookup function was overridden.
func (f *FlagSet) GetEnv(k string) string {
	v, _ := f.LookupEnv(k)
	return v
}

// LookupEnv is a convenience function for looking up an environment
// variable. It is the same as [os.LookupEnv] unless the lookup function was
// overridden.
func (f *FlagSet) LookupEnv(k string) (string, bool) {
	return f.lookupEnv(k)
}

// Help returns formatted help output for all sections.
func (f *FlagSet) Help() string {
	var b strings.Builder

	for _, set := range f.sections {
		sort.Strings(set.flagNames)

		fmt.Fprint(&b, set.name)
		fmt.Fprint(&b, "\n\n")

		for _, name := range set.flagNames {
			sub := f.flagSet.Lookup(name)
			if sub == nil {
				panic("inconsistency between flag structure and help")
			}

			typ, ok := sub.Value.(Value)
			if !ok {
				panic(fmt.Sprintf("flag is incorrect type %T", sub.Value))
			}

			// Do not process hidden flags.
			if typ.Hidden() {
				continue
			}

			// Incorporate aliases.
			aliases := typ.Aliases()
			sort.Slice(aliases, func(i, j int) bool {
				return len(aliases[i]) < len(aliases[j])
			})
			all := make([]string, 0, len(aliases)+1)
			for _, v := range aliases {
				all = append(all, "-"+v)
			}
			all = append(all, "-"+sub.Name)

			// Boolean flags take no value.
			if typ.IsBoolFlag() {
				fmt.Fprintf(&b, "    %s\n", strings.Join(all, ", "))
			} else {
				fmt.Fprintf(&b, "    %s=%q\n", strings.Join(all, ", "), typ.Example())
			}

			indented := wrapAtLengthWithPadding(sub.Usage, 8)
			fmt.Fprint(&b, indented)
			fmt.Fprint(&b, "\n\n")
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// IsHelp reports whether the parse error is the standard help request
// surfaced by the flag library.
func IsHelp(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}

// Value is an extension of [flag.Value] with the additional details needed
// for help rendering and completion. All flags within this package satisfy
// this interface.
type Value interface {
	flag.Value

	// Get returns the value. Even though we know the concrete type with
	// generics, this returns [any] to match the standard library.
	Get() any

	// Aliases returns any defined aliases of the flag.
	Aliases() []string

	// Example returns an example input for the flag, used only in help
	// output. If there is a default value, the example should differ from it.
	Example() string

	// Hidden returns true if the flag is hidden from help output.
	Hidden() bool

	// IsBoolFlag returns true if the flag accepts no arguments.
	IsBoolFlag() bool

	// Predictor returns a completion predictor.
	Predictor() complete.Predictor
}

// ParserFunc is a function that parses a value into T, or returns an error.
type ParserFunc[T any] func(val string) (T, error)

// PrinterFunc is a function that pretty-prints T.
type PrinterFunc[T any] func(cur T) string

// SetterFunc is a function that sets *T to T.
type SetterFunc[T any] func(cur *T, val T)

// Var describes a single flag to be registered with [Flag].
type Var[T any] struct {
	Name     string
	Aliases  []string
	Usage    string
	Example  string
	Default  T
	Required bool
	Hidden   bool
	IsBool   bool
	EnvVar   string
	Target   *T

	// Parser and Printer are the generic functions for converting string
	// values to/from the target value. These are populated by the individual
	// flag helpers.
	Parser  ParserFunc[T]
	Printer PrinterFunc[T]

	// Predict is the completion predictor. If no predictor is defined, it
	// defaults to predicting something (waiting for a value) for all flags
	// except boolean flags (which have no value).
	Predict complete.Predictor

	// Setter defines the function that sets the variable into the target. If
	// nil, it uses a default setter which overwrites the entire value of the
	// Target. Implementations that do special processing (such as appending
	// to a slice) may override this to customize the behavior.
	Setter SetterFunc[T]
}

// Flag is the lower-level API for creating a flag on a flag section. The
// typed helpers on [Section] delegate here.
//
// It panics if any of the target, parser, or printer are nil.
func Flag[T any](s *Section, i *Var[T]) {
	if i.Target == nil {
		panic("missing target")
	}

	parser := i.Parser
	if parser == nil {
		panic("missing parser func")
	}

	printer := i.Printer
	if printer == nil {
		panic("missing printer func")
	}

	predictor := i.Predict
	if predictor == nil {
		if i.IsBool {
			predictor = predict.Nothing
		} else {
			predictor = predict.Something
		}
	}

	setter := i.Setter
	if setter == nil {
		setter = func(cur *T, val T) { *cur = val }
	}

	initial := i.Default
	fromEnv := false
	if v, ok := s.parent.lookupEnv(i.EnvVar); ok && i.EnvVar != "" {
		if t, err := parser(v); err == nil {
			initial = t
			fromEnv = true
		}
	}

	// Set a default value.
	setter(i.Target, initial)

	if i.Required {
		s.parent.required[i.Name] = fromEnv
	}

	// Compute a sane example if one was not given.
	example := i.Example
	if example == "" {
		example = fmt.Sprintf("%T", *new(T))
	}

	// Pre-compute full usage.
	usage := i.Usage

	if i.Required {
		usage += " Required."
	}

	if v := printer(i.Default); v != "" {
		usage += fmt.Sprintf(" The default value is %q.", v)
	}

	if v := i.EnvVar; v != "" {
		usage += fmt.Sprintf(" This option can also be specified with the %s "+
			"environment variable.", v)
	}

	fv := &flagValue[T]{
		target:    i.Target,
		hidden:    i.Hidden,
		isBool:    i.IsBool,
		example:   example,
		parser:    parser,
		printer:   printer,
		predictor: predictor,
		setter:    setter,
		aliases:   i.Aliases,
	}
	s.flagNames = append(s.flagNames, i.Name)
	s.parent.flagSet.Var(fv, i.Name, usage)

	// Since aliases are not added as a flag name, we can safely add them to
	// the main flag set. The custom help skips them.
	for _, alias := range i.Aliases {
		s.parent.flagSet.Var(fv, alias, "")
		s.parent.aliasOf[alias] = i.Name
	}
}

var _ Value = (*flagValue[any])(nil)

type flagValue[T any] struct {
	target  *T
	hidden  bool
	isBool  bool
	example string

	parser    ParserFunc[T]
	printer   PrinterFunc[T]
	setter    SetterFunc[T]
	predictor complete.Predictor
	aliases   []string
}

func (f *flagValue[T]) Set(s string) error {
	v, err := f.parser(s)
	if err != nil {
		return err
	}
	f.setter(f.target, v)
	return nil
}

func (f *flagValue[T]) Get() any                      { return *f.target }
func (f *flagValue[T]) Aliases() []string             { return f.aliases }
func (f *flagValue[T]) String() string                { return f.printer(*f.target) }
func (f *flagValue[T]) Example() string               { return f.example }
func (f *flagValue[T]) Hidden() bool                  { return f.hidden }
func (f *flagValue[T]) IsBoolFlag() bool              { return f.isBool }
func (f *flagValue[T]) Predictor() complete.Predictor { return f.predictor }

// wrapAtLengthWithPadding wraps the given text at the maxLineLength, taking
// into account any provided left padding.
func wrapAtLengthWithPadding(s string, pad int) string {
	wrapped := text.Wrap(s, maxLineLength-pad)
	lines := strings.Split(wrapped, "\n")
	for i, line := range lines {
		lines[i] = strings.Repeat(" ", pad) + line
	}
	return strings.Join(lines, "\n")
}
