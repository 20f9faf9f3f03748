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

package argflag

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"

	"github.com/bschnitz/tusks/logging"
	"github.com/bschnitz/tusks/timeutil"
)

type BoolVar struct {
	Name     string
	Aliases  []string
	Usage    string
	Example  string
	Default  bool
	Required bool
	Hidden   bool
	EnvVar   string
	Predict  complete.Predictor
	Target   *bool
}

// BoolVar creates a new boolean flag (true/false). By convention, the
// default value should always be false. For example:
//
//	Bad: -enable-cookies (default: true)
//	Good: -disable-cookies (default: false)
//
// Consider naming your flags to match this convention.
func (s *Section) BoolVar(i *BoolVar) {
	Flag(s, &Var[bool]{
		Name:     i.Name,
		Aliases:  i.Aliases,
		Usage:    i.Usage,
		Example:  i.Example,
		IsBool:   true,
		Default:  i.Default,
		Required: i.Required,
		Hidden:   i.Hidden,
		EnvVar:   i.EnvVar,
		Predict:  i.Predict,
		Target:   i.Target,
		Parser:   strconv.ParseBool,
		Printer:  strconv.FormatBool,
	})
}

type DurationVar struct {
	Name     string
	Aliases  []string
	Usage    string
	Example  string
	Default  time.Duration
	Required bool
	Hidden   bool
	EnvVar   string
	Predict  complete.Predictor
	Target   *time.Duration
}

func (s *Section) DurationVar(i *DurationVar) {
	Flag(s, &Var[time.Duration]{
		Name:     i.Name,
		Aliases:  i.Aliases,
		Usage:    i.Usage,
		Example:  i.Example,
		Default:  i.Default,
		Required: i.Required,
		Hidden:   i.Hidden,
		EnvVar:   i.EnvVar,
		Predict:  i.Predict,
		Target:   i.Target,
		Parser:   time.ParseDuration,
		Printer:  timeutil.HumanDuration,
	})
}

type Float64Var struct {
	Name     string
	Aliases  []string
	Usage    string
	Example  string
	Default  float64
	Required bool
	Hidden   bool
	EnvVar   string
	Predict  complete.Predictor
	Target   *float64
}

func (s *Section) Float64Var(i *Float64Var) {
	parser := func(v string) (float64, error) {
		return strconv.ParseFloat(v, 64)
	}
	printer := func(v float64) string {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}

	Flag(s, &Var[float64]{
		Name:     i.Name,
		Aliases:  i.Aliases,
		Usage:    i.Usage,
		Example:  i.Example,
		Default:  i.Default,
		Required: i.Required,
		Hidden:   i.Hidden,
		EnvVar:   i.EnvVar,
		Predict:  i.Predict,
		Target:   i.Target,
		Parser:   parser,
		Printer:  printer,
	})
}

type IntVar struct {
	Name     string
	Aliases  []string
	Usage    string
	Example  string
	Default  int
	Required bool
	Hidden   bool
	EnvVar   string
	Predict  complete.Predictor
	Target   *int
}

func (s *Section) IntVar(i *IntVar) {
	parser := func(v string) (int, error) {
		n, err := strconv.ParseInt(v, 10, strconv.IntSize)
		return int(n), err
	}
	printer := func(v int) string { return strconv.FormatInt(int64(v), 10) }

	Flag(s, &Var[int]{
		Name:     i.Name,
		Aliases:  i.Aliases,
		Usage:    i.Usage,
		Example:  i.Example,
		Default:  i.Default,
		Required: i.Required,
		Hidden:   i.Hidden,
		EnvVar:   i.EnvVar,
		Predict:  i.Predict,
		Target:   i.Target,
		Parser:   parser,
		Printer:  printer,
	})
}

type Int64Var struct {
	Name     string
	Aliases  []string
	Usage    string
	Example  string
	Default  int64
	Required bool
	Hidden   bool
	EnvVar   string
	Predict  complete.Predictor
	Target   *int64
}

func (s *Section) Int64Var(i *Int64Var) {
	parser := func(v string) (int64, error) { return strconv.ParseInt(v, 10, 64) }
	printer := func(v int64) string { return strconv.FormatInt(v, 10) }

	Flag(s, &Var[int64]{
		Name:     i.Name,
		Aliases:  i.Aliases,
		Usage:    i.Usage,
		Example:  i.Example,
		Default:  i.Default,
		Required: i.Required,
		Hidden:   i.Hidden,
		EnvVar:   i.EnvVar,
		Predict:  i.Predict,
		Target:   i.Target,
		Parser:   parser,
		Printer:  printer,
	})
}

type UintVar struct {
	Name     string
	Aliases  []string
	Usage    string
	Example  string
	Default  uint
	Required bool
	Hidden   bool
	EnvVar   string
	Predict  complete.Predictor
	Target   *uint
}

func (s *Section) UintVar(i *UintVar) {
	parser := func(v string) (uint, error) {
		n, err := strconv.ParseUint(v, 10, strconv.IntSize)
		return uint(n), err
	}
	printer := func(v uint) string { return strconv.FormatUint(uint64(v), 10) }

	Flag(s, &Var[uint]{
		Name:     i.Name,
		Aliases:  i.Aliases,
		Usage:    i.Usage,
		Example:  i.Example,
		Default:  i.Default,
		Required: i.Required,
		Hidden:   i.Hidden,
		EnvVar:   i.EnvVar,
		Predict:  i.Predict,
		Target:   i.Target,
		Parser:   parser,
		Printer:  printer,
	})
}

type Uint64Var struct {
	Name     string
	Aliases  []string
	Usage    string
	Example  string
	Default  uint64
	Required bool
	Hidden   bool
	EnvVar   string
	Predict  complete.Predictor
	Target   *uint64
}

func (s *Section) Uint64Var(i *Uint64Var) {
	parser := func(v string) (uint64, error) { return strconv.ParseUint(v, 10, 64) }
	printer := func(v uint64) string { return strconv.FormatUint(v, 10) }

	Flag(s, &Var[uint64]{
		Name:     i.Name,
		Aliases:  i.Aliases,
		Usage:    i.Usage,
		Example:  i.Example,
		Default:  i.Default,
		Required: i.Required,
		Hidden:   i.Hidden,
		EnvVar:   i.EnvVar,
		Predict:  i.Predict,
		Target:   i.Target,
		Parser:   parser,
		Printer:  printer,
	})
}

type StringMapVar struct {
	Name     string
	Aliases  []string
	Usage    string
	Example  string
	Default  map[string]string
	Required bool
	Hidden   bool
	EnvVar   string
	Predict  complete.Predictor
	Target   *map[string]string
}

func (s *Section) StringMapVar(i *StringMapVar) {
	parser := func(v string) (map[string]string, error) {
		idx := strings.Index(v, "=")
		if idx == -1 {
			return nil, fmt.Errorf("missing = in KV pair %q", v)
		}

		m := make(map[string]string, 1)
		m[v[0:idx]] = v[idx+1:]
		return m, nil
	}

	printer := func(m map[string]string) string {
		list := make([]string, 0, len(m))
		for k, v := range m {
			list = append(list, k+"="+v)
		}
		sort.Strings(list)
		return strings.Join(list, ",")
	}

	setter := func(cur *map[string]string, val map[string]string) {
		if *cur == nil {
			*cur = make(map[string]string)
		}
		for k, v := range val {
			(*cur)[k] = v
		}
	}

	Flag(s, &Var[map[string]string]{
		Name:     i.Name,
		Aliases:  i.Aliases,
		Usage:    i.Usage,
		Example:  i.Example,
		Default:  i.Default,
		Required: i.Required,
		Hidden:   i.Hidden,
		EnvVar:   i.EnvVar,
		Predict:  i.Predict,
		Target:   i.Target,
		Parser:   parser,
		Printer:  printer,
		Setter:   setter,
	})
}

type StringVar struct {
	Name     string
	Aliases  []string
	Usage    string
	Example  string
	Default  string
	Required bool
	Hidden   bool
	EnvVar   string
	Predict  complete.Predictor
	Target   *string
}

func (s *Section) StringVar(i *StringVar) {
	parser := func(v string) (string, error) { return v, nil }
	printer := func(v string) string { return v }

	Flag(s, &Var[string]{
		Name:     i.Name,
		Aliases:  i.Aliases,
		Usage:    i.Usage,
		Example:  i.Example,
		Default:  i.Default,
		Required: i.Required,
		Hidden:   i.Hidden,
		EnvVar:   i.EnvVar,
		Predict:  i.Predict,
		Target:   i.Target,
		Parser:   parser,
		Printer:  printer,
	})
}

type StringSliceVar struct {
	Name     string
	Aliases  []string
	Usage    string
	Example  string
	Default  []string
	Required bool
	Hidden   bool
	EnvVar   string
	Predict  complete.Predictor
	Target   *[]string
}

func (s *Section) StringSliceVar(i *StringSliceVar) {
	parser := func(v string) ([]string, error) {
		final := make([]string, 0)
		for _, part := range strings.Split(v, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed != "" {
				final = append(final, trimmed)
			}
		}
		return final, nil
	}

	printer := func(v []string) string {
		return strings.Join(v, ",")
	}

	setter := func(cur *[]string, val []string) {
		*cur = append(*cur, val...)
	}

	Flag(s, &Var[[]string]{
		Name:     i.Name,
		Aliases:  i.Aliases,
		Usage:    i.Usage,
		Example:  i.Example,
		Default:  i.Default,
		Required: i.Required,
		Hidden:   i.Hidden,
		EnvVar:   i.EnvVar,
		Predict:  i.Predict,
		Target:   i.Target,
		Parser:   parser,
		Printer:  printer,
		Setter:   setter,
	})
}

type TimeVar struct {
	Name     string
	Aliases  []string
	Usage    string
	Example  string
	Default  time.Time
	Required bool
	Hidden   bool
	EnvVar   string
	Predict  complete.Predictor
	Target   *time.Time
}

func (s *Section) TimeVar(layout string, i *TimeVar) {
	parser := func(v string) (time.Time, error) {
		return time.Parse(layout, v)
	}
	printer := func(v time.Time) string {
		return v.Format(layout)
	}

	Flag(s, &Var[time.Time]{
		Name:     i.Name,
		Aliases:  i.Aliases,
		Usage:    i.Usage,
		Example:  i.Example,
		Default:  i.Default,
		Required: i.Required,
		Hidden:   i.Hidden,
		EnvVar:   i.EnvVar,
		Predict:  i.Predict,
		Target:   i.Target,
		Parser:   parser,
		Printer:  printer,
	})
}

// AnyVar describes a flag with a caller-supplied value parser. This is the
// shape the schema compiler lowers declaration argument specs into: the
// declaration may carry a custom parse function, and the parsed value is
// routed onward without further interpretation.
type AnyVar struct {
	Name     string
	Aliases  []string
	Usage    string
	Example  string
	Default  string
	Required bool
	Hidden   bool
	EnvVar   string
	Predict  complete.Predictor
	Target   *any

	// Parse converts the raw string. A nil Parse passes the string through.
	Parse func(val string) (any, error)
}

func (s *Section) AnyVar(i *AnyVar) {
	parse := i.Parse
	if parse == nil {
		parse = func(v string) (any, error) { return v, nil }
	}

	parser := func(v string) (any, error) {
		out, err := parse(v)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q for -%s: %w", v, i.Name, err)
		}
		return out, nil
	}

	printer := func(v any) string {
		if v == nil {
			return ""
		}
		return fmt.Sprintf("%v", v)
	}

	target := i.Target
	if target == nil {
		target = new(any)
	}

	// Parse failures of the declared default are ignored here; defaults are
	// validated when the schema is compiled.
	var dflt any
	if i.Default != "" {
		if v, err := parse(i.Default); err == nil {
			dflt = v
		}
	}

	Flag(s, &Var[any]{
		Name:     i.Name,
		Aliases:  i.Aliases,
		Usage:    i.Usage,
		Example:  i.Example,
		Default:  dflt,
		Required: i.Required,
		Hidden:   i.Hidden,
		EnvVar:   i.EnvVar,
		Predict:  i.Predict,
		Target:   target,
		Parser:   parser,
		Printer:  printer,
	})
}

type LogLevelVar struct {
	Logger *slog.Logger
}

// LogLevelVar registers a -log-level flag that adjusts the given logger's
// level in place when parsed.
func (s *Section) LogLevelVar(i *LogLevelVar) {
	parser := func(v string) (slog.Level, error) {
		l, err := logging.LookupLevel(v)
		if err != nil {
			return 0, err
		}
		return l, nil
	}

	printer := func(v slog.Level) string { return logging.LevelString(v) }

	setter := func(_ *slog.Level, val slog.Level) { logging.SetLevel(i.Logger, val) }

	// trick the parser into thinking we need a value to set.
	var fake slog.Level

	levelNames := logging.LevelNames()

	Flag(s, &Var[slog.Level]{
		Name:    "log-level",
		Aliases: []string{"l"},
		Usage: `Sets the logging verbosity. Valid values include: ` +
			strings.Join(levelNames, ",") + `.`,
		Example: "warn",
		Default: slog.LevelInfo,
		Predict: predict.Set(levelNames),
		Target:  &fake,
		Parser:  parser,
		Printer: printer,
		Setter:  setter,
	})
}
