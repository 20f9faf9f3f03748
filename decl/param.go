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

package decl

// ParamSet is an ordered set of fields shared by a node and its descendants.
// Every command node conceptually has a ParamSet even if the author declared
// none; an empty one is synthesized during chain resolution so navigation
// through intermediate levels is always well-defined.
type ParamSet struct {
	// Fields are the shared fields, in declaration order. Field names must be
	// unique within the set and must not be [SuperField].
	Fields []*Field
}

// Field is one shared parameter field: a name bound to the argument spec
// that populates it.
type Field struct {
	Name string
	Arg  *ArgSpec
}

// Empty reports whether the set declares no fields. A nil ParamSet is empty.
func (p *ParamSet) Empty() bool {
	return p == nil || len(p.Fields) == 0
}

// Field returns the named field, or nil.
func (p *ParamSet) Field(name string) *Field {
	if p == nil {
		return nil
	}
	for _, f := range p.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// ParamValue is one instantiated parameter set: the parsed values for a
// single chain level plus a navigation reference to the parent level's
// instance. Instances are populated once at dispatch time and read-only
// thereafter; handlers at any depth may share one instance without copying.
type ParamValue struct {
	owner  string
	names  []string
	values map[string]any
	super  *ParamValue
}

// NewParamValue builds a parameter instance for the node named owner. The
// values map is copied. The super reference must already be constructed;
// instances are assembled root-first so this always holds at dispatch time.
func NewParamValue(owner string, names []string, values map[string]any, super *ParamValue) *ParamValue {
	cp := make(map[string]any, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return &ParamValue{
		owner:  owner,
		names:  append([]string(nil), names...),
		values: cp,
		super:  super,
	}
}

// Owner returns the name of the command node whose ParamSet this instance
// was built from.
func (p *ParamValue) Owner() string {
	return p.owner
}

// Super returns the parent level's parameter instance, or nil on the root
// level's instance.
func (p *ParamValue) Super() *ParamValue {
	return p.super
}

// Names returns the field names in declaration order.
func (p *ParamValue) Names() []string {
	return append([]string(nil), p.names...)
}

// Lookup returns the named field's value.
func (p *ParamValue) Lookup(name string) (any, bool) {
	v, ok := p.values[name]
	return v, ok
}

// String returns the named field's value as a string, or "" if the field is
// absent or not a string.
func (p *ParamValue) String(name string) string {
	v, ok := p.values[name]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
