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

// Package timeutil provides time formatting helpers.
package timeutil

import (
	"strconv"
	"strings"
	"time"
)

// HumanDuration renders the duration in a compact human-readable form,
// rounded to the nearest second. Zero-valued components are omitted, e.g.
// "1h4s" instead of "1h0m4s". The zero duration renders as "0s".
func HumanDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d == 0 {
		return "0s"
	}

	var b strings.Builder
	if d < 0 {
		b.WriteString("-")
		d = -d
	}

	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		b.WriteString(strconv.FormatInt(int64(h), 10))
		b.WriteString("h")
	}
	if m > 0 {
		b.WriteString(strconv.FormatInt(int64(m), 10))
		b.WriteString("m")
	}
	if s > 0 {
		b.WriteString(strconv.FormatInt(int64(s), 10))
		b.WriteString("s")
	}
	return b.String()
}
