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

// Package buildinfo derives version information for a compiled program.
// Since programs can be compiled from source, downloaded as a binary, or
// installed via `go install`, there's some nuanced logic in getting these
// values correct across all instances.
//
// The usual wiring is to feed the result into the root declaration so that
// "-version" reports it:
//
//	root := &decl.Command{
//	  Name:    "my-tool",
//	  Root:    true,
//	  Version: buildinfo.HumanVersion("my-tool"),
//	  ...
//	}
//
// The values can still be overridden with LDFLAGS by shadowing them in a
// package variable, which takes precedent over anything derived here.
package buildinfo

import (
	"runtime"
	"runtime/debug"
)

// Version attempts to read the module version injected by the compiler. If
// no information is present, it returns "source".
func Version() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" {
			return v
		}
	}

	return "source"
}

// Commit returns the VCS revision recorded in the build, typically the Git
// SHA. If no revision exists (e.g. outside of a repo), it returns "HEAD".
func Commit() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				return setting.Value
			}
		}
	}

	return "HEAD"
}

// OSArch returns the operating system and architecture, separated by a
// slash (e.g. "linux/amd64").
func OSArch() string {
	return runtime.GOOS + "/" + runtime.GOARCH
}

// HumanVersion assembles a single human-friendly version line for the given
// program name, e.g. "my-tool v1.2.3 (abc123, linux/amd64)".
func HumanVersion(name string) string {
	return name + " " + Version() + " (" + Commit() + ", " + OSArch() + ")"
}
