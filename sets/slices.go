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

// Package sets provides order-preserving set operations on slices. The
// schema compiler uses them to merge and collision-check flag names across
// parameter-chain levels, where deterministic ordering matters for stable
// error messages and help output.
package sets

// IntersectStable returns the elements that exist in all slices, preserving
// the relative order in which they appear in the first slice. Duplicate
// elements are removed. The result is always an allocated slice, even when
// the intersection is the empty set, and its capacity equals its length.
//
// The given slices are not modified, but values are not deep copied either.
func IntersectStable[T comparable](slices ...[]T) []T {
	if len(slices) == 0 {
		return []T{}
	}

	seen := make(map[T]struct{}, len(slices[0]))
	final := make([]T, 0, len(slices[0]))

outer:
	for _, v := range slices[0] {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}

		for _, s := range slices[1:] {
			if !sliceContains(s, v) {
				continue outer
			}
		}
		final = append(final, v)
	}
	return final[:len(final):len(final)]
}

// Union returns the combination of all elements in all slices, in the order
// in which they first appear. Duplicate elements are removed. The result is
// always an allocated slice, even when the union is the empty set.
//
// The given slices are not modified, but values are not deep copied either.
func Union[T comparable](slices ...[]T) []T {
	var alloc int
	for _, s := range slices {
		alloc += len(s)
	}

	final := make([]T, 0, alloc)
	seen := make(map[T]struct{}, alloc)
	for _, s := range slices {
		for _, v := range s {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			final = append(final, v)
		}
	}
	return final[:len(final):len(final)]
}

func sliceContains[T comparable](haystack []T, needle T) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}
