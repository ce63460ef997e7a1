// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mediatype

import "errors"

// CatchAll is the registration key for the fallback value.
const CatchAll = "*"

// catchAllKey is where the fallback is stored. Registering "" is rejected,
// so it can never collide with a literal key, including a media type named "*".
const catchAllKey = ""

// ErrEmptyKey is returned when registering the empty string.
var ErrEmptyKey = errors.New("media type key is empty")

type entry[V any] struct {
	key    string
	mt     MediaType
	parsed bool
	value  V
}

// Index maps Content-Type strings to values.
//
// Lookups try the literal key first and fall back to comparing parsed media
// types, so "text/html; a=1; b=2" and "text/html;b=2;a=1" address the same
// entry. Registration order is preserved and breaks ties in [Index.Find].
//
// Index is not safe for concurrent mutation. Register everything during
// setup and only read afterwards.
type Index[V any] struct {
	entries map[string]*entry[V]
	order   []string
}

// NewIndex creates an empty [Index].
func NewIndex[V any]() *Index[V] {
	return &Index[V]{entries: make(map[string]*entry[V])}
}

// Set binds v to raw and returns the index for chaining.
//
// raw is parsed once and the result is cached. A key that does not parse as
// a media type is still stored and is reachable through its literal form
// only. Setting an existing key replaces its value and keeps its position.
func (x *Index[V]) Set(raw string, v V) (*Index[V], error) {
	if raw == "" {
		return x, ErrEmptyKey
	}

	if raw == CatchAll {
		x.put(&entry[V]{key: catchAllKey, value: v})
		return x, nil
	}

	mt, err := Parse(raw)
	x.put(&entry[V]{key: raw, mt: mt, parsed: err == nil, value: v})

	return x, nil
}

// MustSet is like [Index.Set] but panics on error.
func (x *Index[V]) MustSet(raw string, v V) *Index[V] {
	if _, err := x.Set(raw, v); err != nil {
		panic(err)
	}

	return x
}

func (x *Index[V]) put(e *entry[V]) {
	if _, exists := x.entries[e.key]; !exists {
		x.order = append(x.order, e.key)
	}
	x.entries[e.key] = e
}

// Get returns the value registered under a key structurally equal to raw.
// CatchAll returns the fallback value.
func (x *Index[V]) Get(raw string) (V, bool) {
	var zero V

	if raw == CatchAll {
		if e, ok := x.entries[catchAllKey]; ok {
			return e.value, true
		}
		return zero, false
	}
	if raw == "" {
		return zero, false
	}

	if e, ok := x.entries[raw]; ok {
		return e.value, true
	}

	mt, err := Parse(raw)
	if err != nil {
		return zero, false
	}

	for _, key := range x.order {
		e := x.entries[key]
		if e.parsed && e.mt.Equal(mt) {
			return e.value, true
		}
	}

	return zero, false
}

// Has reports whether [Index.Get] would find a value for raw.
func (x *Index[V]) Has(raw string) bool {
	_, ok := x.Get(raw)
	return ok
}

// Delete removes the literal key raw and reports whether it was present.
// CatchAll removes the fallback.
func (x *Index[V]) Delete(raw string) bool {
	key := raw
	switch raw {
	case CatchAll:
		key = catchAllKey
	case "":
		return false
	}

	if _, ok := x.entries[key]; !ok {
		return false
	}
	delete(x.entries, key)

	for i, k := range x.order {
		if k == key {
			x.order = append(x.order[:i], x.order[i+1:]...)
			break
		}
	}

	return true
}

// Clear removes every entry, including the fallback.
func (x *Index[V]) Clear() {
	clear(x.entries)
	x.order = x.order[:0]
}

// Len returns the number of entries, including the fallback.
func (x *Index[V]) Len() int { return len(x.entries) }

// Keys returns the registered keys in registration order.
// The fallback is reported as [CatchAll].
func (x *Index[V]) Keys() []string {
	keys := make([]string, len(x.order))
	for i, k := range x.order {
		if k == catchAllKey {
			k = CatchAll
		}
		keys[i] = k
	}

	return keys
}

// Find resolves the best value for an incoming Content-Type.
//
// A literal key equal to raw wins immediately. Otherwise raw is parsed once
// and every registration is scored with [MediaType.Match]; the highest score
// wins and ties go to the earliest registration. The fallback never takes
// part, callers look it up with Get(CatchAll) when Find fails.
func (x *Index[V]) Find(raw string) (V, bool) {
	var zero V
	if raw == "" {
		return zero, false
	}

	if e, ok := x.entries[raw]; ok {
		return e.value, true
	}

	mt, err := Parse(raw)
	if err != nil {
		return zero, false
	}

	var best *entry[V]
	bestScore := NoMatch
	for _, key := range x.order {
		e := x.entries[key]
		if !e.parsed {
			continue
		}

		score := e.mt.Match(mt)
		if score > bestScore {
			best = e
			bestScore = score
		}
	}

	if best == nil {
		return zero, false
	}

	return best.value, true
}
