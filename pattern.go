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

package bodyparser

import "regexp"

type patternEntry struct {
	re       *regexp.Regexp
	strategy Strategy
}

// PatternIndex maps regular expressions to strategies. Lookups by pattern
// accept the same *regexp.Regexp or one with the same source text; Find
// tests content types against every pattern in registration order.
//
// PatternIndex has no internal locking.
type PatternIndex struct {
	entries []patternEntry
}

// NewPatternIndex creates an empty [PatternIndex].
func NewPatternIndex() *PatternIndex {
	return &PatternIndex{}
}

func (p *PatternIndex) indexOf(re *regexp.Regexp) int {
	if re == nil {
		return -1
	}
	for i, e := range p.entries {
		if e.re == re || e.re.String() == re.String() {
			return i
		}
	}

	return -1
}

// Set binds re to s. Re-registering a pattern replaces its strategy in
// place.
func (p *PatternIndex) Set(re *regexp.Regexp, s Strategy) *PatternIndex {
	if i := p.indexOf(re); i >= 0 {
		p.entries[i].strategy = s
		return p
	}
	p.entries = append(p.entries, patternEntry{re: re, strategy: s})

	return p
}

// Get returns the strategy registered for re.
func (p *PatternIndex) Get(re *regexp.Regexp) (Strategy, bool) {
	if i := p.indexOf(re); i >= 0 {
		return p.entries[i].strategy, true
	}

	return nil, false
}

// Has reports whether re is registered.
func (p *PatternIndex) Has(re *regexp.Regexp) bool {
	return p.indexOf(re) >= 0
}

// Delete removes re and reports whether it was registered.
func (p *PatternIndex) Delete(re *regexp.Regexp) bool {
	i := p.indexOf(re)
	if i < 0 {
		return false
	}
	p.entries = append(p.entries[:i:i], p.entries[i+1:]...)

	return true
}

// Find returns the strategy of the first pattern matching contentType.
func (p *PatternIndex) Find(contentType string) (Strategy, bool) {
	for _, e := range p.entries {
		if e.re.MatchString(contentType) {
			return e.strategy, true
		}
	}

	return nil, false
}

// Clear removes every pattern.
func (p *PatternIndex) Clear() { p.entries = nil }

// Len returns the number of patterns.
func (p *PatternIndex) Len() int { return len(p.entries) }

// Patterns returns the registered patterns in registration order.
func (p *PatternIndex) Patterns() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.re
	}

	return out
}
