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

// Package mediatype parses Content-Type values and resolves them against a
// set of registered media types.
//
// A [MediaType] is an immutable value made of a type, a subtype and a set of
// parameters. Two media types are equal when type, subtype and parameter set
// are identical, regardless of parameter order:
//
//	a := mediatype.MustParse("text/html; a=1; b=2")
//	b := mediatype.MustParse("text/html; b=2; a=1")
//	a.Equal(b) // true
//
// Matching is asymmetric. A registered media type matches an incoming one when
// every parameter of the registered type is present in the incoming type with
// the same value. The number of satisfied parameters is the specificity score
// used by [Index.Find] to pick the most specific registration:
//
//	reg := mediatype.MustParse("text/html; charset=utf-8")
//	reg.Match(mediatype.MustParse("text/html; charset=utf-8; q=1")) // 1
//	reg.Match(mediatype.MustParse("text/html"))                     // NoMatch
package mediatype

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// NoMatch is the score reported by [MediaType.Match] when the registered
// media type cannot be satisfied by the incoming one. It is distinct from 0,
// which is the score of a registration without parameters.
const NoMatch = -1

// Static errors for parsing.
var (
	ErrEmptyMediaType = errors.New("media type is empty")
	ErrMissingSubtype = errors.New("media type has no subtype")
	ErrInvalidParam   = errors.New("invalid media type parameter")
)

// MediaType is a parsed Content-Type value.
// The zero value is not a valid media type; use [Parse] to obtain one.
type MediaType struct {
	typ     string
	subtype string
	params  map[string]string
}

// Parse parses a Content-Type value such as "text/html; charset=utf-8".
//
// Type, subtype and parameter names are lower-cased. Surrounding whitespace
// is trimmed everywhere, and quoted parameter values are unquoted.
// Parameters without a name are rejected; a parameter without "=" is
// ignored the same way Accept parsing in the router ignores it.
func Parse(s string) (MediaType, error) {
	start, end := trimWhitespace(s)
	if start >= end {
		return MediaType{}, ErrEmptyMediaType
	}

	semicolon := strings.IndexByte(s[start:end], ';')
	value := s[start:end]
	rest := ""
	if semicolon != -1 {
		value = s[start : start+semicolon]
		rest = s[start+semicolon+1 : end]
	}

	vs, ve := trimWhitespace(value)
	value = value[vs:ve]

	slash := strings.IndexByte(value, '/')
	if slash == -1 {
		return MediaType{}, fmt.Errorf("%w: %q", ErrMissingSubtype, s)
	}

	typ := strings.TrimSpace(value[:slash])
	subtype := strings.TrimSpace(value[slash+1:])
	if typ == "" || subtype == "" {
		return MediaType{}, fmt.Errorf("%w: %q", ErrMissingSubtype, s)
	}

	mt := MediaType{
		typ:     strings.ToLower(typ),
		subtype: strings.ToLower(subtype),
	}

	if rest == "" {
		return mt, nil
	}

	paramStart := 0
	quoted := false
	for i := 0; i <= len(rest); i++ {
		if i < len(rest) {
			if rest[i] == '"' {
				quoted = !quoted
			}
			if quoted || rest[i] != ';' {
				continue
			}
		}
		if i > paramStart {
			name, val, ok, err := parseParam(rest[paramStart:i])
			if err != nil {
				return MediaType{}, fmt.Errorf("%w in %q", err, s)
			}
			if ok {
				if mt.params == nil {
					mt.params = make(map[string]string, 2)
				}
				mt.params[name] = val
			}
		}
		paramStart = i + 1
	}

	return mt, nil
}

// MustParse is like [Parse] but panics if s cannot be parsed.
// Use it for constants in tests and initialization code.
func MustParse(s string) MediaType {
	mt, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("mediatype.MustParse: %v", err))
	}

	return mt
}

// parseParam parses a single "name=value" pair.
// ok is false for blank segments and segments without "=".
func parseParam(param string) (name, value string, ok bool, err error) {
	start, end := trimWhitespace(param)
	if start >= end {
		return "", "", false, nil
	}
	param = param[start:end]

	equals := strings.IndexByte(param, '=')
	if equals == -1 {
		return "", "", false, nil
	}

	name = strings.ToLower(strings.TrimSpace(param[:equals]))
	if name == "" {
		return "", "", false, ErrInvalidParam
	}

	value = strings.TrimSpace(param[equals+1:])
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		value = value[1 : len(value)-1]
	}

	return name, value, true, nil
}

// trimWhitespace returns start and end indices of non-whitespace content.
func trimWhitespace(s string) (start, end int) {
	for start < len(s) && (s[start] == ' ' || s[start] == '\t') {
		start++
	}

	end = len(s)
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t') {
		end--
	}

	return start, end
}

// Type returns the primary type, e.g. "text".
func (m MediaType) Type() string { return m.typ }

// Subtype returns the subtype, e.g. "html".
func (m MediaType) Subtype() string { return m.subtype }

// Essence returns "type/subtype" without parameters.
func (m MediaType) Essence() string { return m.typ + "/" + m.subtype }

// Param returns the value of the named parameter.
// The name is matched case-insensitively.
func (m MediaType) Param(name string) (string, bool) {
	v, ok := m.params[strings.ToLower(name)]
	return v, ok
}

// Params returns a copy of the parameter set.
func (m MediaType) Params() map[string]string {
	out := make(map[string]string, len(m.params))
	for k, v := range m.params {
		out[k] = v
	}

	return out
}

// NumParams returns the number of parameters.
func (m MediaType) NumParams() int { return len(m.params) }

// IsZero reports whether m is the zero value.
func (m MediaType) IsZero() bool { return m.typ == "" && m.subtype == "" }

// Equal reports whether m and other have the same type, subtype and
// parameter set. Parameter order never matters.
func (m MediaType) Equal(other MediaType) bool {
	if m.typ != other.typ || m.subtype != other.subtype {
		return false
	}
	if len(m.params) != len(other.params) {
		return false
	}
	for k, v := range m.params {
		if ov, ok := other.params[k]; !ok || ov != v {
			return false
		}
	}

	return true
}

// Match scores how well the incoming media type satisfies m, where m is the
// registered (narrower) media type.
//
// Only the parameters of m are considered. Every one of them must be present
// in incoming with an equal value, otherwise Match returns [NoMatch]. The
// score is the number of parameters of m, so a registration without
// parameters scores 0 for any incoming type with the same type and subtype.
func (m MediaType) Match(incoming MediaType) int {
	if m.typ != incoming.typ || m.subtype != incoming.subtype {
		return NoMatch
	}

	score := 0
	for k, v := range m.params {
		iv, ok := incoming.params[k]
		if !ok || iv != v {
			return NoMatch
		}
		score++
	}

	return score
}

// String formats m in canonical form with parameters sorted by name.
func (m MediaType) String() string {
	if m.IsZero() {
		return ""
	}
	if len(m.params) == 0 {
		return m.Essence()
	}

	names := make([]string, 0, len(m.params))
	for k := range m.params {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(m.Essence())
	for _, k := range names {
		b.WriteString("; ")
		b.WriteString(k)
		b.WriteByte('=')
		v := m.params[k]
		if needsQuoting(v) {
			b.WriteByte('"')
			b.WriteString(v)
			b.WriteByte('"')
		} else {
			b.WriteString(v)
		}
	}

	return b.String()
}

func needsQuoting(v string) bool {
	if v == "" {
		return true
	}

	return strings.ContainsAny(v, " \t;,=\"()<>@:\\/[]?{}")
}
