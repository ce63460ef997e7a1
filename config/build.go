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

package config

import (
	"fmt"
	"regexp"

	"rivaas.dev/bodyparser"
	msgpackbody "rivaas.dev/bodyparser/msgpack"
	tomlbody "rivaas.dev/bodyparser/toml"
	yamlbody "rivaas.dev/bodyparser/yaml"
)

// Strategies lists the strategy names a registration may use.
var Strategies = []string{"text", "json", "raw", "xml", "form", "yaml", "toml", "msgpack"}

// Build creates a Parser from the settings. opts are applied after the
// options derived from s, so a caller can add a logger or providers.
func (s *Settings) Build(opts ...bodyparser.Option) (*bodyparser.Parser, error) {
	var base []bodyparser.Option
	if s.WithoutDefaults {
		base = append(base, bodyparser.WithoutDefaults())
	}
	if s.Formats {
		base = append(base, bodyparser.WithDefaultFormats())
	}

	p, err := bodyparser.New(append(base, opts...)...)
	if err != nil {
		return nil, newError("parser", "build", err)
	}

	for i, reg := range s.Registrations {
		source := fmt.Sprintf("registrations[%d]", i)

		key, err := reg.key()
		if err != nil {
			return nil, newError(source, "build", err)
		}

		limit := s.Limit
		if reg.Limit != nil {
			limit = *reg.Limit
		}

		strategy, err := reg.strategy(limit)
		if err != nil {
			return nil, newFieldError(source, "strategy", "build", err)
		}

		if _, err = p.Set(key, strategy); err != nil {
			return nil, newError(source, "build", err)
		}
	}

	return p, nil
}

func (r Registration) key() (any, error) {
	switch {
	case r.Type != "" && r.Pattern == "":
		return r.Type, nil
	case r.Pattern != "" && r.Type == "":
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, err
		}
		return re, nil
	}

	return nil, ErrRegistrationKey
}

func (r Registration) strategy(limit Size) (bodyparser.Strategy, error) {
	opts := limit.Options()

	switch r.Strategy {
	case "text":
		return bodyparser.NewText(opts...)
	case "json":
		return bodyparser.NewJSON(opts...)
	case "raw":
		if r.Output != "" {
			opts = append(opts, bodyparser.WithOutput(bodyparser.OutputKind(r.Output)))
		}
		return bodyparser.NewCollector(opts...)
	case "xml":
		return bodyparser.NewXML(opts...)
	case "form":
		return bodyparser.NewForm(opts...)
	case "yaml":
		return yamlbody.New(yamlbody.WithStrategyOptions(opts...))
	case "toml":
		return tomlbody.New(tomlbody.WithStrategyOptions(opts...))
	case "msgpack":
		return msgpackbody.New(msgpackbody.WithStrategyOptions(opts...))
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, r.Strategy)
}
