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

// Package config loads parser and server settings from YAML, TOML or JSON
// files and builds a [bodyparser.Parser] from them.
//
// Documents are validated against an embedded JSON Schema before they are
// decoded, so a typo in a key or a strategy name fails at startup. Keys are
// case-insensitive. Sizes accept "512kb" style strings (powers of 1024),
// plain byte counts, or "none" for no limit.
//
// Example file:
//
//	server:
//	  addr: ":9090"
//	limit: 1mb
//	formats: true
//	registrations:
//	  - type: application/yaml
//	    strategy: yaml
//	  - pattern: "^image/"
//	    strategy: raw
//	    limit: 8mb
//
// Loading it:
//
//	settings, err := config.Load(ctx, "bodyparser.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	p, err := settings.Build(bodyparser.WithLogger(logger))
package config
