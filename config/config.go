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
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"dario.cat/mergo"
	"github.com/BurntSushi/toml"
	"github.com/go-viper/mapstructure/v2"
	"github.com/goccy/go-yaml"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Format is a configuration file format.
type Format string

// Supported formats.
const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatOf detects the format from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	}

	return "", newError(path, "detect", ErrUnknownFormat)
}

// Settings is the decoded configuration.
type Settings struct {
	Server ServerSettings `config:"server"`
	Log    LogSettings    `config:"log"`

	// WithoutDefaults drops the text/plain and application/json
	// registrations every parser starts with.
	WithoutDefaults bool `config:"without_defaults"`

	// Formats registers the XML and form strategies.
	Formats bool `config:"formats"`

	// Limit applies to registrations without their own limit.
	// Zero keeps each strategy's default.
	Limit Size `config:"limit"`

	Registrations []Registration `config:"registrations"`
}

// ServerSettings configures the demo server.
type ServerSettings struct {
	Addr              string        `config:"addr"`
	ReadHeaderTimeout time.Duration `config:"read_header_timeout"`
	H2C               bool          `config:"h2c"`
}

// LogSettings configures the process logger.
type LogSettings struct {
	Format string `config:"format"`
	Level  string `config:"level"`
}

// Registration binds a media type or a pattern to a named strategy.
type Registration struct {
	Type     string `config:"type"`
	Pattern  string `config:"pattern"`
	Strategy string `config:"strategy"`
	Limit    *Size  `config:"limit"`
	Output   string `config:"output"`
}

// Default returns the settings used for anything a file leaves out.
func Default() *Settings {
	return &Settings{
		Server: ServerSettings{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
		},
		Log: LogSettings{
			Format: "text",
			Level:  "info",
		},
	}
}

//go:embed schema.json
var schemaJSON []byte

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, err
	}

	compiler := jsonschema.NewCompiler()
	if err = compiler.AddResource("bodyparser.json", doc); err != nil {
		return nil, err
	}

	return compiler.Compile("bodyparser.json")
})

// Load reads the file at path. An empty path returns [Default].
func Load(ctx context.Context, path string) (*Settings, error) {
	if path == "" {
		return Default(), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newError(path, "read", err)
	}

	return parse(path, data, format)
}

// Parse decodes data in the given format.
func Parse(data []byte, format Format) (*Settings, error) {
	return parse(string(format), data, format)
}

func parse(source string, data []byte, format Format) (*Settings, error) {
	raw := make(map[string]any)

	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &raw)
	case FormatTOML:
		err = toml.Unmarshal(data, &raw)
	case FormatJSON:
		if len(bytes.TrimSpace(data)) > 0 {
			err = json.Unmarshal(data, &raw)
		}
	default:
		return nil, newError(source, "decode", ErrUnknownFormat)
	}
	if err != nil {
		return nil, newError(source, "decode", err)
	}
	if raw == nil {
		raw = make(map[string]any)
	}

	doc, err := canonical(normalizeMapKeys(raw))
	if err != nil {
		return nil, newError(source, "decode", err)
	}

	schema, err := compiledSchema()
	if err != nil {
		return nil, newError("schema", "compile", err)
	}
	if err = schema.Validate(doc); err != nil {
		return nil, newError(source, "validate", err)
	}

	s := &Settings{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "config",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			sizeHook,
			mapstructure.StringToTimeDurationHookFunc(),
		),
		Result: s,
	})
	if err != nil {
		return nil, newError(source, "decode", err)
	}
	if err = dec.Decode(doc); err != nil {
		return nil, newError(source, "decode", err)
	}

	if err = mergo.Merge(s, *Default()); err != nil {
		return nil, newError(source, "merge", err)
	}

	return s, nil
}

// canonical turns decoded YAML or TOML into the JSON value model the
// schema validator expects.
func canonical(m map[string]any) (any, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}

	return jsonschema.UnmarshalJSON(bytes.NewReader(data))
}

// normalizeMapKeys lowercases keys so "Server.Addr" and "server.addr"
// decode the same way.
func normalizeMapKeys(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	normalized := make(map[string]any, len(m))
	for k, v := range m {
		normalized[strings.ToLower(k)] = normalizeValue(v)
	}

	return normalized
}

func normalizeValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return normalizeMapKeys(v)
	case []map[string]any:
		out := make([]any, len(v))
		for i, m := range v {
			out[i] = normalizeMapKeys(m)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = normalizeValue(e)
		}
		return out
	}

	return v
}
