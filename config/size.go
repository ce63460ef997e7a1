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
	"encoding/json"
	"reflect"
	"strings"

	"github.com/spf13/cast"

	"rivaas.dev/bodyparser"
)

// Size is a byte count read from "10mb" style strings or plain integers.
// Unlimited is written as "none" or "unlimited" and decodes to -1.
type Size int64

// Unlimited is the Size of "none".
const Unlimited Size = -1

// Options returns the strategy options for s.
func (s Size) Options() []bodyparser.StrategyOption {
	switch {
	case s < 0:
		return []bodyparser.StrategyOption{bodyparser.WithoutLimit()}
	case s == 0:
		return nil
	}

	return []bodyparser.StrategyOption{bodyparser.WithLimit(int64(s))}
}

var sizeType = reflect.TypeFor[Size]()

// sizeHook decodes [Size] fields.
func sizeHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != sizeType {
		return data, nil
	}

	switch v := data.(type) {
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "none", "unlimited":
			return Unlimited, nil
		}
		n, err := bodyparser.ParseSize(v)
		if err != nil {
			return nil, err
		}
		return Size(n), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return nil, err
		}
		return Size(n), nil
	}

	n, err := cast.ToInt64E(data)
	if err != nil {
		return nil, err
	}

	return Size(n), nil
}
