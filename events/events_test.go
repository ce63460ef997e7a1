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

package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type named struct {
	name string
	log  *[]string
	err  error
}

func (n *named) Handle(context.Context, any) error {
	*n.log = append(*n.log, n.name)
	return n.err
}

func TestBus_PriorityOrder(t *testing.T) {
	t.Parallel()

	var log []string
	bus := NewBus()
	bus.On("ev", &named{name: "default", log: &log})
	bus.On("ev", &named{name: "high", log: &log}, WithPriority(10))
	bus.On("ev", &named{name: "low", log: &log}, WithPriority(-5))
	bus.On("ev", &named{name: "default2", log: &log})

	require.NoError(t, bus.Emit(context.Background(), "ev", nil))
	assert.Equal(t, []string{"high", "default", "default2", "low"}, log)
}

func TestBus_EmitStopsAtError(t *testing.T) {
	t.Parallel()

	var log []string
	boom := errors.New("boom")
	bus := NewBus()
	bus.On("ev", &named{name: "a", log: &log, err: boom}, WithPriority(1))
	bus.On("ev", &named{name: "b", log: &log})

	err := bus.Emit(context.Background(), "ev", nil)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a"}, log)
}

func TestBus_Off(t *testing.T) {
	t.Parallel()

	var log []string
	h := &named{name: "a", log: &log}
	bus := NewBus()
	bus.On("ev", h)

	assert.Equal(t, 1, bus.Count("ev"))
	assert.False(t, bus.Off("other", h))
	assert.True(t, bus.Off("ev", h))
	assert.False(t, bus.Off("ev", h), "second removal is a no-op")
	assert.Equal(t, 0, bus.Count("ev"))

	require.NoError(t, bus.Emit(context.Background(), "ev", nil))
	assert.Empty(t, log)
}

func TestBus_OffHandlerFunc(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	fn := HandlerFunc(func(context.Context, any) error { return nil })
	bus.On("ev", fn)

	assert.NotPanics(t, func() {
		assert.False(t, bus.Off("ev", fn))
	})
	assert.Equal(t, 1, bus.Count("ev"))
	assert.False(t, bus.Off("ev", nil))
}

func TestBus_PayloadPassedThrough(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	var got any
	bus.On("ev", HandlerFunc(func(_ context.Context, payload any) error {
		got = payload
		return nil
	}))

	require.NoError(t, bus.Emit(context.Background(), "ev", 42))
	assert.Equal(t, 42, got)
	require.NoError(t, bus.Emit(context.Background(), "unknown", 1))
}
