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

package stream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects events emitted by a stream.
type recorder struct {
	mu     sync.Mutex
	events []Event
	data   bytes.Buffer
	err    error
	final  chan Event
}

func newRecorder(s Stream) *recorder {
	rec := &recorder{final: make(chan Event, 1)}
	for _, ev := range Events {
		ev := ev
		s.AddListener(ev, func(chunk []byte, err error) {
			rec.mu.Lock()
			defer rec.mu.Unlock()
			rec.events = append(rec.events, ev)
			if ev == EventData {
				rec.data.Write(chunk)
				return
			}
			rec.err = err
			rec.final <- ev
		})
	}

	return rec
}

func (r *recorder) wait(t *testing.T) Event {
	t.Helper()
	select {
	case ev := <-r.final:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not settle")
		return 0
	}
}

func TestEvent_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "data", EventData.String())
	assert.Equal(t, "end", EventEnd.String())
	assert.Equal(t, "error", EventError.String())
	assert.Equal(t, "aborted", EventAborted.String())
	assert.Equal(t, "unknown", Event(0).String())
}

func TestEmitter_AddRemove(t *testing.T) {
	t.Parallel()

	var e Emitter
	calls := 0
	id := e.AddListener(EventData, func([]byte, error) { calls++ })
	e.AddListener(EventData, func([]byte, error) { calls++ })

	assert.Equal(t, 2, e.ListenerCount(EventData))
	assert.Equal(t, 2, e.Emit(EventData, []byte("x"), nil))
	assert.Equal(t, 2, calls)

	assert.True(t, e.RemoveListener(EventData, id))
	assert.False(t, e.RemoveListener(EventData, id))
	assert.False(t, e.RemoveListener(EventEnd, id))
	assert.Equal(t, 1, e.ListenerCount(EventData))
	assert.Equal(t, 0, e.Emit(EventEnd, nil, nil))
}

func TestEmitter_RemoveDuringEmit(t *testing.T) {
	t.Parallel()

	var e Emitter
	var order []string
	var first ListenerID
	first = e.AddListener(EventEnd, func([]byte, error) {
		order = append(order, "first")
		e.RemoveListener(EventEnd, first)
	})
	e.AddListener(EventEnd, func([]byte, error) { order = append(order, "second") })

	e.Emit(EventEnd, nil, nil)
	e.Emit(EventEnd, nil, nil)

	assert.Equal(t, []string{"first", "second", "second"}, order)
}

func TestReader_EmitsInOrder(t *testing.T) {
	t.Parallel()

	r := NewReader(context.Background(), strings.NewReader("hello world"), WithChunkSize(3))
	rec := newRecorder(r)

	assert.True(t, r.IsPaused())
	r.Resume()

	require.Equal(t, EventEnd, rec.wait(t))
	<-r.Done()

	assert.Equal(t, "hello world", rec.data.String())
	assert.Equal(t, EventEnd, rec.events[len(rec.events)-1])
	for _, ev := range rec.events[:len(rec.events)-1] {
		assert.Equal(t, EventData, ev)
	}
}

func TestReader_StartsPaused(t *testing.T) {
	t.Parallel()

	r := NewReader(context.Background(), strings.NewReader("data"))
	rec := newRecorder(r)

	select {
	case <-rec.final:
		t.Fatal("paused reader emitted events")
	case <-time.After(20 * time.Millisecond):
	}

	r.Resume()
	assert.Equal(t, EventEnd, rec.wait(t))
}

func TestReader_Error(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	r := NewReader(context.Background(), iotest.ErrReader(boom))
	rec := newRecorder(r)
	r.Resume()

	require.Equal(t, EventError, rec.wait(t))
	assert.ErrorIs(t, rec.err, boom)
}

func TestReader_DataThenError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	src := io.MultiReader(strings.NewReader("ab"), iotest.ErrReader(boom))
	r := NewReader(context.Background(), src)
	rec := newRecorder(r)
	r.Resume()

	require.Equal(t, EventError, rec.wait(t))
	assert.Equal(t, "ab", rec.data.String())
}

func TestReader_AbortedOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewReader(ctx, strings.NewReader("never read"))
	rec := newRecorder(r)
	r.Resume()

	assert.Equal(t, EventAborted, rec.wait(t))
	assert.Zero(t, rec.data.Len())
}

func TestReader_AbortedWhilePaused(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	r := NewReader(ctx, strings.NewReader("abc"), WithChunkSize(1))
	rec := newRecorder(r)

	var once sync.Once
	r.AddListener(EventData, func([]byte, error) {
		once.Do(func() {
			r.Pause()
			cancel()
		})
	})
	r.Resume()

	assert.Equal(t, EventAborted, rec.wait(t))
	assert.Equal(t, "a", rec.data.String())
}

func TestReader_Close(t *testing.T) {
	t.Parallel()

	r := NewReader(context.Background(), strings.NewReader("abc"))
	require.NoError(t, r.Close())

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("Close on an unstarted reader must mark it done")
	}

	r.Resume()
	assert.True(t, r.IsPaused(), "closed reader cannot be resumed")
}

func TestReader_CloseWhilePaused(t *testing.T) {
	t.Parallel()

	r := NewReader(context.Background(), strings.NewReader("abc"), WithChunkSize(1))
	r.AddListener(EventData, func([]byte, error) { r.Pause() })
	r.Resume()

	require.Eventually(t, r.IsPaused, time.Second, time.Millisecond)
	require.NoError(t, r.Close())

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("read loop did not exit after Close")
	}
}
