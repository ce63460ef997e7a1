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

//go:build integration

package httpbody_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"rivaas.dev/bodyparser"
	"rivaas.dev/bodyparser/httpbody"
	"rivaas.dev/bodyparser/problem"
	"rivaas.dev/bodyparser/yaml"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type echoed struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

func echoHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v, ok := httpbody.Value(r.Context())
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if b, isBytes := v.([]byte); isBytes {
			v = string(b)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(echoed{Type: fmt.Sprintf("%T", v), Value: v})
	})
}

func post(url, contentType string, body io.Reader) *http.Response {
	req, err := http.NewRequest(http.MethodPost, url, body)
	Expect(err).NotTo(HaveOccurred())
	req.Header.Set("Content-Type", contentType)

	resp, err := http.DefaultClient.Do(req)
	Expect(err).NotTo(HaveOccurred())

	return resp
}

func decodeEcho(resp *http.Response) echoed {
	defer resp.Body.Close()
	Expect(resp.StatusCode).To(Equal(http.StatusOK))

	var out echoed
	Expect(json.NewDecoder(resp.Body).Decode(&out)).To(Succeed())

	return out
}

var _ = Describe("Body parsing middleware", func() {
	var (
		server *httptest.Server
		logs   *lockedBuffer
		errs   chan error
	)

	BeforeEach(func() {
		p := bodyparser.MustNew(bodyparser.WithDefaultFormats())
		Expect(yaml.Register(p)).To(Succeed())
		p.MustSet("application/octet-stream", bodyparser.MustNewCollector(bodyparser.WithLimit(16)))

		logs = &lockedBuffer{}
		errs = make(chan error, 4)
		fallback := problem.Handler(problem.NewRFC9457("https://errors.example.com"))

		mw := httpbody.New(p,
			httpbody.WithLogger(slog.New(slog.NewJSONHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))),
			httpbody.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
				errs <- err
				fallback(w, r, err)
			}),
			httpbody.WithChunkSize(4),
		)
		server = httptest.NewServer(mw(echoHandler()))
	})

	AfterEach(func() {
		server.Close()
	})

	Context("when the body matches a registration", func() {
		It("decodes JSON", func() {
			out := decodeEcho(post(server.URL, "application/json", strings.NewReader(`{"a":1,"foo":"bar"}`)))
			Expect(out.Type).To(Equal("map[string]interface {}"))
			Expect(out.Value).To(Equal(map[string]any{"a": float64(1), "foo": "bar"}))
		})

		It("decodes YAML registered by the yaml package", func() {
			out := decodeEcho(post(server.URL, "application/x-yaml", strings.NewReader("name: ada\nlangs: [go]\n")))
			Expect(out.Value).To(Equal(map[string]any{"name": "ada", "langs": []any{"go"}}))
		})

		It("matches parameterized content types", func() {
			out := decodeEcho(post(server.URL, "text/plain; charset=utf-8", strings.NewReader("héllo")))
			Expect(out.Type).To(Equal("string"))
			Expect(out.Value).To(Equal("héllo"))
		})

		It("collects chunked bodies without a declared length", func() {
			pr, pw := io.Pipe()
			go func() {
				defer GinkgoRecover()
				for _, part := range []string{`{"par`, `ts":`, `[1,2,3]}`} {
					_, err := pw.Write([]byte(part))
					Expect(err).NotTo(HaveOccurred())
					time.Sleep(5 * time.Millisecond)
				}
				_ = pw.Close()
			}()

			out := decodeEcho(post(server.URL, "application/json", pr))
			Expect(out.Value).To(Equal(map[string]any{"parts": []any{float64(1), float64(2), float64(3)}}))
		})
	})

	Context("when the body is rejected", func() {
		It("answers 413 with problem details", func() {
			resp := post(server.URL, "application/octet-stream", strings.NewReader(strings.Repeat("x", 32)))
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusRequestEntityTooLarge))
			Expect(resp.Header.Get("Content-Type")).To(Equal(problem.ContentTypeProblem))

			var p map[string]any
			Expect(json.NewDecoder(resp.Body).Decode(&p)).To(Succeed())
			Expect(p).To(HaveKeyWithValue("type", "https://errors.example.com/content_too_large"))
			Expect(p).To(HaveKeyWithValue("status", float64(413)))

			var err error
			Eventually(errs).Should(Receive(&err))
			Expect(err).To(MatchError(bodyparser.ErrContentTooLarge))
		})

		It("logs the failure with the client request id", func() {
			req, err := http.NewRequest(http.MethodPost, server.URL, strings.NewReader("{"))
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Request-ID", "req-42")

			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(logs.String()).To(ContainSubstring(`"msg":"request body rejected"`))
			Expect(logs.String()).To(ContainSubstring(`"request_id":"req-42"`))
		})

		It("reports a client that goes away mid-body", func() {
			pr, pw := io.Pipe()
			ctx, cancel := context.WithCancel(context.Background())

			req, err := http.NewRequestWithContext(ctx, http.MethodPost, server.URL, pr)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Content-Type", "text/plain")
			req.ContentLength = 1024

			done := make(chan struct{})
			go func() {
				defer close(done)
				resp, err := http.DefaultClient.Do(req)
				if err == nil {
					resp.Body.Close()
				}
			}()

			_, err = pw.Write([]byte("partial"))
			Expect(err).NotTo(HaveOccurred())
			cancel()
			_ = pw.Close()
			Eventually(done).Should(BeClosed())

			Eventually(errs, 2*time.Second).Should(Receive(HaveOccurred()))
		})
	})

	Context("when the parser skips the request", func() {
		It("passes GET requests through", func() {
			resp, err := http.Get(server.URL)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
		})

		It("passes unregistered media types through", func() {
			resp := post(server.URL, "image/png", strings.NewReader("\x89PNG"))
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(errs).NotTo(Receive())
		})
	})
})
