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

package httpbody

import (
	"compress/gzip"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
)

// ErrUnsupportedEncoding is matched by [UnsupportedEncodingError].
var ErrUnsupportedEncoding = errors.New("unsupported content encoding")

// UnsupportedEncodingError reports a Content-Encoding the middleware
// cannot decode.
type UnsupportedEncodingError struct {
	Encoding string
}

func (e *UnsupportedEncodingError) Error() string {
	return fmt.Sprintf("content encoding %q is not supported", e.Encoding)
}

// StatusCode returns 415.
func (e *UnsupportedEncodingError) StatusCode() int { return http.StatusUnsupportedMediaType }

// HTTPStatus returns 415.
func (e *UnsupportedEncodingError) HTTPStatus() int { return http.StatusUnsupportedMediaType }

// Content returns "Unsupported Media Type".
func (e *UnsupportedEncodingError) Content() string {
	return http.StatusText(http.StatusUnsupportedMediaType)
}

// Code returns "unsupported_encoding".
func (e *UnsupportedEncodingError) Code() string { return "unsupported_encoding" }

// Is matches [ErrUnsupportedEncoding].
func (e *UnsupportedEncodingError) Is(target error) bool { return target == ErrUnsupportedEncoding }

// contentEncodings splits a Content-Encoding header in the order the
// codings were applied. identity is dropped.
func contentEncodings(header string) []string {
	var out []string
	for _, part := range strings.Split(header, ",") {
		coding := strings.ToLower(strings.TrimSpace(part))
		if coding == "" || coding == "identity" {
			continue
		}
		out = append(out, coding)
	}

	return out
}

// decoder undoes codings lazily. Nothing is read from src until the first
// Read, so a body the parser skips stays untouched.
type decoder struct {
	src      io.Reader
	codings  []string
	r        io.Reader
	err      error
	closers  []io.Closer
	prepared bool
}

func newDecoder(src io.Reader, codings []string) *decoder {
	return &decoder{src: src, codings: codings}
}

func (d *decoder) Read(p []byte) (int, error) {
	if !d.prepared {
		d.prepared = true
		d.r, d.err = d.prepare()
	}
	if d.err != nil {
		return 0, d.err
	}

	return d.r.Read(p)
}

func (d *decoder) prepare() (io.Reader, error) {
	r := d.src
	for i := len(d.codings) - 1; i >= 0; i-- {
		switch coding := d.codings[i]; coding {
		case "gzip", "x-gzip":
			zr, err := gzip.NewReader(r)
			if err != nil {
				return nil, fmt.Errorf("gzip: %w", err)
			}
			d.closers = append(d.closers, zr)
			r = zr
		case "deflate":
			zr, err := zlib.NewReader(r)
			if err != nil {
				return nil, fmt.Errorf("deflate: %w", err)
			}
			d.closers = append(d.closers, zr)
			r = zr
		case "br":
			r = brotli.NewReader(r)
		default:
			return nil, &UnsupportedEncodingError{Encoding: coding}
		}
	}

	return r, nil
}

// Close releases the decompressors. It does not close src.
func (d *decoder) Close() error {
	var errs []error
	for _, c := range d.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
