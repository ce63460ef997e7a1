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

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"net/url"
	"strings"
)

// XMLNode is a generic XML element.
type XMLNode struct {
	Name     string            `json:"name"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Text     string            `json:"text,omitempty"`
	Children []*XMLNode        `json:"children,omitempty"`
}

// Child returns the first direct child with the given local name.
func (n *XMLNode) Child(name string) *XMLNode {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}

	return nil
}

var errNoRootElement = errors.New("no root element")

// NewXML creates a strategy decoding XML into an [*XMLNode] tree. Element
// and attribute names are local names; character data is trimmed.
func NewXML(opts ...StrategyOption) (*Decoding, error) {
	return NewDecoding("xml", decodeXML, opts...)
}

// MustNewXML is like [NewXML] but panics on error.
func MustNewXML(opts ...StrategyOption) *Decoding {
	d, err := NewXML(opts...)
	if err != nil {
		panic(err)
	}

	return d
}

func decodeXML(data []byte) (any, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		root  *XMLNode
		stack []*XMLNode
		text  []*strings.Builder
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if root != nil && len(stack) == 0 {
				return nil, errors.New("multiple root elements")
			}
			node := &XMLNode{Name: t.Name.Local}
			if len(t.Attr) > 0 {
				node.Attrs = make(map[string]string, len(t.Attr))
				for _, a := range t.Attr {
					node.Attrs[a.Name.Local] = a.Value
				}
			}
			if len(stack) == 0 {
				root = node
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
			}
			stack = append(stack, node)
			text = append(text, &strings.Builder{})
		case xml.CharData:
			if len(stack) > 0 {
				text[len(text)-1].Write(t)
			}
		case xml.EndElement:
			node := stack[len(stack)-1]
			node.Text = strings.TrimSpace(text[len(text)-1].String())
			stack = stack[:len(stack)-1]
			text = text[:len(text)-1]
		}
	}
	if root == nil {
		return nil, errNoRootElement
	}

	return root, nil
}

// NewForm creates a strategy decoding application/x-www-form-urlencoded
// bodies into [url.Values].
func NewForm(opts ...StrategyOption) (*Decoding, error) {
	return NewDecoding("form", func(data []byte) (any, error) {
		return url.ParseQuery(string(data))
	}, opts...)
}

// MustNewForm is like [NewForm] but panics on error.
func MustNewForm(opts ...StrategyOption) *Decoding {
	d, err := NewForm(opts...)
	if err != nil {
		panic(err)
	}

	return d
}
