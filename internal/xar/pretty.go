// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package xar

import (
	"bytes"
	"fmt"

	"github.com/beevik/etree"
)

var (
	decl10 = []byte(`<?xml version="1.0"`)
	decl11 = []byte(`<?xml version="1.1"`)
)

// Prettify re-indents an XML document with two spaces. Wiki pages declare
// XML 1.1, which the decoder refuses, so the declaration is parsed as 1.0
// and restored on output. Malformed input is returned as an error.
func Prettify(input []byte) ([]byte, error) {
	v11 := bytes.HasPrefix(input, decl11)
	if v11 {
		input = append(append([]byte{}, decl10...), input[len(decl11):]...)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(input); err != nil {
		return nil, fmt.Errorf("XML is not well-formed: %v", err)
	}
	doc.Indent(2)

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("formatting XML: %v", err)
	}

	out := buf.Bytes()
	if v11 && bytes.HasPrefix(out, decl10) {
		out = append(append([]byte{}, decl11...), out[len(decl10):]...)
	}
	return out, nil
}
