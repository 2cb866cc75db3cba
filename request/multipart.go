// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// A Multipart accumulates the parts of a multipart/form-data body.
// Field parts are written before file parts, each group in the order
// added. The zero value is an empty body ready to use.
type Multipart struct {
	fields []formField
	files  []FilePart
}

type formField struct {
	name, value string
}

// A FilePart is one file in a multipart body.
type FilePart struct {
	// FieldName is the form field name the file is sent under.
	FieldName string
	// Filename is the file name reported to the server. Only its base
	// name is sent.
	Filename string
	// ContentType of the part. If empty, ContentTypeFor(Filename) is
	// used.
	ContentType string
	// Content is the file data.
	Content []byte
}

// AddField adds a plain form field part.
func (m *Multipart) AddField(name, value string) {
	m.fields = append(m.fields, formField{name, value})
}

// AddFields adds one field part per map entry, in sorted key order.
func (m *Multipart) AddFields(fields map[string]string) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		m.AddField(k, fields[k])
	}
}

// AddFile adds a file part.
func (m *Multipart) AddFile(part FilePart) {
	m.files = append(m.files, part)
}

// AddFilePath reads the file at path and adds it as a file part under
// fieldName, named after the base name of path.
func (m *Multipart) AddFilePath(fieldName, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	m.AddFile(FilePart{
		FieldName: fieldName,
		Filename:  filepath.Base(path),
		Content:   b,
	})
	return nil
}

// Len returns the number of parts added so far.
func (m *Multipart) Len() int {
	return len(m.fields) + len(m.files)
}

// Encode writes the multipart body and returns it along with its
// Content-Type, which carries the boundary parameter.
func (m *Multipart) Encode() (body []byte, contentType string, err error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range m.fields {
		if err = w.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}
	for _, f := range m.files {
		var pw io.Writer
		pw, err = w.CreatePart(f.header())
		if err != nil {
			return nil, "", err
		}
		if _, err = pw.Write(f.Content); err != nil {
			return nil, "", err
		}
	}
	if err = w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func (f *FilePart) header() textproto.MIMEHeader {
	name := filepath.Base(f.Filename)
	ct := f.ContentType
	if ct == "" {
		ct = ContentTypeFor(name)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		escapeQuotes(f.FieldName), escapeQuotes(name)))
	h.Set("Content-Type", ct)
	return h
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// NewMultipartPlan returns a POST plan whose body is the encoded
// multipart body m.
func NewMultipartPlan(ctx context.Context, url string, m *Multipart) (*Plan, error) {
	body, contentType, err := m.Encode()
	if err != nil {
		return nil, err
	}
	p, err := NewPlanWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	p.Header.Set("Content-Type", contentType)
	return p, nil
}
