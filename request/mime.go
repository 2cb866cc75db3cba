// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"mime"
	"path/filepath"
)

// OctetStream is the content type given to file parts whose extension
// has no known content type.
const OctetStream = "application/octet-stream"

// ContentTypeFor makes a best-effort guess at the content type of a
// file from the extension of its name, for example "image/png" for
// "photo.png". It returns OctetStream if the extension is missing or
// unknown.
func ContentTypeFor(filename string) string {
	ext := filepath.Ext(filename)
	if ext == "" {
		return OctetStream
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return OctetStream
}
