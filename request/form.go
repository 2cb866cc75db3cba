// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"net/http"
	urlpkg "net/url"
)

// FormContentType is the Content-Type of a url-encoded form body.
const FormContentType = "application/x-www-form-urlencoded"

// FormValues converts a field map into url.Values. A nil or empty map
// yields empty values.
func FormValues(fields map[string]string) urlpkg.Values {
	v := make(urlpkg.Values, len(fields))
	for key, value := range fields {
		v.Set(key, value)
	}
	return v
}

// NewFormPlan returns a POST plan whose body is fields, url-encoded, and
// whose Content-Type is application/x-www-form-urlencoded.
//
// Keys are encoded in sorted order, so the same fields always produce
// the same body.
func NewFormPlan(ctx context.Context, url string, fields map[string]string) (*Plan, error) {
	p, err := NewPlanWithContext(ctx, http.MethodPost, url, FormValues(fields).Encode())
	if err != nil {
		return nil, err
	}
	p.Header.Set("Content-Type", FormContentType)
	return p, nil
}
