// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package cache implements the facade's on-disk HTTP response cache.
//
// Disk is a file-per-entry store bounded by a byte budget. Entries live
// in 256 sub-directories keyed by the SHA-256 of the cache key and are
// read and written under file locks, so several processes may share a
// cache directory. When a write takes the store over budget, the least
// recently used entries (by modification time) are removed.
//
// Transport is an http.RoundTripper which serves GET responses from a
// Store while they are fresh, revalidates stale entries carrying an
// ETag or Last-Modified validator with a conditional request, and stores
// new 200 responses which carry freshness information or validators.
package cache
