// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package cache

import (
	"bufio"
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/pkg/errors"
	"github.com/pquerna/cachecontrol/cacheobject"
)

// XFromCache is set to "1" on responses served from the store,
// including responses revalidated by a 304 Not Modified.
const XFromCache = "X-From-Cache"

// expiresAtHeader records when an entry stops being fresh, in Unix
// seconds. It is never visible on served responses.
const expiresAtHeader = "X-Httpfacade-Expires-At"

// variedPrefix prefixes the stored copy of each request header named
// by the response's Vary header.
const variedPrefix = "X-Httpfacade-Varied-"

// An Outcome describes how Transport handled one round trip.
type Outcome string

const (
	// Hit means a fresh entry was served without network I/O.
	Hit Outcome = "hit"
	// Revalidated means a stale entry was confirmed by a 304.
	Revalidated Outcome = "revalidated"
	// Miss means the response came from the network.
	Miss Outcome = "miss"
	// Bypass means the request was not eligible for caching.
	Bypass Outcome = "bypass"
)

// Transport is a caching http.RoundTripper acting as a private cache.
//
// Only GET requests without a Range header are eligible. Responses are
// stored when their status is 200, they are cacheable under RFC 7234,
// the response does not carry Vary: *, and the response is either fresh
// or has a validator (ETag or Last-Modified). An entry is only served
// to requests whose headers named by Vary match those it was stored
// for.
//
// A body longer than the store's budget is passed through unstored
// without being buffered.
type Transport struct {
	// Store holds the entries. It must not be nil. If it has a
	// MaxBytes() int64 method, bodies are only buffered up to that
	// many bytes; otherwise up to DefaultMaxBytes.
	Store Store

	// Next performs network round trips. If nil,
	// http.DefaultTransport is used.
	Next http.RoundTripper

	// Now returns the current time. If nil, time.Now is used.
	Now func() time.Time

	// Observe, if not nil, is called once per round trip with its
	// outcome.
	Observe func(Outcome)

	// Logger, if not nil, receives store errors. Store errors never
	// fail a round trip.
	Logger log.Interface
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	reqDir, ok := cacheableRequest(req)
	if !ok {
		t.observe(Bypass)
		return t.next().RoundTrip(req)
	}

	key := req.URL.String()
	cached := t.lookup(key, req)
	if cached != nil {
		noCache := reqDir.NoCache || strings.EqualFold(req.Header.Get("Pragma"), "no-cache")
		if !noCache && t.now().Before(expiresAt(cached.Header)) {
			t.observe(Hit)
			return serve(cached), nil
		}
		if hasValidator(cached.Header) {
			return t.revalidate(key, req, cached)
		}
		_ = cached.Body.Close()
	}

	resp, err := t.next().RoundTrip(req)
	if err != nil {
		return nil, err
	}
	t.observe(Miss)
	return t.maybeStore(key, req, resp)
}

func (t *Transport) revalidate(key string, req *http.Request, cached *http.Response) (*http.Response, error) {
	cond := req.Clone(req.Context())
	if etag := cached.Header.Get("Etag"); etag != "" {
		cond.Header.Set("If-None-Match", etag)
	}
	if lm := cached.Header.Get("Last-Modified"); lm != "" {
		cond.Header.Set("If-Modified-Since", lm)
	}

	resp, err := t.next().RoundTrip(cond)
	if err != nil {
		_ = cached.Body.Close()
		return nil, err
	}
	if resp.StatusCode != http.StatusNotModified {
		_ = cached.Body.Close()
		t.observe(Miss)
		return t.maybeStore(key, req, resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	for _, h := range []string{"Cache-Control", "Date", "Expires", "Etag", "Last-Modified", "Vary"} {
		if v, ok := resp.Header[h]; ok {
			cached.Header[h] = v
		}
	}
	body, err := io.ReadAll(cached.Body)
	_ = cached.Body.Close()
	if err != nil {
		return nil, errors.Wrap(err, "cache: read entry body")
	}
	cached.Body = io.NopCloser(bytes.NewReader(body))
	if expires, ok := t.policy(req, cached); ok {
		t.store(key, req, cached, body, expires)
	} else {
		_ = t.Store.Delete(key)
	}
	t.observe(Revalidated)
	return serve(cached), nil
}

func (t *Transport) maybeStore(key string, req *http.Request, resp *http.Response) (*http.Response, error) {
	expires, ok := t.policy(req, resp)
	if !ok {
		return resp, nil
	}
	limit := t.maxBytes()
	if resp.ContentLength > limit {
		return resp, nil
	}
	prefix, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		_ = resp.Body.Close()
		return nil, err
	}
	if int64(len(prefix)) > limit {
		resp.Body = &prefixedBody{
			Reader: io.MultiReader(bytes.NewReader(prefix), resp.Body),
			Closer: resp.Body,
		}
		return resp, nil
	}
	_ = resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(prefix))
	t.store(key, req, resp, prefix, expires)
	return resp, nil
}

// prefixedBody is a response body whose first bytes were already read.
type prefixedBody struct {
	io.Reader
	io.Closer
}

func (t *Transport) lookup(key string, req *http.Request) *http.Response {
	b, err := t.Store.Get(key)
	if errors.Is(err, ErrMiss) {
		return nil
	} else if err != nil {
		t.logError(err, key, "cache lookup failed")
		return nil
	}
	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(b)), req)
	if err != nil {
		t.logError(err, key, "discarding corrupt cache entry")
		_ = t.Store.Delete(key)
		return nil
	}
	if !varyMatches(req, resp.Header) {
		_ = resp.Body.Close()
		return nil
	}
	return resp
}

func (t *Transport) store(key string, req *http.Request, resp *http.Response, body []byte, expires time.Time) {
	b, err := encode(req, resp, body, expires)
	if err == nil {
		err = t.Store.Set(key, b)
	}
	if err != nil {
		t.logError(err, key, "cache store failed")
	}
}

// policy reports whether resp to req may be stored and, if so, when it
// stops being fresh. A zero time means the entry is stale at once and
// is kept only for revalidation.
func (t *Transport) policy(req *http.Request, resp *http.Response) (time.Time, bool) {
	if resp.StatusCode != http.StatusOK {
		return time.Time{}, false
	}
	for _, v := range resp.Header.Values("Vary") {
		if strings.TrimSpace(v) == "*" {
			return time.Time{}, false
		}
	}
	reqDir, err := cacheobject.ParseRequestCacheControl(cacheControl(req.Header))
	if err != nil {
		return time.Time{}, false
	}
	respDir, err := cacheobject.ParseResponseCacheControl(cacheControl(resp.Header))
	if err != nil {
		return time.Time{}, false
	}

	now := t.now().UTC()
	obj := &cacheobject.Object{
		CacheIsPrivate:         true,
		RespDirectives:         respDir,
		RespHeaders:            resp.Header,
		RespStatusCode:         resp.StatusCode,
		RespExpiresHeader:      parseTime(resp.Header.Get("Expires")),
		RespDateHeader:         parseTime(resp.Header.Get("Date")),
		RespLastModifiedHeader: parseTime(resp.Header.Get("Last-Modified")),
		ReqDirectives:          reqDir,
		ReqHeaders:             req.Header,
		ReqMethod:              req.Method,
		NowUTC:                 now,
	}
	rv := &cacheobject.ObjectResults{}
	cacheobject.CachableObject(obj, rv)
	if len(rv.OutReasons) > 0 || rv.OutErr != nil {
		return time.Time{}, false
	}
	cacheobject.ExpirationObject(obj, rv)

	expires := rv.OutExpirationTime
	if respDir.NoCachePresent || !expires.After(now) {
		expires = time.Time{}
	}
	return expires, !expires.IsZero() || hasValidator(resp.Header)
}

func (t *Transport) maxBytes() int64 {
	if b, ok := t.Store.(interface{ MaxBytes() int64 }); ok && b.MaxBytes() > 0 {
		return b.MaxBytes()
	}
	return DefaultMaxBytes
}

func (t *Transport) next() http.RoundTripper {
	if t.Next != nil {
		return t.Next
	}
	return http.DefaultTransport
}

func (t *Transport) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

func (t *Transport) observe(o Outcome) {
	if t.Observe != nil {
		t.Observe(o)
	}
}

func (t *Transport) logError(err error, key, msg string) {
	if t.Logger != nil {
		t.Logger.WithError(err).WithField("key", key).Warn(msg)
	}
}

// encode serializes resp as an HTTP/1.1 response with the given body,
// recording its expiry and the request headers it varies on.
func encode(req *http.Request, resp *http.Response, body []byte, expires time.Time) ([]byte, error) {
	r := *resp
	r.Proto, r.ProtoMajor, r.ProtoMinor = "HTTP/1.1", 1, 1
	r.Header = make(http.Header, len(resp.Header)+2)
	for k, v := range resp.Header {
		if !strings.HasPrefix(k, variedPrefix) {
			r.Header[k] = v
		}
	}
	r.Header.Del(XFromCache)
	var exp int64
	if !expires.IsZero() {
		exp = expires.Unix()
	}
	r.Header.Set(expiresAtHeader, strconv.FormatInt(exp, 10))
	for _, name := range varyNames(resp.Header) {
		r.Header.Set(variedPrefix+name, strings.Join(req.Header.Values(name), ", "))
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	r.ContentLength = int64(len(body))
	r.TransferEncoding = nil
	r.Trailer = nil
	r.Close = false
	r.Request = nil

	var buf bytes.Buffer
	if err := r.Write(&buf); err != nil {
		return nil, errors.Wrap(err, "cache: encode entry")
	}
	return buf.Bytes(), nil
}

func serve(resp *http.Response) *http.Response {
	for k := range resp.Header {
		if k == expiresAtHeader || strings.HasPrefix(k, variedPrefix) {
			delete(resp.Header, k)
		}
	}
	resp.Header.Set(XFromCache, "1")
	return resp
}

func cacheableRequest(req *http.Request) (*cacheobject.RequestCacheDirectives, bool) {
	if req.Method != http.MethodGet || req.Header.Get("Range") != "" {
		return nil, false
	}
	dir, err := cacheobject.ParseRequestCacheControl(cacheControl(req.Header))
	if err != nil || dir.NoStore {
		return nil, false
	}
	return dir, true
}

func hasValidator(h http.Header) bool {
	return h.Get("Etag") != "" || h.Get("Last-Modified") != ""
}

func expiresAt(h http.Header) time.Time {
	secs, err := strconv.ParseInt(h.Get(expiresAtHeader), 10, 64)
	if err != nil || secs <= 0 {
		return time.Time{}
	}
	return time.Unix(secs, 0)
}

// varyNames returns the canonical header names listed by Vary.
func varyNames(h http.Header) []string {
	var names []string
	for _, line := range h.Values("Vary") {
		for _, name := range strings.Split(line, ",") {
			if name = strings.TrimSpace(name); name != "" && name != "*" {
				names = append(names, http.CanonicalHeaderKey(name))
			}
		}
	}
	return names
}

func varyMatches(req *http.Request, stored http.Header) bool {
	for _, name := range varyNames(stored) {
		if stored.Get(variedPrefix+name) != strings.Join(req.Header.Values(name), ", ") {
			return false
		}
	}
	return true
}

func cacheControl(h http.Header) string {
	return strings.Join(h.Values("Cache-Control"), ", ")
}

func parseTime(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := http.ParseTime(v)
	if err != nil {
		return time.Time{}
	}
	return t
}
