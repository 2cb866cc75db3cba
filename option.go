// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpfacade

import (
	"crypto/x509"
	"net/http"

	"github.com/apex/log"
	"github.com/prometheus/client_golang/prometheus"
)

// An Option customizes a Facade beyond its configuration.
type Option func(*options)

type options struct {
	logger     log.Interface
	registerer prometheus.Registerer
	rootCAs    *x509.CertPool
	transport  http.RoundTripper
	backend    Backend
}

// UseLogger sets the logger. By default the facade logs to standard
// error at the configured level.
func UseLogger(logger log.Interface) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// UseRegisterer sets where metrics are registered when metrics are
// enabled in the configuration. The default is
// prometheus.DefaultRegisterer.
func UseRegisterer(r prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = r
	}
}

// UseRootCAs sets the certificate authorities trusted for TLS instead
// of the system pool.
func UseRootCAs(pool *x509.CertPool) Option {
	return func(o *options) {
		o.rootCAs = pool
	}
}

// UseTransport replaces the network transport built from the
// configuration. The response cache, if enabled, still sits in front
// of it.
func UseTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.transport = rt
	}
}

// UseBackend replaces the plan executor entirely. The configured
// transport, cache, retry and timeout settings are then not used.
func UseBackend(b Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// A CallOption customizes a single call.
type CallOption func(*callOptions)

type callOptions struct {
	tag    interface{}
	header http.Header
}

// WithTag attaches an opaque tag to the call. The tag is reported back
// on the Result and can be passed to Cancel. It must be comparable.
func WithTag(tag interface{}) CallOption {
	return func(o *callOptions) {
		o.tag = tag
	}
}

// WithHeader adds a request header field.
func WithHeader(key, value string) CallOption {
	return func(o *callOptions) {
		if o.header == nil {
			o.header = make(http.Header)
		}
		o.header.Add(key, value)
	}
}
