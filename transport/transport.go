// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gogama/httpfacade/timeout"
	"golang.org/x/net/http2"
)

// Settings configures New.
type Settings struct {
	// Phases holds the connect, read and write timeouts.
	Phases timeout.Phases

	// InsecureHosts lists host names whose certificates are accepted
	// even when the certificate does not name the host. The chain must
	// still verify. Matching is case-insensitive and exact.
	InsecureHosts []string

	// RootCAs, if non-nil, replaces the system certificate pool.
	RootCAs *x509.CertPool

	// MaxIdleConnsPerHost bounds the keep-alive pool per host. Zero
	// means 5.
	MaxIdleConnsPerHost int

	// DisableHTTP2 keeps every connection on HTTP/1.1.
	DisableHTTP2 bool
}

// New returns an *http.Transport configured from s.
func New(s Settings) (*http.Transport, error) {
	if err := s.Phases.Validate(); err != nil {
		return nil, err
	}

	idle := s.MaxIdleConnsPerHost
	if idle <= 0 {
		idle = 5
	}

	dialer := &net.Dialer{
		Timeout:   s.Phases.Connect,
		KeepAlive: 30 * time.Second,
	}
	read, write := s.Phases.Read, s.Phases.Write

	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			c, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			return wrapConn(c, read, write), nil
		},
		TLSClientConfig:       tlsConfig(s.RootCAs, s.InsecureHosts),
		TLSHandshakeTimeout:   s.Phases.Connect,
		ResponseHeaderTimeout: read,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   idle,
		IdleConnTimeout:       5 * time.Minute,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if s.DisableHTTP2 {
		t.TLSNextProto = map[string]func(string, *tls.Conn) http.RoundTripper{}
		return t, nil
	}

	h2, err := http2.ConfigureTransports(t)
	if err != nil {
		return nil, err
	}
	h2.WriteByteTimeout = write
	if read > 0 {
		h2.ReadIdleTimeout = read
		h2.PingTimeout = read
	}
	return t, nil
}

func tlsConfig(roots *x509.CertPool, insecureHosts []string) *tls.Config {
	cfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		RootCAs:    roots,
	}
	if len(insecureHosts) == 0 {
		return cfg
	}

	skip := make(map[string]bool, len(insecureHosts))
	for _, h := range insecureHosts {
		skip[strings.ToLower(h)] = true
	}

	// Standard verification is switched off so that VerifyConnection can
	// redo it with the host name check made conditional.
	cfg.InsecureSkipVerify = true
	cfg.VerifyConnection = func(cs tls.ConnectionState) error {
		return verifyChain(cs, roots, skip)
	}
	return cfg
}

func verifyChain(cs tls.ConnectionState, roots *x509.CertPool, skip map[string]bool) error {
	if len(cs.PeerCertificates) == 0 {
		return x509.CertificateInvalidError{Reason: x509.NotAuthorizedToSign, Detail: "no peer certificate"}
	}
	opts := x509.VerifyOptions{
		Roots:         roots,
		Intermediates: x509.NewCertPool(),
	}
	if !skip[strings.ToLower(cs.ServerName)] {
		opts.DNSName = cs.ServerName
	}
	for _, cert := range cs.PeerCertificates[1:] {
		opts.Intermediates.AddCert(cert)
	}
	_, err := cs.PeerCertificates[0].Verify(opts)
	return err
}
