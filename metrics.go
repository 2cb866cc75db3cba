// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpfacade

import (
	"errors"
	"strconv"

	"github.com/gogama/httpfacade/cache"
	"github.com/gogama/httpfacade/request"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for a facade.
type Metrics struct {
	attempts   *prometheus.CounterVec
	executions *prometheus.HistogramVec
	cache      *prometheus.CounterVec
}

// NewMetrics creates the collectors under namespace and registers them
// with reg. Collectors already registered by an earlier call are
// reused, so several facades can share one registry.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	return &Metrics{
		attempts: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_total",
			Help:      "HTTP request attempts by method and status code.",
		}, []string{"method", "code"})),
		executions: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "execution_duration_seconds",
			Help:      "Duration of complete plan executions, including retries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "outcome"})),
		cache: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Response cache lookups by outcome.",
		}, []string{"outcome"})),
	}
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// Install adds handlers to g which count attempts and time executions.
func (m *Metrics) Install(g *HandlerGroup) {
	g.PushBack(AfterAttempt, HandlerFunc(func(_ Event, e *request.Execution) {
		code := "error"
		if e.Response != nil {
			code = strconv.Itoa(e.StatusCode())
		}
		m.attempts.WithLabelValues(e.Plan.Method, code).Inc()
	}))
	g.PushBack(AfterExecutionEnd, HandlerFunc(func(_ Event, e *request.Execution) {
		outcome := "success"
		if e.Err != nil {
			outcome = "error"
		} else if !e.Success() {
			outcome = "status"
		}
		m.executions.WithLabelValues(e.Plan.Method, outcome).Observe(e.Duration().Seconds())
	}))
}

// ObserveCache counts one response cache lookup.
func (m *Metrics) ObserveCache(o cache.Outcome) {
	m.cache.WithLabelValues(string(o)).Inc()
}
