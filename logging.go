// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpfacade

import (
	"github.com/apex/log"
	"github.com/gogama/httpfacade/request"
)

// LogHandlers installs handlers into g which log plan executions to
// logger. Every entry carries the execution ID, method and URL.
// Individual attempts are logged at debug level; a failed execution is
// logged at warn level.
func LogHandlers(g *HandlerGroup, logger log.Interface) {
	if logger == nil {
		panic("httpfacade: nil logger")
	}
	g.PushBack(BeforeAttempt, HandlerFunc(func(_ Event, e *request.Execution) {
		entry(logger, e).WithField("attempt", e.Attempt).Debug("sending request")
	}))
	g.PushBack(AfterAttemptTimeout, HandlerFunc(func(_ Event, e *request.Execution) {
		entry(logger, e).WithField("attempt", e.Attempt).Debug("attempt timed out")
	}))
	g.PushBack(AfterAttempt, HandlerFunc(func(_ Event, e *request.Execution) {
		en := entry(logger, e).WithField("attempt", e.Attempt)
		if e.Err != nil {
			en.WithError(e.Err).Debug("attempt failed")
			return
		}
		en.WithField("status", e.StatusCode()).Debug("attempt complete")
	}))
	g.PushBack(AfterExecutionEnd, HandlerFunc(func(_ Event, e *request.Execution) {
		en := entry(logger, e).WithFields(log.Fields{
			"attempts": e.Attempt + 1,
			"duration": e.Duration().String(),
		})
		if e.Err != nil {
			en.WithError(e.Err).Warn("request failed")
			return
		}
		en.WithField("status", e.StatusCode()).Debug("request complete")
	}))
}

func entry(logger log.Interface, e *request.Execution) *log.Entry {
	return logger.WithFields(log.Fields{
		"id":     e.ID,
		"method": e.Plan.Method,
		"url":    e.Plan.URL.String(),
	})
}
