// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpfacade

import (
	"context"
	"sync"

	"github.com/gogama/httpfacade/request"
)

// tagRegistry records the cancel function of every tracked plan that
// carries a tag. The zero value is ready to use.
type tagRegistry struct {
	mu    sync.Mutex
	calls map[interface{}]map[*registration]struct{}
}

type registration struct {
	cancel context.CancelFunc
}

// track returns a copy of p whose context is canceled by cancel(p.Tag),
// and a release function which must be called once p is finished with.
// Plans without a tag are returned unchanged.
func (r *tagRegistry) track(p *request.Plan) (*request.Plan, func()) {
	tag := p.Tag
	if tag == nil {
		return p, func() {}
	}
	ctx, cancel := context.WithCancel(p.Context())
	reg := &registration{cancel: cancel}
	r.mu.Lock()
	if r.calls == nil {
		r.calls = make(map[interface{}]map[*registration]struct{})
	}
	regs := r.calls[tag]
	if regs == nil {
		regs = make(map[*registration]struct{})
		r.calls[tag] = regs
	}
	regs[reg] = struct{}{}
	r.mu.Unlock()
	return p.WithContext(ctx), func() {
		r.mu.Lock()
		if regs := r.calls[tag]; regs != nil {
			delete(regs, reg)
			if len(regs) == 0 {
				delete(r.calls, tag)
			}
		}
		r.mu.Unlock()
		cancel()
	}
}

// cancel cancels every tracked plan whose tag equals tag and returns
// how many there were.
func (r *tagRegistry) cancel(tag interface{}) int {
	if tag == nil {
		return 0
	}
	r.mu.Lock()
	regs := r.calls[tag]
	delete(r.calls, tag)
	r.mu.Unlock()
	for reg := range regs {
		reg.cancel()
	}
	return len(regs)
}

// size returns the number of tags with at least one tracked plan.
func (r *tagRegistry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}
