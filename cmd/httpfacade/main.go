// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Command httpfacade fetches, posts forms to, and uploads files to
// HTTP URLs using the httpfacade package.
//
//	httpfacade get URL [--output FILE]
//	httpfacade post URL -f key=value...
//	httpfacade upload URL [-f key=value...] --file field=path...
package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
