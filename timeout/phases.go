// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"fmt"
	"time"
)

// Phases contains the connection-level timeouts of a client. A zero
// value for any phase means that phase never times out.
type Phases struct {
	// Connect bounds establishing a connection, including the TLS
	// handshake.
	Connect time.Duration
	// Read bounds each individual read from the connection. It is not a
	// limit on reading a whole response body, only on waiting for the
	// next bytes to arrive.
	Read time.Duration
	// Write bounds each individual write to the connection.
	Write time.Duration
}

// DefaultPhases connects within 15 seconds and allows 20 seconds for
// each read and each write.
var DefaultPhases = Phases{
	Connect: 15 * time.Second,
	Read:    20 * time.Second,
	Write:   20 * time.Second,
}

// Validate returns an error if any phase is negative.
func (p Phases) Validate() error {
	if p.Connect < 0 || p.Read < 0 || p.Write < 0 {
		return fmt.Errorf("httpfacade/timeout: negative phase timeout in %s", p)
	}
	return nil
}

func (p Phases) String() string {
	return fmt.Sprintf("{connect=%s read=%s write=%s}", p.Connect, p.Read, p.Write)
}
