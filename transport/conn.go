// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"net"
	"time"
)

// deadlineConn pushes the read (write) deadline forward before each
// Read (Write), bounding how long any single operation may block.
//
// Write also pushes the read deadline forward. An idle keep-alive
// connection has a Read pending from the moment the previous response
// ended, and the response to a newly written request must get the full
// read timeout rather than what remains of the idle one.
type deadlineConn struct {
	net.Conn
	read  time.Duration
	write time.Duration
}

func wrapConn(c net.Conn, read, write time.Duration) net.Conn {
	if read <= 0 && write <= 0 {
		return c
	}
	return &deadlineConn{Conn: c, read: read, write: write}
}

func (c *deadlineConn) Read(b []byte) (int, error) {
	if c.read > 0 {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.read)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Read(b)
}

func (c *deadlineConn) Write(b []byte) (int, error) {
	now := time.Now()
	if c.write > 0 {
		if err := c.Conn.SetWriteDeadline(now.Add(c.write)); err != nil {
			return 0, err
		}
	}
	n, err := c.Conn.Write(b)
	if c.read > 0 && n > 0 {
		if derr := c.Conn.SetReadDeadline(time.Now().Add(c.read)); derr != nil && err == nil {
			err = derr
		}
	}
	return n, err
}
