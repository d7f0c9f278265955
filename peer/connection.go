// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"bufio"
	"io"
	"net"
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/txsyncd/fault"
	"github.com/bitmark-inc/txsyncd/protocol"
)

// Handler - called for every decoded message, on the receive loop goroutine
type Handler func(*Connection, protocol.Message)

// Connection - one stream to a remote node
type Connection struct {
	sync.Mutex // serialise frame writes

	log       *logger.L
	conn      net.Conn
	reader    *bufio.Reader
	address   string
	outbound  bool
	closeOnce sync.Once
}

// NewConnection - wrap an established stream
//
// address is the host:port known when the stream was created,
// it is not checked again
func NewConnection(log *logger.L, conn net.Conn, address string, outbound bool) *Connection {
	return &Connection{
		log:      log,
		conn:     conn,
		reader:   bufio.NewReader(conn),
		address:  address,
		outbound: outbound,
	}
}

// Send - encode and write one message
//
// any failure means the peer is gone
func (c *Connection) Send(msg protocol.Message) error {
	c.Lock()
	err := protocol.WriteMessage(c.conn, msg)
	c.Unlock()

	if nil != err {
		c.log.Warnf("send: %s to: %s  error: %s", msg.Kind, c.address, err)
		return fault.ErrPeerUnreachable
	}
	c.log.Debugf("sent: %s to: %s", msg.Kind, c.address)
	return nil
}

// ReceiveLoop - read and dispatch messages until the stream fails
//
// on exit the stream is closed and closed is called so the owner can
// forget this connection
func (c *Connection) ReceiveLoop(handler Handler, closed func(*Connection)) {
	log := c.log

	log.Infof("receiving from: %s", c.address)

loop:
	for {
		msg, err := protocol.ReadMessage(c.reader)
		switch err {
		case nil:
			log.Debugf("received: %s from: %s", msg.Kind, c.address)
			handler(c, msg)
		case io.EOF:
			log.Infof("closed by: %s", c.address)
			break loop
		case fault.ErrMalformedMessage:
			log.Warnf("malformed message from: %s", c.address)
			break loop
		default:
			log.Infof("read from: %s  error: %s", c.address, err)
			break loop
		}
	}

	c.Close()
	if nil != closed {
		closed(c)
	}
}

// Close - close the stream, safe to call more than once
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close()
	})
	return err
}

// IsOutbound - true if this node dialled the connection
func (c *Connection) IsOutbound() bool {
	return c.outbound
}

// String - the remote address
func (c *Connection) String() string {
	return c.address
}
