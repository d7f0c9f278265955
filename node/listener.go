// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node

import (
	"errors"
	"net"

	"github.com/bitmark-inc/logger"
)

// accept loop for one bound socket
type listener struct {
	log      *logger.L
	socket   net.Listener
	accepted func(net.Conn)
}

// Run - accept until shutdown or a socket error
func (l *listener) Run(args interface{}, shutdown <-chan struct{}) {
	log := l.log

	log.Infof("listening on: %s", l.socket.Addr())

	// Accept only returns early if the socket is closed
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-shutdown:
		case <-done:
		}
		l.socket.Close()
	}()

	for {
		conn, err := l.socket.Accept()
		if nil != err {
			if errors.Is(err, net.ErrClosed) {
				log.Info("stopped")
			} else {
				log.Errorf("accept error: %s", err)
			}
			return
		}
		log.Infof("accepted: %s", conn.RemoteAddr())
		l.accepted(conn)
	}
}
