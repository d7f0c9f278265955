// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node_test

import (
	"bufio"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/txsyncd/node"
	"github.com/bitmark-inc/txsyncd/protocol"
	"github.com/bitmark-inc/txsyncd/storage"
	"github.com/bitmark-inc/txsyncd/transaction"
)

const (
	testingDirName = "testing"
	waitFor        = 2 * time.Second
	pollEvery      = 10 * time.Millisecond
)

var (
	tx1 = transaction.New("0x01", "0x0a", 1)
	tx2 = transaction.New("0x02", "0x0b", 2.5)
	tx3 = transaction.New("0x03", "0x0c", 30)
)

func setupTestLogger() {
	removeFiles()
	_ = os.Mkdir(testingDirName, 0700)

	logging := logger.Configuration{
		Directory: testingDirName,
		File:      "testing.log",
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}

	// start logging
	_ = logger.Initialise(logging)
}

func teardownTestLogger() {
	logger.Finalise()
	removeFiles()
}

func removeFiles() {
	_ = os.RemoveAll(testingDirName)
}

// file backed store pre-filled with transactions
func newStore(t *testing.T, name string, transactions ...transaction.Transaction) *storage.Store {
	log := logger.New("storage")
	store := storage.New(log, storage.NewFileBackend(log, storeFile(name)))
	for _, tx := range transactions {
		inserted, err := store.Insert(tx)
		assert.Nil(t, err, "insert error")
		assert.True(t, inserted, "insert failed")
	}
	return store
}

func storeFile(name string) string {
	return filepath.Join(testingDirName, name+".json")
}

func newListeningNode(t *testing.T, name string, transactions ...transaction.Transaction) *node.Node {
	n, err := node.New(newStore(t, name, transactions...))
	assert.Nil(t, err, "new node error")

	err = n.Listen("127.0.0.1", 0)
	assert.Nil(t, err, "listen error")
	return n
}

func portOf(t *testing.T, address string) int {
	_, port, err := net.SplitHostPort(address)
	assert.Nil(t, err, "split address error")
	p, err := strconv.Atoi(port)
	assert.Nil(t, err, "port error")
	return p
}

// raw stream to a node, used to play the part of a remote peer
type rawPeer struct {
	conn   net.Conn
	reader *bufio.Reader
}

func dial(t *testing.T, n *node.Node) *rawPeer {
	conn, err := net.Dial("tcp", n.ListenAddress())
	assert.Nil(t, err, "dial error")
	return &rawPeer{
		conn:   conn,
		reader: bufio.NewReader(conn),
	}
}

func (p *rawPeer) send(t *testing.T, msg protocol.Message) {
	assert.Nil(t, protocol.WriteMessage(p.conn, msg), "write error")
}

func (p *rawPeer) read(t *testing.T) protocol.Message {
	_ = p.conn.SetReadDeadline(time.Now().Add(waitFor))
	msg, err := protocol.ReadMessage(p.reader)
	assert.Nil(t, err, "read error")
	return msg
}

func (p *rawPeer) close() {
	p.conn.Close()
}

func peerCountIs(n *node.Node, expected int) func() bool {
	return func() bool {
		return expected == n.PeerCount()
	}
}
