// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node_test

import (
	"io"
	"math"
	"net"
	"reflect"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/txsyncd/account"
	"github.com/bitmark-inc/txsyncd/fault"
	"github.com/bitmark-inc/txsyncd/node"
	"github.com/bitmark-inc/txsyncd/protocol"
	"github.com/bitmark-inc/txsyncd/storage"
	"github.com/bitmark-inc/txsyncd/transaction"
)

func TestWalletAddress(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	a, err := node.New(newStore(t, "a"))
	assert.Nil(t, err, "new node error")
	b, err := node.New(newStore(t, "b"))
	assert.Nil(t, err, "new node error")

	assert.True(t, account.IsWalletAddress(a.WalletAddress()), "bad wallet: %q", a.WalletAddress())
	assert.True(t, account.IsWalletAddress(b.WalletAddress()), "bad wallet: %q", b.WalletAddress())
	assert.NotEqual(t, a.WalletAddress(), b.WalletAddress(), "wallets repeat")

	tx, err := a.CreateTransaction("0xfeed", 12.5)
	assert.Nil(t, err, "create error")
	assert.Equal(t, transaction.New(a.WalletAddress(), "0xfeed", 12.5), tx, "wrong transaction")
	assert.Equal(t, []transaction.Transaction{tx}, a.ListTransactions(), "not stored")
}

func TestSyncConvergence(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	a := newListeningNode(t, "a", tx1, tx2)
	defer a.Stop()

	b, err := node.New(newStore(t, "b", tx2, tx3))
	assert.Nil(t, err, "new node error")
	defer b.Stop()

	err = b.ConnectToPeer("127.0.0.1", portOf(t, a.ListenAddress()))
	assert.Nil(t, err, "connect error")

	expected := []transaction.Transaction{tx2, tx3, tx1}
	assert.Eventually(t, func() bool {
		return reflect.DeepEqual(expected, b.ListTransactions())
	}, waitFor, pollEvery, "b did not converge")

	// only the dialling side asks for a sync
	assert.Equal(t, []transaction.Transaction{tx1, tx2}, a.ListTransactions(), "a changed")

	// synced entries were persisted
	log := logger.New("storage")
	reloaded := storage.New(log, storage.NewFileBackend(log, storeFile("b")))
	assert.Nil(t, reloaded.Load(), "load error")
	assert.Equal(t, expected, reloaded.All(), "wrong persisted state")

	// new transactions flow both ways over the one stream
	assert.Eventually(t, peerCountIs(a, 1), waitFor, pollEvery, "a has no peer")

	fromA, err := a.CreateTransaction("0xb0b", 1)
	assert.Nil(t, err, "create error")
	assert.Eventually(t, func() bool {
		return 4 == len(b.ListTransactions())
	}, waitFor, pollEvery, "b did not receive")
	assert.Equal(t, fromA, b.ListTransactions()[3], "wrong transaction at b")

	fromB, err := b.CreateTransaction("0xa11ce", 2)
	assert.Nil(t, err, "create error")
	assert.Eventually(t, func() bool {
		return 4 == len(a.ListTransactions())
	}, waitFor, pollEvery, "a did not receive")
	assert.Equal(t, fromB, a.ListTransactions()[3], "wrong transaction at a")
}

func TestBroadcastFanOut(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	a := newListeningNode(t, "a")
	defer a.Stop()

	const n = 3
	peers := make([]*rawPeer, n)
	for i := range peers {
		peers[i] = dial(t, a)
		defer peers[i].close()
	}
	assert.Eventually(t, peerCountIs(a, n), waitFor, pollEvery, "peers not accepted")

	tx, err := a.CreateTransaction("0xc0ffee", 7)
	assert.Nil(t, err, "create error")

	// a duplicate is stored once but still sent
	again, err := a.CreateTransaction("0xc0ffee", 7)
	assert.Nil(t, err, "create error")
	assert.Equal(t, tx, again, "transactions differ")
	assert.Equal(t, 1, len(a.ListTransactions()), "duplicate stored")

	for i, p := range peers {
		for j := 0; j < 2; j += 1 {
			msg := p.read(t)
			assert.Equal(t, protocol.KindTransaction, msg.Kind, "%d.%d: wrong kind", i, j)
			assert.Equal(t, tx, msg.Transaction, "%d.%d: wrong transaction", i, j)
		}
	}
}

func TestReceivedTransactionIsNotRelayed(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	a := newListeningNode(t, "a")
	defer a.Stop()

	sender := dial(t, a)
	defer sender.close()
	watcher := dial(t, a)
	defer watcher.close()
	assert.Eventually(t, peerCountIs(a, 2), waitFor, pollEvery, "peers not accepted")

	sender.send(t, protocol.NewTransaction(tx1))
	sender.send(t, protocol.NewTransaction(tx1))
	assert.Eventually(t, func() bool {
		return 1 == len(a.ListTransactions())
	}, waitFor, pollEvery, "transaction not stored")

	_ = watcher.conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, err := protocol.ReadMessage(watcher.reader)
	netErr, ok := err.(net.Error)
	assert.True(t, ok && netErr.Timeout(), "watcher received something: %v", err)

	assert.Equal(t, []transaction.Transaction{tx1}, a.ListTransactions(), "wrong list")
}

func TestSyncRequestIsAnswered(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	a := newListeningNode(t, "a", tx1, tx2, tx3)
	defer a.Stop()

	p := dial(t, a)
	defer p.close()

	// unknown types are ignored and the stream stays usable
	p.send(t, protocol.Message{Type: "ping"})
	p.send(t, protocol.NewSyncRequest())

	msg := p.read(t)
	assert.Equal(t, protocol.KindSyncResponse, msg.Kind, "wrong kind")
	assert.Equal(t, []transaction.Transaction{tx1, tx2, tx3}, msg.Transactions, "wrong list")
	assert.Equal(t, 1, a.PeerCount(), "peer dropped")
}

func TestSyncResponseIsStored(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	a := newListeningNode(t, "a", tx2)
	defer a.Stop()

	p := dial(t, a)
	defer p.close()

	p.send(t, protocol.NewSyncResponse([]transaction.Transaction{tx1, tx2, tx3}))

	expected := []transaction.Transaction{tx2, tx1, tx3}
	assert.Eventually(t, func() bool {
		return reflect.DeepEqual(expected, a.ListTransactions())
	}, waitFor, pollEvery, "response not stored")
}

func TestMalformedMessageDropsPeer(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	a := newListeningNode(t, "a")
	defer a.Stop()

	good := dial(t, a)
	defer good.close()
	bad := dial(t, a)
	defer bad.close()
	assert.Eventually(t, peerCountIs(a, 2), waitFor, pollEvery, "peers not accepted")

	_, err := bad.conn.Write([]byte{0, 0, 0, 5, '[', '1', ',', '2', ']'})
	assert.Nil(t, err, "write error")

	assert.Eventually(t, peerCountIs(a, 1), waitFor, pollEvery, "bad peer not dropped")

	_ = bad.conn.SetReadDeadline(time.Now().Add(waitFor))
	_, err = protocol.ReadMessage(bad.reader)
	assert.NotNil(t, err, "stream not closed")

	// the other peer is unaffected
	_, err = a.CreateTransaction("0x99", 9)
	assert.Nil(t, err, "create error")
	assert.Equal(t, protocol.KindTransaction, good.read(t).Kind, "good peer missed broadcast")
}

func TestDisconnectedPeerIsRemoved(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	a := newListeningNode(t, "a")
	defer a.Stop()

	p := dial(t, a)
	assert.Eventually(t, peerCountIs(a, 1), waitFor, pollEvery, "peer not accepted")

	p.close()
	assert.Eventually(t, peerCountIs(a, 0), waitFor, pollEvery, "peer not removed")

	// nothing left to send to
	_, err := a.CreateTransaction("0x01", 1)
	assert.Nil(t, err, "create error")
}

func TestListenErrors(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	a := newListeningNode(t, "a")
	defer a.Stop()

	assert.Equal(t, fault.ErrAlreadyListening, a.Listen("127.0.0.1", 0), "second listen allowed")

	b, err := node.New(newStore(t, "b"))
	assert.Nil(t, err, "new node error")
	defer b.Stop()

	assert.Equal(t, "", b.ListenAddress(), "address before listen")
	err = b.Listen("127.0.0.1", portOf(t, a.ListenAddress()))
	assert.Equal(t, fault.ErrBindFailure, err, "port in use accepted")

	err = b.Listen("127.0.0.1", 70000)
	assert.Equal(t, fault.ErrInvalidPortNumber, err, "bad port accepted")
}

func TestConnectToUnreachablePeer(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	// find a port with nothing behind it
	socket, err := net.Listen("tcp", "127.0.0.1:0")
	assert.Nil(t, err, "listen error")
	port := portOf(t, socket.Addr().String())
	socket.Close()

	a, err := node.New(newStore(t, "a"))
	assert.Nil(t, err, "new node error")
	defer a.Stop()

	err = a.ConnectToPeer("127.0.0.1", port)
	assert.Equal(t, fault.ErrPeerUnreachable, err, "wrong error")
	assert.Equal(t, 0, a.PeerCount(), "unreachable peer kept")
}

func TestStopClosesPeers(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	a := newListeningNode(t, "a")
	address := a.ListenAddress()

	p := dial(t, a)
	defer p.close()
	assert.Eventually(t, peerCountIs(a, 1), waitFor, pollEvery, "peer not accepted")

	a.Stop()
	assert.Equal(t, 0, a.PeerCount(), "peers remain")
	assert.Equal(t, "", a.ListenAddress(), "still listening")

	_ = p.conn.SetReadDeadline(time.Now().Add(waitFor))
	_, err := protocol.ReadMessage(p.reader)
	assert.Equal(t, io.EOF, err, "peer stream not closed")

	_, err = net.Dial("tcp", address)
	assert.NotNil(t, err, "socket still accepting")
}

func TestNonFiniteAmountRefused(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	a := newListeningNode(t, "a")
	defer a.Stop()

	p := dial(t, a)
	defer p.close()
	assert.Eventually(t, peerCountIs(a, 1), waitFor, pollEvery, "peer not accepted")

	for _, amount := range []float64{math.NaN(), math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := a.CreateTransaction("0xbad", amount)
		assert.Equal(t, fault.ErrInvalidAmount, err, "amount: %v accepted", amount)
	}
	assert.Equal(t, 0, len(a.ListTransactions()), "refused transactions stored")

	// the store is still usable and only the valid transaction is sent
	tx, err := a.CreateTransaction("0xgood", 1)
	assert.Nil(t, err, "create error")
	assert.Equal(t, []transaction.Transaction{tx}, a.ListTransactions(), "wrong list")

	msg := p.read(t)
	assert.Equal(t, tx, msg.Transaction, "refused transaction was broadcast")
}

func TestConnectAfterStop(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	a := newListeningNode(t, "a")
	defer a.Stop()

	b, err := node.New(newStore(t, "b"))
	assert.Nil(t, err, "new node error")
	b.Stop()

	err = b.ConnectToPeer("127.0.0.1", portOf(t, a.ListenAddress()))
	assert.Equal(t, fault.ErrNodeStopped, err, "connect after stop allowed")
	assert.Equal(t, 0, b.PeerCount(), "connection kept after stop")

	// the refused stream is closed so a drops it too
	assert.Eventually(t, peerCountIs(a, 0), waitFor, pollEvery, "stream left open")

	assert.Equal(t, fault.ErrNodeStopped, b.Listen("127.0.0.1", 0), "listen after stop allowed")
}

func TestPeerAddresses(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	a := newListeningNode(t, "a")
	defer a.Stop()

	b, err := node.New(newStore(t, "b"))
	assert.Nil(t, err, "new node error")
	defer b.Stop()

	assert.Equal(t, []string{}, b.PeerAddresses(), "peers before connect")

	address := a.ListenAddress()
	err = b.ConnectToPeer("127.0.0.1", portOf(t, address))
	assert.Nil(t, err, "connect error")
	assert.Equal(t, []string{address}, b.PeerAddresses(), "wrong peer address")
}
