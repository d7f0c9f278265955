// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node

import (
	"net"
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/txsyncd/account"
	"github.com/bitmark-inc/txsyncd/background"
	"github.com/bitmark-inc/txsyncd/fault"
	"github.com/bitmark-inc/txsyncd/peer"
	"github.com/bitmark-inc/txsyncd/protocol"
	"github.com/bitmark-inc/txsyncd/storage"
	"github.com/bitmark-inc/txsyncd/transaction"
	"github.com/bitmark-inc/txsyncd/util"
)

// Node - one participant in the network
type Node struct {
	sync.Mutex // protects socket, background and stopped

	log     *logger.L
	peerLog *logger.L
	store   *storage.Store
	peers   *peer.Set
	wallet  string

	socket     net.Listener
	background *background.T
	stopped    bool

	// running receive loops
	receivers sync.WaitGroup
}

// New - create a node over a loaded store with a fresh wallet address
func New(store *storage.Store) (*Node, error) {
	wallet, err := account.NewWalletAddress()
	if nil != err {
		return nil, err
	}

	peerLog := logger.New("peer")
	n := &Node{
		log:     logger.New("node"),
		peerLog: peerLog,
		store:   store,
		peers:   peer.NewSet(peerLog),
		wallet:  wallet,
	}
	n.log.Infof("wallet address: %s", wallet)
	return n, nil
}

// Listen - bind and start accepting peers
func (n *Node) Listen(host string, port int) error {
	n.Lock()
	defer n.Unlock()

	if n.stopped {
		return fault.ErrNodeStopped
	}
	if nil != n.socket {
		return fault.ErrAlreadyListening
	}

	address, err := util.HostAndPort(host, port)
	if nil != err {
		return err
	}

	socket, err := net.Listen("tcp", address)
	if nil != err {
		n.log.Errorf("listen on: %s  error: %s", address, err)
		return fault.ErrBindFailure
	}
	n.socket = socket

	processes := background.Processes{
		&listener{
			log:      logger.New("listener"),
			socket:   socket,
			accepted: n.accepted,
		},
	}
	n.background = background.Start(processes, nil)

	return nil
}

// ListenAddress - the bound address, empty if not listening
func (n *Node) ListenAddress() string {
	n.Lock()
	defer n.Unlock()

	if nil == n.socket {
		return ""
	}
	return n.socket.Addr().String()
}

// ConnectToPeer - dial a peer and ask for its transactions
func (n *Node) ConnectToPeer(host string, port int) error {
	address, err := util.HostAndPort(host, port)
	if nil != err {
		return err
	}

	conn, err := net.Dial("tcp", address)
	if nil != err {
		n.log.Warnf("connect to: %s  error: %s", address, err)
		return fault.ErrPeerUnreachable
	}

	c := peer.NewConnection(n.peerLog, conn, address, true)
	if !n.register(c) {
		return fault.ErrNodeStopped
	}

	if err := c.Send(protocol.NewSyncRequest()); nil != err {
		n.peers.Remove(c)
		c.Close()
		return err
	}
	return nil
}

// CreateTransaction - store a transaction from this wallet and send it
// to every peer
//
// an existing equal transaction is still sent
func (n *Node) CreateTransaction(recipient string, amount float64) (transaction.Transaction, error) {
	tx := transaction.New(n.wallet, recipient, amount)

	inserted, err := n.store.Insert(tx)
	if nil != err {
		return tx, err
	}
	if !inserted {
		n.log.Infof("already stored: %s", tx)
	}

	sent := n.peers.Broadcast(protocol.NewTransaction(tx))
	n.log.Infof("created: %s  sent to: %d peers", tx, sent)

	return tx, nil
}

// WalletAddress - this node's sender label
func (n *Node) WalletAddress() string {
	return n.wallet
}

// ListTransactions - stored transactions in insertion order
func (n *Node) ListTransactions() []transaction.Transaction {
	return n.store.All()
}

// PeerCount - number of live connections
func (n *Node) PeerCount() int {
	return n.peers.Count()
}

// PeerAddresses - remote address of each live connection
func (n *Node) PeerAddresses() []string {
	return n.peers.Addresses()
}

// Stop - stop accepting, close every peer and wait for their
// receive loops to finish
func (n *Node) Stop() {
	n.Lock()
	n.stopped = true
	bg := n.background
	n.background = nil
	n.socket = nil
	n.Unlock()

	bg.Stop()
	n.peers.Close()
	n.receivers.Wait()

	n.log.Info("stopped")
}

// called by the accept loop
func (n *Node) accepted(conn net.Conn) {
	c := peer.NewConnection(n.peerLog, conn, conn.RemoteAddr().String(), false)
	n.register(c)
}

// add to the peer set and start the receive loop, false after Stop
//
// the lock orders this against Stop so no receive loop starts once
// Stop is waiting for them
func (n *Node) register(c *peer.Connection) bool {
	n.Lock()
	defer n.Unlock()

	if n.stopped {
		n.log.Warnf("stopped, refusing: %s", c)
		c.Close()
		return false
	}

	n.peers.Add(c)
	n.receivers.Add(1)
	go func() {
		defer n.receivers.Done()
		c.ReceiveLoop(n.process, n.closed)
	}()
	return true
}

func (n *Node) closed(c *peer.Connection) {
	if n.peers.Remove(c) {
		n.log.Infof("dropped: %s  outbound: %t", c, c.IsOutbound())
	}
}

// process one inbound message
func (n *Node) process(c *peer.Connection, msg protocol.Message) {
	log := n.log

	switch msg.Kind {

	case protocol.KindTransaction:
		n.insert(msg.Transaction)

	case protocol.KindSyncRequest:
		all := n.store.All()
		if err := c.Send(protocol.NewSyncResponse(all)); nil != err {
			log.Warnf("sync response to: %s  error: %s", c, err)
			n.peers.Remove(c)
			c.Close()
			return
		}
		log.Infof("sync response to: %s  transactions: %d", c, len(all))

	case protocol.KindSyncResponse:
		added := 0
		for _, tx := range msg.Transactions {
			if n.insert(tx) {
				added += 1
			}
		}
		log.Infof("sync response from: %s  received: %d  added: %d", c, len(msg.Transactions), added)

	default:
		log.Warnf("ignored message type: %q from: %s", msg.Type, c)
	}
}

// store a received transaction, true if it was new
//
// a persistence failure is only logged, the entry stays in memory
func (n *Node) insert(tx transaction.Transaction) bool {
	inserted, err := n.store.Insert(tx)
	if nil != err {
		n.log.Errorf("insert: %s  error: %s", tx, err)
	}
	return inserted
}
