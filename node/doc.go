// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package node - replicate a transaction list between directly
// connected peers
//
// a node accepts inbound streams, dials peers it is told about and
// asks each new outbound peer for its full list.  Locally created
// transactions are stored and then sent to every connected peer.
// Transactions received from a peer are stored but never forwarded.
//
// inbound message handling:
//
//   transaction    insert, no reply
//   sync_request   reply with sync_response holding the whole list
//   sync_response  insert each entry in order
//   anything else  logged and ignored
package node
