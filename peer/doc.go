// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package peer - connections to other nodes
//
// * Connection: one TCP stream carrying framed protocol messages,
//   with a blocking receive loop that runs for the life of the stream
//
// * Set: the connections currently held by a node, used for
//   best-effort broadcast
package peer
