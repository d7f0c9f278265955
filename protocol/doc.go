// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package protocol - peer to peer message encoding
//
// each message is a JSON object with a "type" field and, for the
// transaction carrying kinds, a "data" field:
//
//   {"type":"transaction","data":{"sender":…,"recipient":…,"amount":…}}
//   {"type":"sync_request"}
//   {"type":"sync_response","data":[{…},{…}]}
//
// on the stream every message is framed as:
//
//   length (4 bytes, big endian) ++ JSON bytes
//
// unrecognised types are decoded as KindUnknown so that newer peers
// can add kinds without breaking older ones
package protocol
