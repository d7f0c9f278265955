// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage - the node's transaction store
//
// the in-memory list is the authority, every successful insert
// rewrites the whole list through a backend
//
// File backend:
//
//   transactions_<port>.json   - JSON array of {sender, recipient, amount}
//
// LevelDB backend:
//
//   transactions_<port>.leveldb
//
//   0x00 ++ "VERSION"          - database version
//                                data: big endian uint32
//   T ++ position              - transaction at position
//                                key:  big endian uint64
//                                data: JSON {sender, recipient, amount}
package storage
