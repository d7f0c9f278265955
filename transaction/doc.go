// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package transaction - the replicated record
//
// a transaction is a sender/recipient/amount triple, it is never
// signed or validated and two transactions are the same transaction
// if all three fields are equal
package transaction
