// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"github.com/bitmark-inc/txsyncd/protocol"
)

//go:generate mockgen -destination=mocks/link.go -package=mocks github.com/bitmark-inc/txsyncd/peer Link

// Link - the sending side of a peer as seen by a Set
type Link interface {
	Send(protocol.Message) error
	Close() error
	String() string
}
