// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package account - node wallet address
//
// the address is only a label, it is not derived from any key
package account

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
)

const (
	addressPrefix = "0x"
	addressBytes  = 20
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-f]{40}$`)

// NewWalletAddress - "0x" followed by 40 lower case hex digits
func NewWalletAddress() (string, error) {
	buffer := make([]byte, addressBytes)
	if _, err := rand.Read(buffer); nil != err {
		return "", err
	}
	return addressPrefix + hex.EncodeToString(buffer), nil
}

// IsWalletAddress - check the address format
func IsWalletAddress(address string) bool {
	return addressPattern.MatchString(address)
}
