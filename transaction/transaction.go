// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transaction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/bitmark-inc/txsyncd/fault"
)

// Transaction - immutable payment record
//
// the struct is comparable, == is the deduplication rule
type Transaction struct {
	Sender    string  `json:"sender"`
	Recipient string  `json:"recipient"`
	Amount    float64 `json:"amount"`
}

// New - create a transaction
func New(sender string, recipient string, amount float64) Transaction {
	return Transaction{
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
	}
}

// Validate - the amount must be finite
//
// NaN never compares equal so it would defeat deduplication, and
// neither NaN nor the infinities can be encoded as JSON
func (tx Transaction) Validate() error {
	if math.IsNaN(tx.Amount) || math.IsInf(tx.Amount, 0) {
		return fault.ErrInvalidAmount
	}
	return nil
}

// Decode - strict decoding of one JSON record
//
// sender and recipient must be strings and amount a number, a
// missing or null field gives fault.ErrInvalidTransaction
func Decode(buffer []byte) (Transaction, error) {
	if isNull(buffer) {
		return Transaction{}, fault.ErrInvalidTransaction
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(buffer, &fields); nil != err {
		return Transaction{}, fault.ErrInvalidTransaction
	}

	var sender, recipient string
	var amount float64
	for _, f := range []struct {
		name  string
		value interface{}
	}{
		{"sender", &sender},
		{"recipient", &recipient},
		{"amount", &amount},
	} {
		raw := fields[f.name]
		if isNull(raw) {
			return Transaction{}, fault.ErrInvalidTransaction
		}
		if err := json.Unmarshal(raw, f.value); nil != err {
			return Transaction{}, fault.ErrInvalidTransaction
		}
	}

	return New(sender, recipient, amount), nil
}

// String - one line summary for console and log output
func (tx Transaction) String() string {
	return fmt.Sprintf("%s -> %s: %s", tx.Sender, tx.Recipient, strconv.FormatFloat(tx.Amount, 'f', -1, 64))
}

// missing fields and JSON null both count as absent
func isNull(buffer []byte) bool {
	trimmed := bytes.TrimSpace(buffer)
	return 0 == len(trimmed) || bytes.Equal(trimmed, []byte("null"))
}
