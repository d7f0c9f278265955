// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"bytes"
	"encoding/json"

	"github.com/bitmark-inc/txsyncd/fault"
	"github.com/bitmark-inc/txsyncd/transaction"
)

// Kind - message variant
type Kind int

// the known message kinds
const (
	KindUnknown Kind = iota
	KindTransaction
	KindSyncRequest
	KindSyncResponse
)

// wire type names
const (
	TypeTransaction  = "transaction"
	TypeSyncRequest  = "sync_request"
	TypeSyncResponse = "sync_response"
)

const (
	typeField = "type"
	dataField = "data"
)

// Message - one decoded protocol message
//
// only the fields relevant to Kind are set
type Message struct {
	Kind         Kind
	Type         string
	Transaction  transaction.Transaction    // KindTransaction
	Transactions []transaction.Transaction  // KindSyncResponse
	Fields       map[string]json.RawMessage // KindUnknown: all top level fields
}

// NewTransaction - announce a single transaction
func NewTransaction(tx transaction.Transaction) Message {
	return Message{
		Kind:        KindTransaction,
		Type:        TypeTransaction,
		Transaction: tx,
	}
}

// NewSyncRequest - ask for the full transaction list
func NewSyncRequest() Message {
	return Message{
		Kind: KindSyncRequest,
		Type: TypeSyncRequest,
	}
}

// NewSyncResponse - reply with the full transaction list
func NewSyncResponse(transactions []transaction.Transaction) Message {
	if nil == transactions {
		transactions = []transaction.Transaction{}
	}
	return Message{
		Kind:         KindSyncResponse,
		Type:         TypeSyncResponse,
		Transactions: transactions,
	}
}

// String - kind name for logging
func (k Kind) String() string {
	switch k {
	case KindTransaction:
		return TypeTransaction
	case KindSyncRequest:
		return TypeSyncRequest
	case KindSyncResponse:
		return TypeSyncResponse
	default:
		return "unknown"
	}
}

type wireMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Marshal - encode a message as JSON
func Marshal(msg Message) ([]byte, error) {
	switch msg.Kind {
	case KindTransaction:
		return json.Marshal(wireMessage{Type: TypeTransaction, Data: msg.Transaction})

	case KindSyncRequest:
		return json.Marshal(wireMessage{Type: TypeSyncRequest})

	case KindSyncResponse:
		list := msg.Transactions
		if nil == list {
			list = []transaction.Transaction{}
		}
		return json.Marshal(wireMessage{Type: TypeSyncResponse, Data: list})

	default:
		fields := make(map[string]json.RawMessage, len(msg.Fields)+1)
		for k, v := range msg.Fields {
			fields[k] = v
		}
		t, err := json.Marshal(msg.Type)
		if nil != err {
			return nil, err
		}
		fields[typeField] = t
		return json.Marshal(fields)
	}
}

// Unmarshal - decode JSON into a message
//
// returns fault.ErrMalformedMessage for anything that is not an
// object with a string type, or a known type with a bad data field
func Unmarshal(buffer []byte) (Message, error) {
	fields, err := decodeObject(buffer)
	if nil != err {
		return Message{}, err
	}

	rawType, ok := fields[typeField]
	if !ok {
		return Message{}, fault.ErrMalformedMessage
	}
	messageType, err := decodeString(rawType)
	if nil != err {
		return Message{}, err
	}

	switch messageType {
	case TypeTransaction:
		data, ok := fields[dataField]
		if !ok {
			return Message{}, fault.ErrMalformedMessage
		}
		tx, err := decodeTransaction(data)
		if nil != err {
			return Message{}, err
		}
		return NewTransaction(tx), nil

	case TypeSyncRequest:
		return NewSyncRequest(), nil

	case TypeSyncResponse:
		data, ok := fields[dataField]
		if !ok || isNull(data) {
			return Message{}, fault.ErrMalformedMessage
		}
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); nil != err {
			return Message{}, fault.ErrMalformedMessage
		}
		list := make([]transaction.Transaction, 0, len(items))
		for _, item := range items {
			tx, err := decodeTransaction(item)
			if nil != err {
				return Message{}, err
			}
			list = append(list, tx)
		}
		return NewSyncResponse(list), nil

	default:
		return Message{
			Kind:   KindUnknown,
			Type:   messageType,
			Fields: fields,
		}, nil
	}
}

// decode a transaction record, all three fields are required
func decodeTransaction(buffer []byte) (transaction.Transaction, error) {
	tx, err := transaction.Decode(buffer)
	if nil != err {
		return transaction.Transaction{}, fault.ErrMalformedMessage
	}
	return tx, nil
}

func decodeObject(buffer []byte) (map[string]json.RawMessage, error) {
	if isNull(buffer) {
		return nil, fault.ErrMalformedMessage
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(buffer, &fields); nil != err {
		return nil, fault.ErrMalformedMessage
	}
	return fields, nil
}

func decodeString(buffer []byte) (string, error) {
	if isNull(buffer) {
		return "", fault.ErrMalformedMessage
	}
	var s string
	if err := json.Unmarshal(buffer, &s); nil != err {
		return "", fault.ErrMalformedMessage
	}
	return s, nil
}

// missing fields and JSON null both count as absent
func isNull(buffer []byte) bool {
	trimmed := bytes.TrimSpace(buffer)
	return 0 == len(trimmed) || bytes.Equal(trimmed, []byte("null"))
}
