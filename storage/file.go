// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/json"
	"io/ioutil"
	"os"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/txsyncd/fault"
	"github.com/bitmark-inc/txsyncd/transaction"
)

type fileBackend struct {
	log      *logger.L
	fileName string
}

// NewFileBackend - whole list as a single JSON file
func NewFileBackend(log *logger.L, fileName string) Backend {
	return &fileBackend{
		log:      log,
		fileName: fileName,
	}
}

func (f *fileBackend) Load() ([]transaction.Transaction, error) {
	buffer, err := ioutil.ReadFile(f.fileName)
	if os.IsNotExist(err) {
		f.log.Infof("no transaction file: %q", f.fileName)
		return nil, nil
	}
	if nil != err {
		f.log.Errorf("read: %q  error: %s", f.fileName, err)
		return nil, err
	}

	var records []json.RawMessage
	if err := json.Unmarshal(buffer, &records); nil != err {
		f.log.Criticalf("decode: %q  error: %s", f.fileName, err)
		return nil, fault.ErrCorruptPersistedState
	}

	transactions := make([]transaction.Transaction, 0, len(records))
	for i, record := range records {
		tx, err := transaction.Decode(record)
		if nil != err {
			f.log.Criticalf("decode: %q  record: %d  error: %s", f.fileName, i, err)
			return nil, fault.ErrCorruptPersistedState
		}
		transactions = append(transactions, tx)
	}

	f.log.Infof("loaded %d transactions from: %q", len(transactions), f.fileName)
	return transactions, nil
}

// whole file overwrite, not an append log
func (f *fileBackend) Save(transactions []transaction.Transaction) error {
	if nil == transactions {
		transactions = []transaction.Transaction{}
	}
	buffer, err := json.Marshal(transactions)
	if nil != err {
		return err
	}
	return ioutil.WriteFile(f.fileName, buffer, 0600)
}

func (f *fileBackend) Close() error {
	return nil
}
