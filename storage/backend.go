// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"fmt"
	"path/filepath"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/txsyncd/fault"
	"github.com/bitmark-inc/txsyncd/transaction"
	"github.com/bitmark-inc/txsyncd/util"
)

// backend names for configuration
const (
	BackendFile    = "file"
	BackendLevelDB = "leveldb"
)

// Backend - durable copy of the transaction list
type Backend interface {
	// Load - nil list and nil error when nothing has been saved
	Load() ([]transaction.Transaction, error)

	// Save - replace everything with the list
	Save([]transaction.Transaction) error

	Close() error
}

// Open - select a backend by name, state is keyed by the listening port
func Open(log *logger.L, kind string, directory string, port int) (Backend, error) {
	if port < 0 || port > 65535 {
		return nil, fault.ErrInvalidPortNumber
	}

	switch kind {
	case "", BackendFile:
		name := filepath.Join(directory, fmt.Sprintf("transactions_%d.json", port))
		logState(log, name)
		return NewFileBackend(log, name), nil

	case BackendLevelDB:
		name := filepath.Join(directory, fmt.Sprintf("transactions_%d.leveldb", port))
		logState(log, name)
		return NewLevelDBBackend(log, name)

	default:
		return nil, fault.ErrInvalidStorageBackend
	}
}

// record whether earlier state is going to be loaded
func logState(log *logger.L, name string) {
	if util.EnsureFileExists(name) {
		log.Infof("existing state: %q", name)
	} else {
		log.Infof("new state: %q", name)
	}
}
