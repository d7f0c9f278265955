// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage_test

import (
	"errors"
	"os"
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/txsyncd/transaction"
)

const (
	testingDirName = "testing"
	logCategory    = "storage"
	testPort       = 5001
)

var (
	tx1 = transaction.New("0x01", "0x0a", 1)
	tx2 = transaction.New("0x02", "0x0b", 2.5)
	tx3 = transaction.New("0x03", "0x0c", 30)
)

func setupTestLogger() {
	removeFiles()
	_ = os.Mkdir(testingDirName, 0700)

	logging := logger.Configuration{
		Directory: testingDirName,
		File:      "testing.log",
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}

	// start logging
	_ = logger.Initialise(logging)
}

func teardownTestLogger() {
	logger.Finalise()
	removeFiles()
}

func removeFiles() {
	_ = os.RemoveAll(testingDirName)
}

// backend that records saves and can be told to fail
type memoryBackend struct {
	sync.Mutex
	saved   []transaction.Transaction
	saves   int
	failing bool
}

var errDiskFull = errors.New("disk full")

func (m *memoryBackend) Load() ([]transaction.Transaction, error) {
	m.Lock()
	defer m.Unlock()
	return m.saved, nil
}

func (m *memoryBackend) Save(transactions []transaction.Transaction) error {
	m.Lock()
	defer m.Unlock()
	if m.failing {
		return errDiskFull
	}
	m.saves += 1
	m.saved = make([]transaction.Transaction, len(transactions))
	copy(m.saved, transactions)
	return nil
}

func (m *memoryBackend) Close() error {
	return nil
}
