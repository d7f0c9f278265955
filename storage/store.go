// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/txsyncd/fault"
	"github.com/bitmark-inc/txsyncd/transaction"
)

// Store - ordered set of transactions
//
// one lock covers check, append and persist so concurrent inserts
// cannot overwrite each other's saved state
type Store struct {
	sync.Mutex

	log          *logger.L
	backend      Backend
	transactions []transaction.Transaction
	index        map[transaction.Transaction]struct{}
}

// New - create an empty store over a backend
func New(log *logger.L, backend Backend) *Store {
	return &Store{
		log:          log,
		backend:      backend,
		transactions: []transaction.Transaction{},
		index:        make(map[transaction.Transaction]struct{}),
	}
}

// Load - replace the contents with the persisted list
//
// absent state leaves the store empty
func (s *Store) Load() error {
	s.Lock()
	defer s.Unlock()

	transactions, err := s.backend.Load()
	if nil != err {
		return err
	}

	s.transactions = make([]transaction.Transaction, 0, len(transactions))
	s.index = make(map[transaction.Transaction]struct{}, len(transactions))
	for _, tx := range transactions {
		if _, ok := s.index[tx]; ok {
			s.log.Warnf("duplicate in persisted state: %s", tx)
			continue
		}
		s.index[tx] = struct{}{}
		s.transactions = append(s.transactions, tx)
	}
	return nil
}

// Insert - add a transaction unless an equal one is present
//
// a non-finite amount is refused with fault.ErrInvalidAmount, a save
// error leaves the transaction in memory and returns
// fault.ErrPersistenceFailure with inserted still true
func (s *Store) Insert(tx transaction.Transaction) (bool, error) {
	if err := tx.Validate(); nil != err {
		s.log.Warnf("refused: %s  error: %s", tx, err)
		return false, err
	}

	s.Lock()
	defer s.Unlock()

	if _, ok := s.index[tx]; ok {
		s.log.Debugf("duplicate: %s", tx)
		return false, nil
	}

	s.index[tx] = struct{}{}
	s.transactions = append(s.transactions, tx)

	if err := s.backend.Save(s.transactions); nil != err {
		s.log.Errorf("save %d transactions error: %s", len(s.transactions), err)
		return true, fault.ErrPersistenceFailure
	}

	s.log.Infof("added: %s", tx)
	return true, nil
}

// All - copy of the list in insertion order
func (s *Store) All() []transaction.Transaction {
	s.Lock()
	defer s.Unlock()

	result := make([]transaction.Transaction, len(s.transactions))
	copy(result, s.transactions)
	return result
}

// Count - number of transactions
func (s *Store) Count() int {
	s.Lock()
	defer s.Unlock()
	return len(s.transactions)
}

// Close - release the backend
func (s *Store) Close() error {
	s.Lock()
	defer s.Unlock()
	return s.backend.Close()
}
