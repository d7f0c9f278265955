// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"
	"encoding/json"

	"github.com/syndtr/goleveldb/leveldb"
	ldb_errors "github.com/syndtr/goleveldb/leveldb/errors"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"
	ldb_util "github.com/syndtr/goleveldb/leveldb/util"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/txsyncd/fault"
	"github.com/bitmark-inc/txsyncd/transaction"
)

const (
	transactionPrefix = 'T'
	currentDBVersion  = 0x100
)

// for database version
var versionKey = []byte{0x00, 'V', 'E', 'R', 'S', 'I', 'O', 'N'}

type levelDBBackend struct {
	log      *logger.L
	database *leveldb.DB
}

// NewLevelDBBackend - one record per transaction keyed by position
func NewLevelDBBackend(log *logger.L, name string) (Backend, error) {
	opt := &ldb_opt.Options{
		ErrorIfExist:   false,
		ErrorIfMissing: false,
	}

	db, err := leveldb.OpenFile(name, opt)
	if ldb_errors.IsCorrupted(err) {
		log.Criticalf("open: %q  error: %s", name, err)
		return nil, fault.ErrCorruptPersistedState
	}
	if nil != err {
		log.Errorf("open: %q  error: %s", name, err)
		return nil, err
	}

	versionValue, err := db.Get(versionKey, nil)
	if leveldb.ErrNotFound == err {
		err = putVersion(db, currentDBVersion)
		if nil != err {
			db.Close()
			return nil, err
		}
	} else if nil != err {
		db.Close()
		return nil, err
	} else if 4 != len(versionValue) || binary.BigEndian.Uint32(versionValue) > currentDBVersion {
		log.Criticalf("incompatible database version: %x  current: %x", versionValue, currentDBVersion)
		db.Close()
		return nil, fault.ErrCorruptPersistedState
	}

	return &levelDBBackend{
		log:      log,
		database: db,
	}, nil
}

func putVersion(db *leveldb.DB, version int) error {
	currentVersion := make([]byte, 4)
	binary.BigEndian.PutUint32(currentVersion, uint32(version))

	return db.Put(versionKey, currentVersion, nil)
}

// prepend the prefix onto the position
func transactionKey(position int) []byte {
	key := make([]byte, 9)
	key[0] = transactionPrefix
	binary.BigEndian.PutUint64(key[1:], uint64(position))
	return key
}

func (l *levelDBBackend) Load() ([]transaction.Transaction, error) {
	iter := l.database.NewIterator(ldb_util.BytesPrefix([]byte{transactionPrefix}), nil)
	defer iter.Release()

	transactions := []transaction.Transaction{}
	for iter.Next() {
		tx, err := transaction.Decode(iter.Value())
		if nil != err {
			l.log.Criticalf("decode key: %x  error: %s", iter.Key(), err)
			return nil, fault.ErrCorruptPersistedState
		}
		transactions = append(transactions, tx)
	}
	if err := iter.Error(); nil != err {
		return nil, err
	}

	l.log.Infof("loaded %d transactions", len(transactions))
	return transactions, nil
}

// rewrite the whole table in one batch
func (l *levelDBBackend) Save(transactions []transaction.Transaction) error {
	batch := new(leveldb.Batch)

	iter := l.database.NewIterator(ldb_util.BytesPrefix([]byte{transactionPrefix}), nil)
	for iter.Next() {
		key := make([]byte, len(iter.Key()))
		copy(key, iter.Key())
		batch.Delete(key)
	}
	iter.Release()
	if err := iter.Error(); nil != err {
		return err
	}

	for i, tx := range transactions {
		value, err := json.Marshal(tx)
		if nil != err {
			return err
		}
		batch.Put(transactionKey(i), value)
	}

	return l.database.Write(batch, &ldb_opt.WriteOptions{Sync: true})
}

func (l *levelDBBackend) Close() error {
	return l.database.Close()
}
