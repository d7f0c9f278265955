// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type ExistsError GenericError
type InvalidError GenericError
type NotFoundError GenericError
type ProcessError GenericError
type RecordError GenericError

// common errors - keep in alphabetic order
var (
	ErrAlreadyListening      = ExistsError("already listening")
	ErrBindFailure           = ProcessError("bind failure")
	ErrCorruptPersistedState = RecordError("corrupt persisted state")
	ErrInvalidAmount         = InvalidError("invalid amount")
	ErrInvalidConfiguration  = InvalidError("invalid configuration")
	ErrInvalidPortNumber     = InvalidError("invalid port number")
	ErrInvalidStorageBackend = InvalidError("invalid storage backend")
	ErrInvalidStructPointer  = InvalidError("invalid struct pointer")
	ErrInvalidTransaction    = InvalidError("invalid transaction")
	ErrMalformedMessage      = InvalidError("malformed message")
	ErrMissingListenPort     = NotFoundError("missing listen port")
	ErrNodeStopped           = ProcessError("node stopped")
	ErrPeerUnreachable       = ProcessError("peer unreachable")
	ErrPersistenceFailure    = ProcessError("persistence failure")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ExistsError) Error() string   { return string(e) }
func (e InvalidError) Error() string  { return string(e) }
func (e NotFoundError) Error() string { return string(e) }
func (e ProcessError) Error() string  { return string(e) }
func (e RecordError) Error() string   { return string(e) }

// determine the class of an error
func IsErrExists(e error) bool   { _, ok := e.(ExistsError); return ok }
func IsErrInvalid(e error) bool  { _, ok := e.(InvalidError); return ok }
func IsErrNotFound(e error) bool { _, ok := e.(NotFoundError); return ok }
func IsErrProcess(e error) bool  { _, ok := e.(ProcessError); return ok }
func IsErrRecord(e error) bool   { _, ok := e.(RecordError); return ok }
