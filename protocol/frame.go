// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"encoding/binary"
	"io"

	"github.com/bitmark-inc/txsyncd/fault"
)

const (
	headerSize = 4

	// MaximumFrameSize - largest accepted JSON payload
	MaximumFrameSize = 16 * 1024 * 1024
)

// WriteMessage - encode and write one length prefixed frame
//
// the frame is issued as a single Write so a writer shared between
// goroutines only needs to serialise calls to this function
func WriteMessage(w io.Writer, msg Message) error {
	buffer, err := Marshal(msg)
	if nil != err {
		return err
	}
	if len(buffer) > MaximumFrameSize {
		return fault.ErrMalformedMessage
	}

	frame := make([]byte, headerSize+len(buffer))
	binary.BigEndian.PutUint32(frame[:headerSize], uint32(len(buffer)))
	copy(frame[headerSize:], buffer)

	_, err = w.Write(frame)
	return err
}

// ReadMessage - read and decode one length prefixed frame
//
// io.EOF is returned only for a clean end of stream between frames,
// a stream that ends inside a frame gives io.ErrUnexpectedEOF
func ReadMessage(r io.Reader) (Message, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); nil != err {
		return Message{}, err
	}

	size := binary.BigEndian.Uint32(header[:])
	if 0 == size || size > MaximumFrameSize {
		return Message{}, fault.ErrMalformedMessage
	}

	buffer := make([]byte, size)
	if _, err := io.ReadFull(r, buffer); nil != err {
		if io.EOF == err {
			err = io.ErrUnexpectedEOF
		}
		return Message{}, err
	}

	return Unmarshal(buffer)
}
