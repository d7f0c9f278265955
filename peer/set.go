// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/txsyncd/protocol"
)

// Set - the live links of one node
//
// links are not deduplicated by address, connecting twice to the
// same node gives two entries
type Set struct {
	sync.RWMutex

	log   *logger.L
	links []Link
}

// NewSet - create an empty set
func NewSet(log *logger.L) *Set {
	return &Set{
		log:   log,
		links: []Link{},
	}
}

// Add - register a link for broadcasts
func (s *Set) Add(link Link) {
	s.Lock()
	defer s.Unlock()

	s.links = append(s.links, link)
	s.log.Infof("added: %s  peers: %d", link, len(s.links))
}

// Remove - forget a link, false if it was not present
func (s *Set) Remove(link Link) bool {
	s.Lock()
	defer s.Unlock()

	for i, l := range s.links {
		if l == link {
			last := len(s.links) - 1
			copy(s.links[i:], s.links[i+1:])
			s.links[last] = nil
			s.links = s.links[:last]
			s.log.Infof("removed: %s  peers: %d", link, len(s.links))
			return true
		}
	}
	return false
}

// Broadcast - send to every link, dropping those that fail
//
// sends happen outside the lock so a slow peer does not block Add or
// Remove, returns the number of successful sends
func (s *Set) Broadcast(msg protocol.Message) int {
	s.RLock()
	links := make([]Link, len(s.links))
	copy(links, s.links)
	s.RUnlock()

	sent := 0
	for _, link := range links {
		if err := link.Send(msg); nil != err {
			s.log.Warnf("broadcast: %s to: %s  error: %s", msg.Kind, link, err)
			if s.Remove(link) {
				link.Close()
			}
			continue
		}
		sent += 1
	}

	s.log.Debugf("broadcast: %s  sent: %d of: %d", msg.Kind, sent, len(links))
	return sent
}

// Count - number of links
func (s *Set) Count() int {
	s.RLock()
	defer s.RUnlock()
	return len(s.links)
}

// Addresses - remote address of each link
func (s *Set) Addresses() []string {
	s.RLock()
	defer s.RUnlock()

	addresses := make([]string, len(s.links))
	for i, l := range s.links {
		addresses[i] = l.String()
	}
	return addresses
}

// Close - remove and close every link
func (s *Set) Close() {
	s.Lock()
	links := s.links
	s.links = []Link{}
	s.Unlock()

	for _, link := range links {
		link.Close()
	}
	s.log.Infof("closed: %d peers", len(links))
}
