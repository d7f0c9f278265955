// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"net"
	"strconv"
	"strings"

	"github.com/bitmark-inc/txsyncd/fault"
)

// HostAndPort - join a host and port into a dialable address
//
// IP addresses are made canonical, names are passed through,
// an empty host means all interfaces
//
// examples:
//   IPv4:  127.0.0.1:1234
//   IPv6:  [::1]:1234
//   name:  localhost:1234
func HostAndPort(host string, port int) (string, error) {
	if port < 0 || port > 65535 {
		return "", fault.ErrInvalidPortNumber
	}

	host = strings.Trim(host, " ")
	if IP := net.ParseIP(strings.Trim(host, "[]")); nil != IP {
		host = IP.String()
	}

	return net.JoinHostPort(host, strconv.Itoa(port)), nil
}
