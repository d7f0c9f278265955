// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/bitmark-inc/txsyncd/node"
)

const menu = `
1. connect to a peer
2. create a transaction
3. list transactions
4. show wallet address
5. exit
`

// interactive operator menu
type console struct {
	node    *node.Node
	scanner *bufio.Scanner
	out     io.Writer
}

// runConsole - serve the menu until exit is chosen or input ends
func runConsole(n *node.Node, in io.Reader, out io.Writer) {
	c := &console{
		node:    n,
		scanner: bufio.NewScanner(in),
		out:     out,
	}

	for {
		fmt.Fprint(c.out, menu)
		choice, ok := c.prompt("choice")
		if !ok {
			return
		}

		switch choice {
		case "1":
			c.connect()
		case "2":
			c.create()
		case "3":
			c.list()
		case "4":
			fmt.Fprintf(c.out, "wallet address: %s\n", c.node.WalletAddress())
		case "5":
			return
		case "":
		default:
			fmt.Fprintf(c.out, "invalid choice: %q\n", choice)
		}
	}
}

// false at end of input
func (c *console) prompt(label string) (string, bool) {
	fmt.Fprintf(c.out, "%s: ", label)
	if !c.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.scanner.Text()), true
}

func (c *console) connect() {
	host, ok := c.prompt("host")
	if !ok {
		return
	}
	p, ok := c.prompt("port")
	if !ok {
		return
	}
	port, err := strconv.Atoi(p)
	if nil != err {
		fmt.Fprintf(c.out, "invalid port: %q\n", p)
		return
	}

	if err := c.node.ConnectToPeer(host, port); nil != err {
		fmt.Fprintf(c.out, "connect to: %s:%d  error: %s\n", host, port, err)
		return
	}
	fmt.Fprintf(c.out, "connected to: %s:%d\n", host, port)
	fmt.Fprintf(c.out, "peers: %s\n", strings.Join(c.node.PeerAddresses(), ", "))
}

func (c *console) create() {
	recipient, ok := c.prompt("recipient")
	if !ok {
		return
	}
	if "" == recipient {
		fmt.Fprintf(c.out, "missing recipient\n")
		return
	}
	a, ok := c.prompt("amount")
	if !ok {
		return
	}
	amount, err := strconv.ParseFloat(a, 64)
	if nil != err || math.IsNaN(amount) || math.IsInf(amount, 0) {
		fmt.Fprintf(c.out, "invalid amount: %q\n", a)
		return
	}

	tx, err := c.node.CreateTransaction(recipient, amount)
	if nil != err {
		fmt.Fprintf(c.out, "create transaction error: %s\n", err)
		return
	}
	fmt.Fprintf(c.out, "created: %s\n", tx)
}

func (c *console) list() {
	transactions := c.node.ListTransactions()
	if 0 == len(transactions) {
		fmt.Fprintf(c.out, "no transactions\n")
		return
	}
	for i, tx := range transactions {
		fmt.Fprintf(c.out, "%3d: %s\n", i+1, tx)
	}
}
