// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/txsyncd/fault"
	"github.com/bitmark-inc/txsyncd/node"
	"github.com/bitmark-inc/txsyncd/storage"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

// main program
func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "verbose", HasArg: getoptions.NO_ARGUMENT, Short: 'v'},
		{Long: "quiet", HasArg: getoptions.NO_ARGUMENT, Short: 'q'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "config-file", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'c'},
	}

	program, options, arguments, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		fmt.Printf("%s\n", version)
		return
	}

	if len(options["help"]) > 0 {
		usage(program)
		return
	}

	if len(options["config-file"]) > 1 {
		exitwithstatus.Message("%s: only one config-file option is allowed, %d were detected", program, len(options["config-file"]))
	}
	configurationFile := ""
	if 1 == len(options["config-file"]) {
		configurationFile = options["config-file"][0]
	}

	theConfiguration, err := getConfiguration(configurationFile)
	if nil != err {
		exitwithstatus.Message("%s: failed to read configuration from: %q  error: %s", program, configurationFile, err)
	}

	// a positional port overrides the configuration
	switch len(arguments) {
	case 0:
	case 1:
		port, err := strconv.Atoi(arguments[0])
		if nil != err || port < 1 || port > 65535 {
			exitwithstatus.Message("%s: invalid port: %q", program, arguments[0])
		}
		theConfiguration.Listen.Port = port
	default:
		usage(program)
		exitwithstatus.Exit(1)
	}

	// state files are keyed by port so an ephemeral port is not allowed
	if 0 == theConfiguration.Listen.Port {
		exitwithstatus.Message("%s: %s", program, fault.ErrMissingListenPort)
	}

	quiet := len(options["quiet"]) > 0
	if len(options["verbose"]) > 0 {
		theConfiguration.Logging.Console = true
	}

	// start logging
	if err = logger.Initialise(theConfiguration.Logging); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	// create a logger channel for the main program
	log := logger.New("main")
	defer log.Info("finished")
	log.Info("starting…")
	log.Infof("version: %s", version)
	log.Debugf("theConfiguration: %v", theConfiguration)

	// ------------------
	// start of real main
	// ------------------

	port := theConfiguration.Listen.Port

	// start the data storage
	log.Infof("initialise storage: %q  in: %q", theConfiguration.Storage.Backend, theConfiguration.DataDirectory)
	storageLog := logger.New("storage")
	backend, err := storage.Open(storageLog, theConfiguration.Storage.Backend, theConfiguration.DataDirectory, port)
	if nil != err {
		log.Criticalf("storage open error: %s", err)
		exitwithstatus.Message("storage open error: %s", err)
	}
	store := storage.New(storageLog, backend)
	defer store.Close()

	err = store.Load()
	if nil != err {
		log.Criticalf("storage load error: %s", err)
		exitwithstatus.Message("storage load error: %s", err)
	}
	log.Infof("loaded: %d transactions", store.Count())

	theNode, err := node.New(store)
	if nil != err {
		log.Criticalf("node initialise error: %s", err)
		exitwithstatus.Message("node initialise error: %s", err)
	}

	err = theNode.Listen(theConfiguration.Listen.Host, port)
	if nil != err {
		log.Criticalf("listen on: %s:%d  error: %s", theConfiguration.Listen.Host, port, err)
		exitwithstatus.Message("listen on: %s:%d  error: %s", theConfiguration.Listen.Host, port, err)
	}
	defer theNode.Stop()

	if !quiet {
		fmt.Printf("listening on: %s\n", theNode.ListenAddress())
		fmt.Printf("wallet address: %s\n", theNode.WalletAddress())
	}

	// peers from the configuration, failures are not fatal
	for _, p := range theConfiguration.Connect {
		err := theNode.ConnectToPeer(p.Host, p.Port)
		if nil != err {
			log.Warnf("connect to: %s:%d  error: %s", p.Host, p.Port, err)
			if !quiet {
				fmt.Printf("connect to: %s:%d  error: %s\n", p.Host, p.Port, err)
			}
		}
	}

	// console runs until exit is chosen or stdin closes
	done := make(chan struct{})
	go func() {
		runConsole(theNode, os.Stdin, os.Stdout)
		close(done)
	}()

	// turn Signals into channel messages
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-ch:
		log.Infof("received signal: %v", sig)
		if !quiet {
			fmt.Printf("\nreceived signal: %v\n", sig)
		}
	case <-done:
		log.Info("console exit")
	}

	if !quiet {
		fmt.Printf("\nshutting down…\n")
	}
	log.Info("shutting down…")
}

func usage(program string) {
	fmt.Printf("usage: %s [--help] [--version] [--verbose] [--quiet] [--config-file=FILE] [PORT]\n\n", program)
	fmt.Printf("  --help                (-h)  - display this message\n")
	fmt.Printf("  --version             (-V)  - display version string\n")
	fmt.Printf("  --verbose             (-v)  - copy log output to the console\n")
	fmt.Printf("  --quiet               (-q)  - suppress startup and shutdown messages\n")
	fmt.Printf("  --config-file=FILE    (-c)  - Lua configuration file\n\n")
	fmt.Printf("  PORT                        - listen port, overrides the configuration\n\n")
}
