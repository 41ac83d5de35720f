// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/azure/armbind/cmd"
	"github.com/azure/armbind/internal"
	"github.com/azure/armbind/pkg/output"
	"github.com/mattn/go-colorable"
	"github.com/spf13/pflag"
)

func main() {
	restoreColorMode := colorable.EnableColorsStdout(nil)
	defer restoreColorMode()

	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if isDebugEnabled() {
		log.Printf("armbind version: %s", internal.Version)
	}

	if err := cmd.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, output.WithErrorFormat("ERROR: %s", err))
		os.Exit(1)
	}
}

// isDebugEnabled checks to see if `--debug` was passed with a truthy value. It runs before
// cobra parses the command line, so anything logged during command construction is captured.
func isDebugEnabled() bool {
	debug := false
	flags := pflag.NewFlagSet("debug", pflag.ContinueOnError)
	flags.BoolVar(&debug, "debug", false, "")
	flags.ParseErrorsWhitelist.UnknownFlags = true

	// if flag `--debug` is not within the args, the err is ignored and debug is false.
	_ = flags.Parse(os.Args[1:])

	return debug
}
