// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Dan Bogdan
//
// otgwctl - OpenTherm Gateway controller
//
// A CLI tool for monitoring an OpenTherm Gateway's bus traffic and for
// taking over boiler control from the thermostat.

package main

import (
	"os"

	"github.com/dlbogdan/otgwctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
