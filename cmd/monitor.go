// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Dan Bogdan

package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/dlbogdan/otgwctl/pkg/opentherm"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Display gateway traffic in human-readable form",
	Long: `Continuously decode and display OpenTherm Gateway lines as they arrive.

Each line is classified (status frame, command reply, banner, error notice)
and status frames are decoded to their engineering values, e.g.

  12:01:05.201 BOILR id= 25 Boiler Water Temperature     64.50

Supports both serial and WebSocket connections.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	// Open connection (serial or WebSocket)
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("otgwctl - Gateway Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	asm := opentherm.NewLineAssembler()
	buf := make([]byte, 256)

	for {
		n, err := conn.Read(buf)
		if err != nil {
			// A WebSocket read error means the connection is
			// permanently closed - exit gracefully
			if err == ErrConnectionClosed {
				log.Printf("Connection closed")
				return nil
			}
			log.Printf("Read error: %v", err)
			continue
		}
		if n == 0 {
			// Serial read timeout, nothing arrived.
			continue
		}

		for i := 0; i < n; i++ {
			line, ok := asm.Feed(buf[i])
			if !ok {
				continue
			}
			stamp := time.Now().Format("15:04:05.000")
			fmt.Printf("%s %s\n", stamp, opentherm.FormatLine(opentherm.ClassifyLine(line)))
		}
	}
}
