// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Dan Bogdan

package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags (OTGW firmware behind ser2net or a
	// home-automation bridge)
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "otgwctl",
	Short: "OpenTherm Gateway controller",
	Long: `otgwctl - control and monitor a boiler through an OpenTherm Gateway (OTGW).

The gateway sits between a thermostat and a boiler and mirrors the OpenTherm
bus traffic on its serial port. otgwctl decodes that traffic, can take over
the boiler control setpoint from the thermostat, and keeps active overrides
alive for as long as the session runs.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 9600]
  WebSocket: --url ws://host/path [--username user]

For WebSocket authentication, the password is read from the OTGW_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell
history.

Settings may also come from otgwctl.yaml in the working directory or
~/.config/otgwctl/, or from OTGW_* environment variables.`,
	Version: "1.0.0",
}

func init() {
	cobra.OnInitialize(loadConfig)

	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 9600, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	_ = viper.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	_ = viper.BindPFlag("baud", rootCmd.PersistentFlags().Lookup("baud"))
	_ = viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))
	_ = viper.BindPFlag("username", rootCmd.PersistentFlags().Lookup("username"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// loadConfig reads the optional config file and environment overrides.
// Timing knobs without flags (keepalive seconds, default setpoint) are only
// reachable through the config file or environment.
func loadConfig() {
	viper.SetConfigName("otgwctl")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/otgwctl")
	viper.SetEnvPrefix("OTGW")
	viper.AutomaticEnv()

	viper.SetDefault("keepalive_seconds", 50)
	viper.SetDefault("default_setpoint", 10.0)

	// Missing config file is fine; flags and defaults cover everything.
	_ = viper.ReadInConfig()

	portName = viper.GetString("port")
	baudRate = viper.GetInt("baud")
	wsURL = viper.GetString("url")
	wsUsername = viper.GetString("username")
	logLevel = viper.GetString("log_level")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
