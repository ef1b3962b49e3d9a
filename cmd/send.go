// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Dan Bogdan

package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dlbogdan/otgwctl/pkg/logger"
	"github.com/dlbogdan/otgwctl/pkg/opentherm"
)

var sendCmd = &cobra.Command{
	Use:   "send <command> [args]",
	Short: "Send a single command to the gateway",
	Long: `Send one command to the gateway and report the outcome.

Commands:
  takeover              Take boiler control from the thermostat
  relinquish            Hand control back to the thermostat
  cs <temp>             Control setpoint (requires takeover)
  c2 <temp>             Control setpoint, second CH circuit
  ch <0|1>              Central heating enable (requires takeover)
  h2 <0|1>              Central heating 2 enable
  sw <temp>             Domestic hot water setpoint
  sh <temp>             Max central heating water setpoint
  mm <percent>          Max relative modulation
  vs <percent>          Ventilation setpoint
  hw <0|1|P|T>          Hot water mode override
  tt <temp>             Temporary room setpoint override (0-30)
  tc <temp>             Constant room setpoint override (0-30)
  rs <counter>          Reset a boiler counter (HBS HBH HPS HPH WBS WBH WPS WPH)
  sc <HH:MM> <day>      Set the thermostat clock (day 1=Monday .. 7)
  pm <data-id>          Request a priority read of a data id

Examples:
  otgwctl -p /dev/ttyUSB0 send takeover
  otgwctl -p /dev/ttyUSB0 send cs 45.5
  otgwctl -p /dev/ttyUSB0 send sc 21:35 2`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
}

// dispatchTable maps CLI command names to their tracking code and dispatch
// call. Argument parsing failures surface before anything is sent.
func dispatchSend(m *opentherm.Manager, name string, args []string) (string, error) {
	needFloat := func() (float64, error) {
		if len(args) != 1 {
			return 0, fmt.Errorf("%s takes exactly one numeric argument", name)
		}
		return strconv.ParseFloat(args[0], 64)
	}
	needBool := func() (bool, error) {
		if len(args) != 1 || (args[0] != "0" && args[0] != "1") {
			return false, fmt.Errorf("%s takes exactly one argument: 0 or 1", name)
		}
		return args[0] == "1", nil
	}

	switch name {
	case "takeover":
		m.TakeControl()
		return "TCtrl", nil
	case "relinquish":
		m.RelinquishControl()
		return "CS0", nil
	case "cs":
		v, err := needFloat()
		if err != nil {
			return "", err
		}
		m.SetControlSetpoint(v)
		return "CS", nil
	case "c2":
		v, err := needFloat()
		if err != nil {
			return "", err
		}
		m.SetControlSetpoint2(v)
		return "C2", nil
	case "ch":
		v, err := needBool()
		if err != nil {
			return "", err
		}
		m.SetCentralHeating(v)
		return "CH", nil
	case "h2":
		v, err := needBool()
		if err != nil {
			return "", err
		}
		m.SetCentralHeating2(v)
		return "H2", nil
	case "sw":
		v, err := needFloat()
		if err != nil {
			return "", err
		}
		m.SetDHWSetpoint(v)
		return "SW", nil
	case "sh":
		v, err := needFloat()
		if err != nil {
			return "", err
		}
		m.SetMaxCHSetpoint(v)
		return "SH", nil
	case "mm":
		v, err := needFloat()
		if err != nil {
			return "", err
		}
		m.SetMaxModulation(v)
		return "MM", nil
	case "vs":
		if len(args) != 1 {
			return "", fmt.Errorf("vs takes exactly one integer argument")
		}
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return "", err
		}
		m.SetVentilationSetpoint(v)
		return "VS", nil
	case "hw":
		if len(args) != 1 {
			return "", fmt.Errorf("hw takes exactly one argument")
		}
		m.SetHotWaterMode(args[0])
		return "HW", nil
	case "tt":
		v, err := needFloat()
		if err != nil {
			return "", err
		}
		m.SetTemporaryRoomSetpointOverride(v)
		return "TT", nil
	case "tc":
		v, err := needFloat()
		if err != nil {
			return "", err
		}
		m.SetConstantRoomSetpointOverride(v)
		return "TC", nil
	case "rs":
		if len(args) != 1 {
			return "", fmt.Errorf("rs takes exactly one counter name")
		}
		m.ResetBoilerCounter(args[0])
		return "RS", nil
	case "sc":
		if len(args) != 2 {
			return "", fmt.Errorf("sc takes a time (HH:MM) and a day (1-7)")
		}
		day, err := strconv.Atoi(args[1])
		if err != nil {
			return "", err
		}
		m.SetThermostatClock(args[0], day)
		return "SC", nil
	case "pm":
		if len(args) != 1 {
			return "", fmt.Errorf("pm takes exactly one data id")
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return "", err
		}
		m.RequestPriorityMessage(id)
		return "PM", nil
	default:
		return "", fmt.Errorf("unknown command %q", name)
	}
}

func runSend(cmd *cobra.Command, args []string) error {
	log := logger.New(logLevel)
	defer log.Sync()

	ctx := context.Background()
	mgr, connInfo, stop, err := startEngine(ctx, log)
	if err != nil {
		return err
	}
	defer stop()

	fmt.Printf("Connection: %s\n", connInfo)

	code, err := dispatchSend(mgr, args[0], args[1:])
	if err != nil {
		return err
	}

	// Poll until the dispatched command settles. Takeover sends two
	// commands back to back, so allow a generous multiple of the
	// per-command timeout.
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		st, ok := mgr.CommandStatus(code)
		if ok && st.Status != opentherm.StatusPending {
			switch st.Status {
			case opentherm.StatusSuccess:
				fmt.Printf("OK: %s\n", st.Result)
				return nil
			default:
				return fmt.Errorf("%s: %s (%s)", st.Status, st.ErrorCode, st.Result)
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("command %s did not settle", code)
}
