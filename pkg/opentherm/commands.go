// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Dan Bogdan

package opentherm

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// formatTemp renders a temperature with the two decimals the gateway
// documentation uses in its examples.
func formatTemp(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// requireActive gates commands that only make sense while this controller
// is overriding the thermostat.
func (c *Controller) requireActive(code string) (CmdResult, bool) {
	if c.IsActive() {
		return CmdResult{}, true
	}
	c.log.Warnw("command requires active takeover", "command", code)
	return CmdResult{Code: ResultNotActive, Data: "controller not active"}, false
}

// TakeControl takes over the boiler control setpoint from the thermostat.
// It reuses the previous override when one is set, otherwise the configured
// default. CS must succeed; a CH=1 failure afterwards is logged but does not
// roll back the takeover.
func (c *Controller) TakeControl(ctx context.Context) CmdResult {
	c.mu.RLock()
	setpoint := c.csOverride
	c.mu.RUnlock()
	if setpoint <= 0 {
		setpoint = c.DefaultSetpoint
	}

	c.log.Infow("taking control from thermostat", "setpoint", setpoint)
	res := c.sendCommand(ctx, "CS", formatTemp(setpoint), c.CommandTimeout)
	if !res.OK() {
		c.log.Errorw("takeover failed: could not set control setpoint",
			"status", res.Code.String(), "response", res.Data)
		return CmdResult{Code: res.Code,
			Data: fmt.Sprintf("failed to set initial CS (%s)", res.Code)}
	}

	if chRes := c.sendCommand(ctx, "CH", "1", c.CommandTimeout); !chRes.OK() {
		// CS took; the gateway may still run CH from the thermostat
		// state. Proceed rather than roll back a heating boiler.
		c.log.Errorw("takeover partial: could not enable central heating",
			"status", chRes.Code.String(), "response", chRes.Data)
	}

	c.mu.Lock()
	c.active = true
	c.csOverride = setpoint
	c.lastKeepAlive = c.now()
	c.mu.Unlock()
	c.log.Infow("control taken", "setpoint", setpoint)
	return CmdResult{Code: ResultOK, Data: "control taken"}
}

// RelinquishControl hands control back to the thermostat by clearing the
// control setpoint override. State is only cleared when the gateway accepts
// the command.
func (c *Controller) RelinquishControl(ctx context.Context) CmdResult {
	c.log.Infow("relinquishing control to thermostat")
	res := c.sendCommand(ctx, "CS", "0", c.CommandTimeout)
	if res.OK() {
		c.mu.Lock()
		c.active = false
		c.csOverride = 0
		c.cs2Override = 0
		c.mu.Unlock()
		c.log.Infow("control relinquished")
	} else {
		c.log.Errorw("failed to relinquish control; may still be overriding",
			"status", res.Code.String(), "response", res.Data)
	}
	return res
}

// SetControlSetpoint sets the boiler control setpoint (CS, id 1). Requires
// an active takeover. Values outside the plausible 0-90 range are logged but
// transmitted; the gateway clips them.
func (c *Controller) SetControlSetpoint(ctx context.Context, temp float64) CmdResult {
	if res, ok := c.requireActive("CS"); !ok {
		return res
	}
	if temp < 0 || temp > 90 {
		c.log.Warnw("control setpoint outside plausible range", "value", temp)
	}
	res := c.sendCommand(ctx, "CS", formatTemp(temp), c.CommandTimeout)
	if res.OK() {
		c.mu.Lock()
		c.csOverride = temp
		c.mu.Unlock()
	}
	return res
}

// SetDHWSetpoint sets the domestic hot water setpoint (SW, id 56). Only
// effective on boilers that support it.
func (c *Controller) SetDHWSetpoint(ctx context.Context, temp float64) CmdResult {
	if temp < 0 || temp > 80 {
		c.log.Warnw("DHW setpoint outside plausible range", "value", temp)
	}
	return c.sendCommand(ctx, "SW", formatTemp(temp), c.CommandTimeout)
}

// SetMaxModulation sets the maximum relative modulation level (MM, id 14).
func (c *Controller) SetMaxModulation(ctx context.Context, percentage float64) CmdResult {
	if percentage < 0 || percentage > 100 {
		c.log.Warnw("max modulation outside 0-100", "value", percentage)
	}
	return c.sendCommand(ctx, "MM", formatTemp(percentage), c.CommandTimeout)
}

// SetCentralHeating enables or disables central heating while the takeover
// is active (CH).
func (c *Controller) SetCentralHeating(ctx context.Context, enabled bool) CmdResult {
	if res, ok := c.requireActive("CH"); !ok {
		return res
	}
	return c.sendCommand(ctx, "CH", boolDigit(enabled), c.CommandTimeout)
}

// SetMaxCHSetpoint sets the maximum central heating water setpoint (SH,
// id 57). Zero returns the limit to the boiler.
func (c *Controller) SetMaxCHSetpoint(ctx context.Context, temp float64) CmdResult {
	if temp < 0 || temp > 90 {
		c.log.Warnw("max CH setpoint outside plausible range", "value", temp)
	}
	return c.sendCommand(ctx, "SH", formatTemp(temp), c.CommandTimeout)
}

// SetControlSetpoint2 sets the control setpoint of the second CH circuit
// (C2, id 8). Like CS it needs an active takeover and periodic refresh.
func (c *Controller) SetControlSetpoint2(ctx context.Context, temp float64) CmdResult {
	if res, ok := c.requireActive("C2"); !ok {
		return res
	}
	if temp < 0 || temp > 90 {
		c.log.Warnw("control setpoint 2 outside plausible range", "value", temp)
	}
	res := c.sendCommand(ctx, "C2", formatTemp(temp), c.CommandTimeout)
	if res.OK() {
		c.mu.Lock()
		c.cs2Override = temp
		c.mu.Unlock()
	}
	return res
}

// SetCentralHeating2 enables or disables the second CH circuit (H2).
func (c *Controller) SetCentralHeating2(ctx context.Context, enabled bool) CmdResult {
	if res, ok := c.requireActive("H2"); !ok {
		return res
	}
	return c.sendCommand(ctx, "H2", boolDigit(enabled), c.CommandTimeout)
}

// SetVentilationSetpoint sets the relative ventilation setpoint (VS, id 71).
func (c *Controller) SetVentilationSetpoint(ctx context.Context, percentage int) CmdResult {
	if percentage < 0 || percentage > 100 {
		c.log.Warnw("ventilation setpoint outside 0-100", "value", percentage)
	}
	return c.sendCommand(ctx, "VS", strconv.Itoa(percentage), c.CommandTimeout)
}

// ResetBoilerCounter clears one of the boiler's burner/pump counters (RS).
func (c *Controller) ResetBoilerCounter(ctx context.Context, counter string) CmdResult {
	if !validCounters[counter] {
		c.log.Warnw("invalid counter name for RS", "counter", counter)
		return CmdResult{Code: ResultInvalid, Data: "invalid counter name"}
	}
	return c.sendCommand(ctx, "RS", counter, c.CommandTimeout)
}

// SetHotWaterMode controls the DHW enable override (HW). Accepted values
// are "0", "1", "P", or any other single character to return control to the
// thermostat.
func (c *Controller) SetHotWaterMode(ctx context.Context, state string) CmdResult {
	if len(state) != 1 {
		c.log.Warnw("invalid hot water mode", "state", state)
		return CmdResult{Code: ResultInvalid, Data: "invalid state value"}
	}
	return c.sendCommand(ctx, "HW", state, c.CommandTimeout)
}

// SetTemporaryRoomSetpointOverride overrides the thermostat's room setpoint
// until its next program change (TT).
func (c *Controller) SetTemporaryRoomSetpointOverride(ctx context.Context, temp float64) CmdResult {
	if temp < 0 || temp > 30 {
		c.log.Warnw("room setpoint override out of range 0-30", "value", temp)
		return CmdResult{Code: ResultInvalid, Data: "temperature out of range"}
	}
	return c.sendCommand(ctx, "TT", formatTemp(temp), c.CommandTimeout)
}

// SetConstantRoomSetpointOverride overrides the thermostat's room setpoint
// permanently (TC). A value of 0 cancels the override.
func (c *Controller) SetConstantRoomSetpointOverride(ctx context.Context, temp float64) CmdResult {
	if temp < 0 || temp > 30 {
		c.log.Warnw("room setpoint override out of range 0-30", "value", temp)
		return CmdResult{Code: ResultInvalid, Data: "temperature out of range"}
	}
	return c.sendCommand(ctx, "TC", formatTemp(temp), c.CommandTimeout)
}

// SetThermostatClock sets the thermostat's time and day of week (SC). The
// time must be "HH:MM" and the day 1 (Monday) through 7.
func (c *Controller) SetThermostatClock(ctx context.Context, timeStr string, day int) CmdResult {
	if day < 1 || day > 7 {
		c.log.Warnw("invalid day for SC", "day", day)
		return CmdResult{Code: ResultInvalid, Data: "invalid day"}
	}
	if !validClock(timeStr) {
		c.log.Warnw("invalid time for SC", "time", timeStr)
		return CmdResult{Code: ResultInvalid, Data: "invalid time format"}
	}
	return c.sendCommand(ctx, "SC", fmt.Sprintf("%s/%d", timeStr, day), c.CommandTimeout)
}

// RequestPriorityMessage asks the gateway to insert a read request for the
// given data id into the OpenTherm exchange (PM).
func (c *Controller) RequestPriorityMessage(ctx context.Context, dataID int) CmdResult {
	if dataID < 0 || dataID > 255 {
		c.log.Warnw("invalid data id for PM", "data_id", dataID)
		return CmdResult{Code: ResultInvalid, Data: "invalid data id"}
	}
	return c.sendCommand(ctx, "PM", strconv.Itoa(dataID), c.CommandTimeout)
}

func boolDigit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// validClock checks an "HH:MM" literal.
func validClock(s string) bool {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 || len(s) != 5 {
		return false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return false
	}
	return h >= 0 && h <= 23 && m >= 0 && m <= 59
}
