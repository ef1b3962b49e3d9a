// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Dan Bogdan

// Package opentherm implements the protocol engine for an OpenTherm Gateway
// (OTGW) attached over a serial link.
//
// The gateway speaks an ASCII line protocol: outgoing commands are
// "XX=value\r", replies are "XX: data", and the OpenTherm bus traffic is
// mirrored as status frames such as "B40190266" (source letter plus eight hex
// digits). This package provides the line classifier, the binary field
// decoder, the session state with its telemetry getters, the command
// correlator with single-command-in-flight discipline, and a non-blocking
// dispatch manager for higher-level callers.
package opentherm

import "time"

// Source identifies which side of the OpenTherm bus produced a status frame.
type Source byte

// Status frame sources (the leading character of a frame line).
const (
	SourceThermostat  Source = 'T'
	SourceBoiler      Source = 'B'
	SourceReturn      Source = 'R' // request modified by the gateway
	SourceAlternative Source = 'A' // answer substituted by the gateway
	SourceError       Source = 'E'
)

// ResultCode classifies the outcome of a single command exchange.
type ResultCode int

// Command result codes. The NG..OE range mirrors the error tokens the
// gateway itself emits.
const (
	ResultOK         ResultCode = iota
	ResultNoGood                // NG: unknown command
	ResultSyntaxError           // SE
	ResultBadValue              // BV
	ResultOutOfRange            // OR
	ResultNoSpace               // NS
	ResultNotFound              // NF
	ResultOverrun               // OE
	ResultTimeout               // no reply within the deadline
	ResultNotActive             // command requires controller takeover
	ResultInvalid               // rejected locally, nothing transmitted
	ResultUnknown
)

var resultNames = map[ResultCode]string{
	ResultOK:          "ok",
	ResultNoGood:      "no good",
	ResultSyntaxError: "syntax error",
	ResultBadValue:    "bad value",
	ResultOutOfRange:  "out of range",
	ResultNoSpace:     "no space",
	ResultNotFound:    "not found",
	ResultOverrun:     "overrun error",
	ResultTimeout:     "timeout",
	ResultNotActive:   "controller not active",
	ResultInvalid:     "invalid argument",
	ResultUnknown:     "unknown error",
}

// String returns a short human-readable name for the result code.
func (r ResultCode) String() string {
	if s, ok := resultNames[r]; ok {
		return s
	}
	return "unknown error"
}

// responseTokens maps the error tokens the gateway may send as the direct
// reply to a command. A reply consisting solely of one of these tokens is
// classified as the corresponding command-level error instead of success.
var responseTokens = map[string]ResultCode{
	"NG": ResultNoGood,
	"SE": ResultSyntaxError,
	"BV": ResultBadValue,
	"OR": ResultOutOfRange,
	"NS": ResultNoSpace,
	"NF": ResultNotFound,
	"OE": ResultOverrun,
}

// CmdResult is the uniform outcome of every correlator-backed operation.
type CmdResult struct {
	Code ResultCode
	Data string // reply payload, or a diagnostic message on failure
}

// OK reports whether the command completed successfully.
func (r CmdResult) OK() bool { return r.Code == ResultOK }

// Timing defaults. Overrides such as CS above 8 degrees silently expire on
// the gateway unless refreshed, hence the keep-alive cadence below one minute.
const (
	DefaultCommandTimeout    = 2 * time.Second
	DefaultKeepAliveInterval = 50 * time.Second
	DefaultKeepAliveTimeout  = 5 * time.Second
	DefaultBoilerTimeout     = 60 * time.Second
	DefaultControlSetpoint   = 10.0

	// keepAliveFloor is the setpoint below which the gateway does not
	// require periodic re-assertion.
	keepAliveFloor = 8.0
)

// Well-known OpenTherm data ids.
const (
	IDStatus             = 0  // master/slave status flags
	IDControlSetpoint    = 1  // f8.8
	IDFaultFlags         = 5  // OEM code (HB) + fault flags (LB)
	IDControlSetpoint2   = 8  // f8.8
	IDMaxRelModulation   = 14 // f8.8
	IDRoomSetpoint       = 16 // f8.8
	IDRelModulation      = 17 // f8.8
	IDCHWaterPressure    = 18 // f8.8
	IDRoomTemperature    = 24 // f8.8
	IDBoilerWaterTemp    = 25 // f8.8
	IDDHWTemperature     = 26 // f8.8
	IDOutsideTemperature = 27 // f8.8
	IDReturnWaterTemp    = 28 // f8.8
	IDDHWSetpoint        = 56 // f8.8
	IDMaxCHWaterSetpoint = 57 // f8.8
	IDVHStatus           = 70 // ventilation/heat-recovery status flags
	IDVentSetpoint       = 71 // u8
)

// Status flag names, OpenTherm protocol v2.2. Bit 7 of each byte is reserved.
var masterStatusBits = map[uint]string{
	0: "CH Enable",
	1: "DHW Enable",
	2: "Cooling Enable",
	3: "OTC Active",
	4: "CH2 Enable",
	5: "Summer/Winter Mode",
	6: "DHW Blocking",
}

var slaveStatusBits = map[uint]string{
	0: "Fault Indication",
	1: "CH Mode",
	2: "DHW Mode",
	3: "Flame Status",
	4: "Cooling Status",
	5: "CH2 Mode",
	6: "Diagnostic Indication",
}

var faultFlagBits = map[uint]string{
	0: "Service Request",
	1: "Lockout Reset",
	2: "Low Water Press",
	3: "Gas/Flame Fault",
	4: "Air Press Fault",
	5: "Water Over-Temp",
}

// validCounters lists the counter names accepted by the RS command.
var validCounters = map[string]bool{
	"HBS": true, "HBH": true, "HPS": true, "HPH": true,
	"WBS": true, "WBH": true, "WPS": true, "WPH": true,
}
