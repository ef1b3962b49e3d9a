// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Dan Bogdan

package opentherm

import (
	"fmt"
	"sort"
	"strings"
)

// FormatLine formats a classified line into a human-readable string.
func FormatLine(l Line) string {
	switch l.Kind {
	case LineResponse:
		return fmt.Sprintf("REPLY %s: %s", l.Code, l.Payload)
	case LineInfo:
		if l.Version != "" {
			return fmt.Sprintf("INFO  gateway version %s", l.Version)
		}
		if l.ThermostatChange != nil {
			if *l.ThermostatChange {
				return "INFO  thermostat connected"
			}
			return "INFO  thermostat disconnected"
		}
		return fmt.Sprintf("INFO  %s", l.Text)
	case LineFrame:
		return FormatFrame(l.Frame)
	case LineGatewayError:
		return fmt.Sprintf("GWERR %s", l.Payload)
	default:
		return fmt.Sprintf("?     %s", l.Text)
	}
}

// FormatFrame formats one decoded status frame.
func FormatFrame(f Frame) string {
	value := DecodeValue(f.DataID, f.HighByte, f.LowByte)
	return fmt.Sprintf("%-5s id=%3d %-28s %s",
		FormatSource(f.Source), f.DataID, DataIDName(f.DataID), FormatValue(value, f))
}

// FormatSource returns the human-readable name for a frame source letter.
func FormatSource(s Source) string {
	switch s {
	case SourceThermostat:
		return "THERM"
	case SourceBoiler:
		return "BOILR"
	case SourceReturn:
		return "RET>T"
	case SourceAlternative:
		return "ALT>B"
	case SourceError:
		return "ERROR"
	default:
		return "?"
	}
}

// DataIDName returns the human-readable name for an OpenTherm data id.
func DataIDName(id byte) string {
	switch id {
	case IDStatus:
		return "Status"
	case IDControlSetpoint:
		return "Control Setpoint"
	case 2:
		return "Master Configuration"
	case 3:
		return "Slave Configuration"
	case IDFaultFlags:
		return "Fault Flags / OEM Code"
	case 7:
		return "Cooling Control Signal"
	case IDControlSetpoint2:
		return "Control Setpoint 2"
	case IDMaxRelModulation:
		return "Max Relative Modulation"
	case IDRoomSetpoint:
		return "Room Setpoint"
	case IDRelModulation:
		return "Relative Modulation"
	case IDCHWaterPressure:
		return "CH Water Pressure"
	case 19:
		return "DHW Flow Rate"
	case 23:
		return "Room Setpoint CH2"
	case IDRoomTemperature:
		return "Room Temperature"
	case IDBoilerWaterTemp:
		return "Boiler Water Temperature"
	case IDDHWTemperature:
		return "DHW Temperature"
	case IDOutsideTemperature:
		return "Outside Temperature"
	case IDReturnWaterTemp:
		return "Return Water Temperature"
	case 31:
		return "Flow Temperature CH2"
	case 33:
		return "Boiler Exhaust Temperature"
	case 48:
		return "DHW Setpoint Bounds"
	case 49:
		return "Max CH Setpoint Bounds"
	case IDDHWSetpoint:
		return "DHW Setpoint"
	case IDMaxCHWaterSetpoint:
		return "Max CH Water Setpoint"
	case IDVHStatus:
		return "V/H Status"
	case IDVentSetpoint:
		return "Ventilation Setpoint"
	case 77:
		return "Relative Ventilation"
	case 116:
		return "Burner Starts"
	case 117:
		return "CH Pump Starts"
	case 118:
		return "DHW Pump Starts"
	case 119:
		return "DHW Burner Starts"
	case 120:
		return "Burner Hours"
	case 121:
		return "CH Pump Hours"
	case 122:
		return "DHW Pump Hours"
	case 123:
		return "DHW Burner Hours"
	default:
		return "Unknown"
	}
}

// FormatValue renders a decoded value for display. Raw values fall back to
// the frame's hex bytes.
func FormatValue(v Value, f Frame) string {
	switch val := v.(type) {
	case Float88:
		return fmt.Sprintf("%.2f", float64(val))
	case Signed16:
		return fmt.Sprintf("%d", int(val))
	case Unsigned16:
		return fmt.Sprintf("%d", uint32(val))
	case ByteValue:
		return fmt.Sprintf("%d", uint8(val))
	case FlagPair:
		return fmt.Sprintf("master=[%s] slave=[%s]",
			formatFlags(val.Master), formatFlags(val.Slave))
	case FaultInfo:
		return fmt.Sprintf("oem=%d flags=[%s]", val.OEMCode, formatFlags(val.Flags))
	case Boundaries:
		return fmt.Sprintf("%d..%d", val.Lower, val.Upper)
	default:
		return fmt.Sprintf("raw=%02X%02X", f.HighByte, f.LowByte)
	}
}

// formatFlags lists the set flags in a stable order.
func formatFlags(flags map[string]uint8) string {
	names := make([]string, 0, len(flags))
	for name, v := range flags {
		if v != 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
