// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Dan Bogdan

package opentherm

import "time"

// StatusRecord is the most recent frame seen for one data id. Records are
// overwritten in place and never deleted.
type StatusRecord struct {
	Source    Source
	MsgType   byte
	Raw       uint16
	HighByte  byte
	LowByte   byte
	Value     Value // Raw{} when no decoding is registered for the id
	Timestamp time.Time
}

// Record returns the latest status record for a data id.
func (c *Controller) Record(dataID byte) (StatusRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.records[dataID]
	return rec, ok
}

// Records returns a copy of all known status records keyed by data id.
func (c *Controller) Records() map[byte]StatusRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[byte]StatusRecord, len(c.records))
	for id, rec := range c.records {
		out[id] = rec
	}
	return out
}

// LastResponse returns the last reply payload received for a command code.
func (c *Controller) LastResponse(code string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	resp, ok := c.lastResponses[code]
	return resp, ok
}

// IsActive reports whether this controller is currently overriding the
// thermostat.
func (c *Controller) IsActive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// GatewayVersion returns the version reported by the gateway's startup
// banner, if one has been seen.
func (c *Controller) GatewayVersion() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gatewayVersion, c.gatewayVersion != ""
}

// ThermostatConnected reports the last announced thermostat connection
// state. ok is false while no banner has been seen.
func (c *Controller) ThermostatConnected() (connected, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.thermostatConnected == nil {
		return false, false
	}
	return *c.thermostatConnected, true
}

// IsBoilerConnected reports whether a boiler frame arrived recently. False
// until the first boiler frame is seen.
func (c *Controller) IsBoilerConnected() bool {
	c.mu.RLock()
	last := c.lastBoilerMessage
	c.mu.RUnlock()
	if last.IsZero() {
		c.log.Warnw("boiler status unknown: no boiler frames received yet")
		return false
	}
	return c.now().Sub(last) < c.BoilerTimeout
}

// LastKeepAlive returns the time of the last keep-alive retransmission.
func (c *Controller) LastKeepAlive() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastKeepAlive
}

// float88 fetches an f8.8 telemetry value by data id.
func (c *Controller) float88(dataID byte) (float64, bool) {
	rec, ok := c.Record(dataID)
	if !ok {
		return 0, false
	}
	v, ok := rec.Value.(Float88)
	return float64(v), ok
}

// ControlSetpoint returns the last reported control setpoint (id 1).
func (c *Controller) ControlSetpoint() (float64, bool) {
	return c.float88(IDControlSetpoint)
}

// ControlSetpoint2 returns the control setpoint of the second CH circuit (id 8).
func (c *Controller) ControlSetpoint2() (float64, bool) {
	return c.float88(IDControlSetpoint2)
}

// MaxRelativeModulation returns the maximum relative modulation level (id 14).
func (c *Controller) MaxRelativeModulation() (float64, bool) {
	return c.float88(IDMaxRelModulation)
}

// RoomSetpoint returns the thermostat's room setpoint (id 16).
func (c *Controller) RoomSetpoint() (float64, bool) {
	return c.float88(IDRoomSetpoint)
}

// RelativeModulation returns the current relative modulation level (id 17).
func (c *Controller) RelativeModulation() (float64, bool) {
	return c.float88(IDRelModulation)
}

// CHWaterPressure returns the central heating water pressure (id 18).
func (c *Controller) CHWaterPressure() (float64, bool) {
	return c.float88(IDCHWaterPressure)
}

// RoomTemperature returns the room temperature (id 24).
func (c *Controller) RoomTemperature() (float64, bool) {
	return c.float88(IDRoomTemperature)
}

// BoilerWaterTemperature returns the boiler flow water temperature (id 25).
func (c *Controller) BoilerWaterTemperature() (float64, bool) {
	return c.float88(IDBoilerWaterTemp)
}

// DHWTemperature returns the domestic hot water temperature (id 26).
func (c *Controller) DHWTemperature() (float64, bool) {
	return c.float88(IDDHWTemperature)
}

// OutsideTemperature returns the outside temperature (id 27).
func (c *Controller) OutsideTemperature() (float64, bool) {
	return c.float88(IDOutsideTemperature)
}

// ReturnWaterTemperature returns the return water temperature (id 28).
func (c *Controller) ReturnWaterTemperature() (float64, bool) {
	return c.float88(IDReturnWaterTemp)
}

// DHWSetpoint returns the domestic hot water setpoint (id 56).
func (c *Controller) DHWSetpoint() (float64, bool) {
	return c.float88(IDDHWSetpoint)
}

// MaxCHWaterSetpoint returns the maximum CH water setpoint (id 57).
func (c *Controller) MaxCHWaterSetpoint() (float64, bool) {
	return c.float88(IDMaxCHWaterSetpoint)
}

// VentilationSetpoint returns the relative ventilation setpoint (id 71).
func (c *Controller) VentilationSetpoint() (uint8, bool) {
	rec, ok := c.Record(IDVentSetpoint)
	if !ok {
		return 0, false
	}
	v, ok := rec.Value.(ByteValue)
	return uint8(v), ok
}

// MasterStatusFlags returns the named master status flags from id 0.
func (c *Controller) MasterStatusFlags() (map[string]uint8, bool) {
	rec, ok := c.Record(IDStatus)
	if !ok {
		return nil, false
	}
	fp, ok := rec.Value.(FlagPair)
	if !ok {
		return nil, false
	}
	return fp.Master, true
}

// SlaveStatusFlags returns the named slave status flags from id 0.
func (c *Controller) SlaveStatusFlags() (map[string]uint8, bool) {
	rec, ok := c.Record(IDStatus)
	if !ok {
		return nil, false
	}
	fp, ok := rec.Value.(FlagPair)
	if !ok {
		return nil, false
	}
	return fp.Slave, true
}

// FaultFlags returns the named fault flags from id 5.
func (c *Controller) FaultFlags() (map[string]uint8, bool) {
	rec, ok := c.Record(IDFaultFlags)
	if !ok {
		return nil, false
	}
	fi, ok := rec.Value.(FaultInfo)
	if !ok {
		return nil, false
	}
	return fi.Flags, true
}

// OEMFaultCode returns the manufacturer diagnostic code from id 5.
func (c *Controller) OEMFaultCode() (uint8, bool) {
	rec, ok := c.Record(IDFaultFlags)
	if !ok {
		return 0, false
	}
	fi, ok := rec.Value.(FaultInfo)
	if !ok {
		return 0, false
	}
	return fi.OEMCode, true
}

// masterFlag reads a single named master status bit; false when unknown.
func (c *Controller) masterFlag(name string) bool {
	flags, ok := c.MasterStatusFlags()
	return ok && flags[name] == 1
}

// slaveFlag reads a single named slave status bit; false when unknown.
func (c *Controller) slaveFlag(name string) bool {
	flags, ok := c.SlaveStatusFlags()
	return ok && flags[name] == 1
}

// IsCHEnabled reports whether the master status has CH Enable set.
func (c *Controller) IsCHEnabled() bool { return c.masterFlag("CH Enable") }

// IsDHWEnabled reports whether the master status has DHW Enable set.
func (c *Controller) IsDHWEnabled() bool { return c.masterFlag("DHW Enable") }

// IsCoolingEnabled reports whether the master status has Cooling Enable set.
func (c *Controller) IsCoolingEnabled() bool { return c.masterFlag("Cooling Enable") }

// IsFaultPresent reports whether the slave status indicates a fault.
func (c *Controller) IsFaultPresent() bool { return c.slaveFlag("Fault Indication") }

// IsFlameOn reports whether the slave status indicates the burner flame is on.
func (c *Controller) IsFlameOn() bool { return c.slaveFlag("Flame Status") }
