// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Dan Bogdan

package opentherm

import (
	"math"
	"testing"
)

func TestParseF88(t *testing.T) {
	tests := []struct {
		name string
		hb   byte
		lb   byte
		want float64
	}{
		{"zero", 0x00, 0x00, 0.0},
		{"one and nine sixteenths", 0x01, 0x90, 1.5625},
		{"typical boiler temp", 0x40, 0x80, 64.5},
		{"quarter degree", 0x00, 0x40, 0.25},
		{"negative outside temp", 0xFB, 0x00, -5.0},
		{"negative fraction", 0xFF, 0xC0, -0.25},
		{"most negative", 0x80, 0x00, -128.0},
		{"negative with fraction byte", 0x81, 0x00, -127.0},
		{"most positive", 0x7F, 0xFF, 127.99609375},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseF88(tt.hb, tt.lb)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ParseF88(0x%02X, 0x%02X) = %v, want %v", tt.hb, tt.lb, got, tt.want)
			}
		})
	}
}

func TestParseS16(t *testing.T) {
	tests := []struct {
		name string
		hb   byte
		lb   byte
		want int
	}{
		{"zero", 0x00, 0x00, 0},
		{"positive", 0x01, 0x2C, 300},
		{"negative", 0xFF, 0xFF, -1},
		{"min", 0x80, 0x00, -32768},
		{"max", 0x7F, 0xFF, 32767},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseS16(tt.hb, tt.lb); got != tt.want {
				t.Errorf("ParseS16(0x%02X, 0x%02X) = %d, want %d", tt.hb, tt.lb, got, tt.want)
			}
		})
	}
}

func TestParseS8(t *testing.T) {
	tests := []struct {
		b    byte
		want int8
	}{
		{0x00, 0},
		{0x50, 80},
		{0x7F, 127},
		{0xFF, -1},
		{0x80, -128},
		{0xEC, -20},
	}

	for _, tt := range tests {
		if got := ParseS8(tt.b); got != tt.want {
			t.Errorf("ParseS8(0x%02X) = %d, want %d", tt.b, got, tt.want)
		}
	}
}

func TestDecodeValueFloat(t *testing.T) {
	v := DecodeValue(IDBoilerWaterTemp, 0x42, 0x40)
	f, ok := v.(Float88)
	if !ok {
		t.Fatalf("DecodeValue(25) returned %T, want Float88", v)
	}
	if float64(f) != 66.25 {
		t.Errorf("boiler water temp = %v, want 66.25", float64(f))
	}
}

func TestDecodeValueStatusFlags(t *testing.T) {
	// Master: CH Enable + DHW Enable. Slave: CH Mode + Flame Status.
	v := DecodeValue(IDStatus, 0x03, 0x0A)
	fp, ok := v.(FlagPair)
	if !ok {
		t.Fatalf("DecodeValue(0) returned %T, want FlagPair", v)
	}
	if fp.Master["CH Enable"] != 1 || fp.Master["DHW Enable"] != 1 {
		t.Errorf("master flags = %v, want CH Enable and DHW Enable set", fp.Master)
	}
	if fp.Master["Cooling Enable"] != 0 {
		t.Errorf("Cooling Enable = %d, want 0", fp.Master["Cooling Enable"])
	}
	if fp.Slave["CH Mode"] != 1 || fp.Slave["Flame Status"] != 1 {
		t.Errorf("slave flags = %v, want CH Mode and Flame Status set", fp.Slave)
	}
	if fp.Slave["Fault Indication"] != 0 {
		t.Errorf("Fault Indication = %d, want 0", fp.Slave["Fault Indication"])
	}
}

func TestDecodeValueFaultInfo(t *testing.T) {
	v := DecodeValue(IDFaultFlags, 0x25, 0x05)
	fi, ok := v.(FaultInfo)
	if !ok {
		t.Fatalf("DecodeValue(5) returned %T, want FaultInfo", v)
	}
	if fi.OEMCode != 0x25 {
		t.Errorf("OEM code = %d, want %d", fi.OEMCode, 0x25)
	}
	if fi.Flags["Service Request"] != 1 || fi.Flags["Low Water Press"] != 1 {
		t.Errorf("fault flags = %v, want Service Request and Low Water Press set", fi.Flags)
	}
	if fi.Flags["Lockout Reset"] != 0 {
		t.Errorf("Lockout Reset = %d, want 0", fi.Flags["Lockout Reset"])
	}
}

func TestDecodeValueBoundaries(t *testing.T) {
	v := DecodeValue(48, 0x50, 0x28)
	b, ok := v.(Boundaries)
	if !ok {
		t.Fatalf("DecodeValue(48) returned %T, want Boundaries", v)
	}
	if b.Upper != 80 || b.Lower != 40 {
		t.Errorf("bounds = %d..%d, want 40..80", b.Lower, b.Upper)
	}
}

func TestDecodeValueCounters(t *testing.T) {
	v := DecodeValue(116, 0x01, 0xF4)
	u, ok := v.(Unsigned16)
	if !ok {
		t.Fatalf("DecodeValue(116) returned %T, want Unsigned16", v)
	}
	if uint32(u) != 500 {
		t.Errorf("burner starts = %d, want 500", uint32(u))
	}
}

func TestDecodeValueExhaustTemp(t *testing.T) {
	v := DecodeValue(33, 0xFF, 0xF6)
	s, ok := v.(Signed16)
	if !ok {
		t.Fatalf("DecodeValue(33) returned %T, want Signed16", v)
	}
	if int(s) != -10 {
		t.Errorf("exhaust temp = %d, want -10", int(s))
	}
}

func TestDecodeValueByte(t *testing.T) {
	v := DecodeValue(IDVentSetpoint, 0x00, 0x32)
	b, ok := v.(ByteValue)
	if !ok {
		t.Fatalf("DecodeValue(71) returned %T, want ByteValue", v)
	}
	if uint8(b) != 50 {
		t.Errorf("ventilation setpoint = %d, want 50", uint8(b))
	}
}

func TestDecodeValueUnknownID(t *testing.T) {
	v := DecodeValue(200, 0xAB, 0xCD)
	if _, ok := v.(Raw); !ok {
		t.Errorf("DecodeValue(200) returned %T, want Raw", v)
	}
}
