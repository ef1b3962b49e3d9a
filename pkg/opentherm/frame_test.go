// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Dan Bogdan

package opentherm

import "testing"

func TestClassifyLineResponse(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantCode    string
		wantPayload string
	}{
		{"setpoint echo", "CS: 45.00", "CS", "45.00"},
		{"error token", "TT: NG", "TT", "NG"},
		{"no payload space", "PR:A", "PR", "A"},
		{"digit in code", "C2: 19.00", "C2", "19.00"},
		{"extra whitespace", "HW:  1 ", "HW", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := ClassifyLine(tt.raw)
			if l.Kind != LineResponse {
				t.Fatalf("ClassifyLine(%q).Kind = %v, want LineResponse", tt.raw, l.Kind)
			}
			if l.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", l.Code, tt.wantCode)
			}
			if l.Payload != tt.wantPayload {
				t.Errorf("Payload = %q, want %q", l.Payload, tt.wantPayload)
			}
		})
	}
}

func TestClassifyLineFrame(t *testing.T) {
	l := ClassifyLine("B40190266")
	if l.Kind != LineFrame {
		t.Fatalf("Kind = %v, want LineFrame", l.Kind)
	}
	f := l.Frame
	if f.Source != SourceBoiler {
		t.Errorf("Source = %c, want B", f.Source)
	}
	if f.MsgType != 0x40 || f.DataID != 0x19 || f.HighByte != 0x02 || f.LowByte != 0x66 {
		t.Errorf("frame bytes = %02X %02X %02X %02X, want 40 19 02 66",
			f.MsgType, f.DataID, f.HighByte, f.LowByte)
	}
	if f.Raw() != 0x0266 {
		t.Errorf("Raw() = %04X, want 0266", f.Raw())
	}
}

func TestClassifyLineFrameSources(t *testing.T) {
	for _, src := range []string{"T", "B", "R", "A", "E"} {
		l := ClassifyLine(src + "00190266")
		if l.Kind != LineFrame {
			t.Errorf("source %s: Kind = %v, want LineFrame", src, l.Kind)
		}
	}
}

func TestClassifyLineInfo(t *testing.T) {
	l := ClassifyLine("OpenTherm Gateway 4.2.5")
	if l.Kind != LineInfo || l.Version != "4.2.5" {
		t.Errorf("version banner: Kind=%v Version=%q, want LineInfo 4.2.5", l.Kind, l.Version)
	}

	// Garbage before the banner happens right after a gateway reset.
	l = ClassifyLine("\x00\xffOpenTherm Gateway 6.5")
	if l.Kind != LineInfo || l.Version != "6.5" {
		t.Errorf("noisy banner: Kind=%v Version=%q, want LineInfo 6.5", l.Kind, l.Version)
	}

	l = ClassifyLine("Thermostat connected")
	if l.Kind != LineInfo || l.ThermostatChange == nil || !*l.ThermostatChange {
		t.Errorf("connect banner not recognized: %+v", l)
	}

	l = ClassifyLine("Thermostat disconnected")
	if l.Kind != LineInfo || l.ThermostatChange == nil || *l.ThermostatChange {
		t.Errorf("disconnect banner not recognized: %+v", l)
	}
}

func TestClassifyLineGatewayError(t *testing.T) {
	tests := []string{"E01", "E 123", "Error 03"}
	l := ClassifyLine(tests[0])
	if l.Kind != LineGatewayError {
		t.Errorf("ClassifyLine(%q).Kind = %v, want LineGatewayError", tests[0], l.Kind)
	}
	l = ClassifyLine(tests[1])
	if l.Kind != LineGatewayError {
		t.Errorf("ClassifyLine(%q).Kind = %v, want LineGatewayError", tests[1], l.Kind)
	}
	// "Error 03" does not start with the source letter E followed by a
	// frame body, and "rr" is not an uppercase command code.
	l = ClassifyLine(tests[2])
	if l.Kind != LineGatewayError {
		t.Errorf("ClassifyLine(%q).Kind = %v, want LineGatewayError", tests[2], l.Kind)
	}
}

func TestClassifyLineUnknown(t *testing.T) {
	tests := []string{
		"",
		"B4019026",    // seven hex digits
		"B401902666",  // nine hex digits
		"B40190Z66",   // non-hex digit
		"X40190266",   // unknown source letter
		"hello world", // freeform noise
	}
	for _, raw := range tests {
		if l := ClassifyLine(raw); l.Kind != LineUnknown {
			t.Errorf("ClassifyLine(%q).Kind = %v, want LineUnknown", raw, l.Kind)
		}
	}
}

func TestClassifyLineResponseBeatsFrame(t *testing.T) {
	// A reply is identified by the colon before any frame parse runs.
	l := ClassifyLine("PM: 5")
	if l.Kind != LineResponse || l.Code != "PM" {
		t.Errorf("reply misclassified: %+v", l)
	}
}

func TestLineAssembler(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"crlf", "CS: 45.00\r\nB40190266\r\n", []string{"CS: 45.00", "B40190266"}},
		{"cr only", "HW: 1\rTT: NG\r", []string{"HW: 1", "TT: NG"}},
		{"lf only", "A\nB\n", []string{"A", "B"}},
		{"blank lines swallowed", "\r\n\r\nX\r\n\r\n", []string{"X"}},
		{"trailing partial withheld", "AB: 1\rCD: 2", []string{"AB: 1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asm := NewLineAssembler()
			var got []string
			for i := 0; i < len(tt.input); i++ {
				if line, ok := asm.Feed(tt.input[i]); ok {
					got = append(got, line)
				}
			}
			if len(got) != len(tt.want) {
				t.Fatalf("lines = %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLineAssemblerReset(t *testing.T) {
	asm := NewLineAssembler()
	asm.Feed('p')
	asm.Feed('a')
	asm.Reset()
	asm.Feed('X')
	line, ok := asm.Feed('\r')
	if !ok || line != "X" {
		t.Errorf("after Reset: line=%q ok=%v, want X true", line, ok)
	}
}
