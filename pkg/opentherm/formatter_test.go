// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Dan Bogdan

package opentherm

import (
	"strings"
	"testing"
)

func TestFormatLine(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"reply", "CS: 45.00", "REPLY CS: 45.00"},
		{"version banner", "OpenTherm Gateway 4.2.5", "INFO  gateway version 4.2.5"},
		{"thermostat banner", "Thermostat connected", "INFO  thermostat connected"},
		{"gateway error", "E01", "GWERR E01"},
		{"noise", "garbage", "?     garbage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatLine(ClassifyLine(tt.raw)); got != tt.want {
				t.Errorf("FormatLine(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestFormatFrame(t *testing.T) {
	l := ClassifyLine("B40190266")
	got := FormatFrame(l.Frame)
	for _, want := range []string{"BOILR", "id= 25", "Boiler Water Temperature", "2.40"} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatFrame = %q, missing %q", got, want)
		}
	}
}

func TestFormatFrameFlags(t *testing.T) {
	l := ClassifyLine("B40000003")
	got := FormatFrame(l.Frame)
	for _, want := range []string{"Status", "Fault Indication", "CH Mode"} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatFrame = %q, missing %q", got, want)
		}
	}
}

func TestFormatFrameRawFallback(t *testing.T) {
	l := ClassifyLine("T00C8ABCD")
	got := FormatFrame(l.Frame)
	if !strings.Contains(got, "raw=ABCD") {
		t.Errorf("FormatFrame = %q, missing raw bytes", got)
	}
	if !strings.Contains(got, "Unknown") {
		t.Errorf("FormatFrame = %q, missing Unknown label", got)
	}
}
