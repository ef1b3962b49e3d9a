// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Dan Bogdan

package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dlbogdan/otgwctl/pkg/opentherm"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func boilerRecord(raw uint16, at time.Time) opentherm.StatusRecord {
	hb := byte(raw >> 8)
	lb := byte(raw)
	return opentherm.StatusRecord{
		Source:    opentherm.SourceBoiler,
		Raw:       raw,
		HighByte:  hb,
		LowByte:   lb,
		Value:     opentherm.DecodeValue(opentherm.IDBoilerWaterTemp, hb, lb),
		Timestamp: at,
	}
}

func TestStoreSampleRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

	for i, raw := range []uint16{0x0266, 0x0280, 0x0300} {
		rec := boilerRecord(raw, base.Add(time.Duration(i)*time.Minute))
		if err := s.RecordSample(ctx, opentherm.IDBoilerWaterTemp, rec); err != nil {
			t.Fatalf("RecordSample: %v", err)
		}
	}

	got, err := s.Samples(ctx, opentherm.IDBoilerWaterTemp, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Samples: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("samples = %d, want 3", len(got))
	}
	first := got[0]
	if first.Source != "B" || first.DataID != opentherm.IDBoilerWaterTemp {
		t.Errorf("sample = %+v", first)
	}
	if first.Name != "Boiler Water Temperature" {
		t.Errorf("name = %q", first.Name)
	}
	if first.Value == nil || *first.Value != 2.3984375 {
		t.Errorf("value = %v, want 2.3984375", first.Value)
	}
	if !first.RecordedAt.Equal(base) {
		t.Errorf("recorded at %v, want %v", first.RecordedAt, base)
	}
}

func TestStoreSampleTimeWindow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		rec := boilerRecord(uint16(0x0200+i), base.Add(time.Duration(i)*time.Hour))
		if err := s.RecordSample(ctx, opentherm.IDBoilerWaterTemp, rec); err != nil {
			t.Fatalf("RecordSample: %v", err)
		}
	}

	got, err := s.Samples(ctx, opentherm.IDBoilerWaterTemp,
		base.Add(time.Hour), base.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("Samples: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("windowed samples = %d, want 3", len(got))
	}
}

func TestStoreFlagsHaveNoNumericValue(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := opentherm.StatusRecord{
		Source:    opentherm.SourceBoiler,
		Raw:       0x000A,
		HighByte:  0x00,
		LowByte:   0x0A,
		Value:     opentherm.DecodeValue(opentherm.IDStatus, 0x00, 0x0A),
		Timestamp: time.Now(),
	}
	if err := s.RecordSample(ctx, opentherm.IDStatus, rec); err != nil {
		t.Fatalf("RecordSample: %v", err)
	}

	got, err := s.Samples(ctx, opentherm.IDStatus, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Samples: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("samples = %d, want 1", len(got))
	}
	if got[0].Value != nil {
		t.Errorf("flag sample stored numeric value %v", *got[0].Value)
	}
	if got[0].Raw != 0x000A {
		t.Errorf("raw = %04X, want 000A", got[0].Raw)
	}
}

func TestStoreEvents(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.RecordEvent(ctx, "fault", "boiler fault indication raised"); err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}
	if err := s.RecordEvent(ctx, "takeover", "control taken at 21.50"); err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}

	all, err := s.Events(ctx, "")
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("events = %d, want 2", len(all))
	}

	faults, err := s.Events(ctx, "fault")
	if err != nil {
		t.Fatalf("Events(fault): %v", err)
	}
	if len(faults) != 1 || faults[0].Detail != "boiler fault indication raised" {
		t.Errorf("fault events = %+v", faults)
	}
}

func TestOpenRejectsBadPath(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing", "history.db")); err == nil {
		t.Error("Open succeeded on a nonexistent directory")
	}
}
