// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Dan Bogdan

package opentherm

import (
	"context"
	"testing"
	"time"

	"github.com/dlbogdan/otgwctl/pkg/logger"
)

func TestSnapshotRoundTrip(t *testing.T) {
	ft := newFakeTransport()
	c := NewController(ft, logger.NewNop())
	c.KeepAliveInterval = time.Hour
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(c.Stop)

	ft.inject("OpenTherm Gateway 4.2.5\r\n")
	ft.inject("Thermostat connected\r\n")
	ft.inject("B40190266\r\n") // boiler water temperature
	ft.inject("T80000300\r\n") // status exchange
	waitFor(t, func() bool {
		_, ok := c.Record(IDStatus)
		_, ok2 := c.Record(IDBoilerWaterTemp)
		v, ok3 := c.GatewayVersion()
		return ok && ok2 && ok3 && v == "4.2.5"
	}, "session state populated")
	setActive(c, 21.5, 0)

	snap := c.Snapshot()
	data, err := EncodeSnapshot(snap)
	if err != nil {
		t.Fatalf("EncodeSnapshot: %v", err)
	}

	got, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("DecodeSnapshot: %v", err)
	}
	if got.GatewayVersion != "4.2.5" {
		t.Errorf("version = %q, want 4.2.5", got.GatewayVersion)
	}
	if got.ThermostatConnected == nil || !*got.ThermostatConnected {
		t.Error("thermostat connection state lost")
	}
	if !got.Active || got.CSOverride != 21.5 {
		t.Errorf("session state = active=%v cs=%v, want true 21.5", got.Active, got.CSOverride)
	}

	recs := got.StatusRecords()
	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2", len(recs))
	}
	temp, ok := recs[IDBoilerWaterTemp].Value.(Float88)
	if !ok || float64(temp) != 2.3984375 {
		t.Errorf("rebuilt boiler temp = %v %v", temp, ok)
	}
	if recs[IDStatus].Source != SourceThermostat {
		t.Errorf("status source = %c, want T", recs[IDStatus].Source)
	}
	if recs[IDBoilerWaterTemp].Timestamp.IsZero() {
		t.Error("record timestamp lost")
	}
}

func TestDecodeSnapshotRejectsGarbage(t *testing.T) {
	if _, err := DecodeSnapshot(nil); err == nil {
		t.Error("nil payload accepted")
	}
	if _, err := DecodeSnapshot([]byte{0xFF, 0x00, 0x13}); err == nil {
		t.Error("malformed payload accepted")
	}
}
