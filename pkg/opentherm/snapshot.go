// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Dan Bogdan

package opentherm

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// SnapshotRecord is one status record in wire form. Only the raw frame bytes
// are stored; decoded values are rebuilt on load.
type SnapshotRecord struct {
	Source    byte  `cbor:"0,keyasint"`
	MsgType   byte  `cbor:"1,keyasint"`
	DataID    byte  `cbor:"2,keyasint"`
	HighByte  byte  `cbor:"3,keyasint"`
	LowByte   byte  `cbor:"4,keyasint"`
	Timestamp int64 `cbor:"5,keyasint"` // unix milliseconds
}

// Snapshot is a point-in-time capture of the session: every known status
// record plus the control-session state.
type Snapshot struct {
	TakenAt             int64            `cbor:"0,keyasint"` // unix milliseconds
	GatewayVersion      string           `cbor:"1,keyasint,omitempty"`
	ThermostatConnected *bool            `cbor:"2,keyasint,omitempty"`
	Active              bool             `cbor:"3,keyasint"`
	CSOverride          float64          `cbor:"4,keyasint"`
	CS2Override         float64          `cbor:"5,keyasint"`
	LastKeepAlive       int64            `cbor:"6,keyasint,omitempty"` // unix milliseconds
	Records             []SnapshotRecord `cbor:"7,keyasint"`
}

// Snapshot captures the controller's current session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		TakenAt:        c.now().UnixMilli(),
		GatewayVersion: c.gatewayVersion,
		Active:         c.active,
		CSOverride:     c.csOverride,
		CS2Override:    c.cs2Override,
		Records:        make([]SnapshotRecord, 0, len(c.records)),
	}
	if c.thermostatConnected != nil {
		v := *c.thermostatConnected
		snap.ThermostatConnected = &v
	}
	if !c.lastKeepAlive.IsZero() {
		snap.LastKeepAlive = c.lastKeepAlive.UnixMilli()
	}
	for id, rec := range c.records {
		snap.Records = append(snap.Records, SnapshotRecord{
			Source:    byte(rec.Source),
			MsgType:   rec.MsgType,
			DataID:    id,
			HighByte:  rec.HighByte,
			LowByte:   rec.LowByte,
			Timestamp: rec.Timestamp.UnixMilli(),
		})
	}
	return snap
}

// EncodeSnapshot serializes a snapshot to CBOR.
func EncodeSnapshot(s Snapshot) ([]byte, error) {
	data, err := cbor.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot deserializes a CBOR snapshot.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	if len(data) == 0 {
		return Snapshot{}, fmt.Errorf("empty snapshot payload")
	}
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return s, nil
}

// StatusRecords rebuilds the decoded status records from a snapshot.
func (s Snapshot) StatusRecords() map[byte]StatusRecord {
	out := make(map[byte]StatusRecord, len(s.Records))
	for _, r := range s.Records {
		out[r.DataID] = StatusRecord{
			Source:    Source(r.Source),
			MsgType:   r.MsgType,
			Raw:       uint16(r.HighByte)<<8 | uint16(r.LowByte),
			HighByte:  r.HighByte,
			LowByte:   r.LowByte,
			Value:     DecodeValue(r.DataID, r.HighByte, r.LowByte),
			Timestamp: time.UnixMilli(r.Timestamp),
		}
	}
	return out
}
