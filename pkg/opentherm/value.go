// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Dan Bogdan

package opentherm

// Value is the decoded representation of a status frame's data bytes. The
// concrete type depends on the encoding registered for the data id.
type Value interface {
	value()
}

// Float88 is an f8.8 fixed-point value (signed 16-bit / 256).
type Float88 float64

// Signed16 is an s16 value, e.g. boiler exhaust temperature (id 33).
type Signed16 int

// Unsigned16 is a u16 counter value (ids 116-123).
type Unsigned16 uint32

// ByteValue is a u8 value carried in the low byte (ids 71, 77).
type ByteValue uint8

// FlagPair carries two named bit-flag maps, master flags from the high byte
// and slave flags from the low byte (ids 0 and 70).
type FlagPair struct {
	Master map[string]uint8
	Slave  map[string]uint8
}

// FaultInfo is the id 5 payload: OEM diagnostic code plus named fault flags.
type FaultInfo struct {
	OEMCode uint8
	Flags   map[string]uint8
}

// Boundaries is a signed byte pair giving a lower/upper bound (ids 48, 49).
type Boundaries struct {
	Lower int8
	Upper int8
}

// Raw marks a data id with no decoding registered; the record still exposes
// the raw bytes.
type Raw struct{}

func (Float88) value()    {}
func (Signed16) value()   {}
func (Unsigned16) value() {}
func (ByteValue) value()  {}
func (FlagPair) value()   {}
func (FaultInfo) value()  {}
func (Boundaries) value() {}
func (Raw) value()        {}

// ParseF88 decodes the OpenTherm f8.8 format: a 16-bit two's-complement
// integer divided by 256.
func ParseF88(hb, lb byte) float64 {
	v := int(hb)<<8 | int(lb)
	if hb&0x80 != 0 {
		v = -(((^v) + 1) & 0xFFFF)
	}
	return float64(v) / 256.0
}

// ParseS16 decodes a 16-bit two's-complement integer.
func ParseS16(hb, lb byte) int {
	v := int(hb)<<8 | int(lb)
	if hb&0x80 != 0 {
		v = -(((^v) + 1) & 0xFFFF)
	}
	return v
}

// ParseS8 decodes an 8-bit two's-complement integer.
func ParseS8(b byte) int8 {
	v := int(b)
	if b&0x80 != 0 {
		v = -(((^v) + 1) & 0xFF)
	}
	return int8(v)
}

// ParseU16 decodes an unsigned 16-bit integer.
func ParseU16(hb, lb byte) uint16 {
	return uint16(hb)<<8 | uint16(lb)
}

// parseBitField expands a byte into named flags per the given bit map.
func parseBitField(b byte, names map[uint]string) map[string]uint8 {
	flags := make(map[string]uint8, len(names))
	for bit, name := range names {
		flags[name] = uint8(b>>bit) & 1
	}
	return flags
}

type encoding int

const (
	encRaw encoding = iota
	encF88
	encS16
	encBoundaries
	encStatusFlags
	encVHFlags
	encFaultInfo
	encU8
	encU16
)

// encodings maps data ids to their field encodings. Ids absent from the
// table decode as Raw.
var encodings = map[byte]encoding{
	IDStatus:     encStatusFlags,
	IDFaultFlags: encFaultInfo,

	IDControlSetpoint: encF88, 7: encF88, IDControlSetpoint2: encF88,
	IDMaxRelModulation: encF88, IDRoomSetpoint: encF88, IDRelModulation: encF88,
	IDCHWaterPressure: encF88, 19: encF88, 23: encF88,
	IDRoomTemperature: encF88, IDBoilerWaterTemp: encF88, IDDHWTemperature: encF88,
	IDOutsideTemperature: encF88, IDReturnWaterTemp: encF88, 31: encF88,
	IDDHWSetpoint: encF88, IDMaxCHWaterSetpoint: encF88,

	33: encS16,

	48: encBoundaries, 49: encBoundaries,

	IDVHStatus: encVHFlags,

	IDVentSetpoint: encU8, 77: encU8,

	116: encU16, 117: encU16, 118: encU16, 119: encU16,
	120: encU16, 121: encU16, 122: encU16, 123: encU16,
}

// DecodeValue decodes a frame's two data bytes according to the encoding
// registered for its data id.
func DecodeValue(dataID, hb, lb byte) Value {
	switch encodings[dataID] {
	case encF88:
		return Float88(ParseF88(hb, lb))
	case encS16:
		return Signed16(ParseS16(hb, lb))
	case encBoundaries:
		return Boundaries{Lower: ParseS8(lb), Upper: ParseS8(hb)}
	case encStatusFlags:
		return FlagPair{
			Master: parseBitField(hb, masterStatusBits),
			Slave:  parseBitField(lb, slaveStatusBits),
		}
	case encVHFlags:
		// No names assigned yet for ventilation/heat-recovery flags.
		return FlagPair{
			Master: map[string]uint8{},
			Slave:  map[string]uint8{},
		}
	case encFaultInfo:
		return FaultInfo{
			OEMCode: hb,
			Flags:   parseBitField(lb, faultFlagBits),
		}
	case encU8:
		return ByteValue(lb)
	case encU16:
		return Unsigned16(ParseU16(hb, lb))
	default:
		return Raw{}
	}
}
