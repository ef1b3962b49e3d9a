// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Dan Bogdan

package opentherm

import (
	"strconv"
	"strings"
)

// LineKind is the category the classifier assigns to one received line.
type LineKind int

// Line categories, in classification order.
const (
	LineUnknown      LineKind = iota
	LineResponse              // "XX: data" command reply
	LineInfo                  // version banner or thermostat connection banner
	LineFrame                 // status frame, source letter plus 8 hex digits
	LineGatewayError          // leading 'E' not followed by a valid frame body
)

// Frame is one decoded OpenTherm status frame.
type Frame struct {
	Source   Source
	MsgType  byte // raw message-type/parity byte
	DataID   byte
	HighByte byte
	LowByte  byte
}

// Raw returns the 16-bit data value carried by the frame.
func (f Frame) Raw() uint16 {
	return uint16(f.HighByte)<<8 | uint16(f.LowByte)
}

// Line is the classifier output for one received line.
type Line struct {
	Kind    LineKind
	Text    string // the original line, always set
	Code    string // command code, LineResponse only
	Payload string // trimmed reply payload, LineResponse only
	Frame   Frame  // valid when Kind == LineFrame

	// Informational banner extraction, LineInfo only.
	Version          string
	ThermostatChange *bool
}

const versionBanner = "OpenTherm Gateway "

// ClassifyLine categorizes one line received from the gateway. The line must
// already be stripped of its terminator. Rules are applied in order: command
// reply, informational banner, status frame, gateway error notice.
func ClassifyLine(raw string) Line {
	l := Line{Kind: LineUnknown, Text: raw}

	// Command reply: a two-character code, a colon, then the payload.
	if len(raw) >= 3 && raw[2] == ':' && isUpperAlpha(raw[0]) && isCodeByte(raw[1]) {
		l.Kind = LineResponse
		l.Code = raw[:2]
		l.Payload = strings.TrimSpace(raw[3:])
		return l
	}

	// Banners can arrive with garbage prepended after a gateway reset, so
	// match on substring rather than prefix.
	if idx := strings.LastIndex(raw, versionBanner); idx >= 0 {
		l.Kind = LineInfo
		l.Version = strings.TrimSpace(raw[idx+len(versionBanner):])
		return l
	}
	if strings.Contains(raw, "Thermostat disconnected") {
		v := false
		l.Kind = LineInfo
		l.ThermostatChange = &v
		return l
	}
	if strings.Contains(raw, "Thermostat connected") {
		v := true
		l.Kind = LineInfo
		l.ThermostatChange = &v
		return l
	}

	if len(raw) > 1 {
		switch Source(raw[0]) {
		case SourceThermostat, SourceBoiler, SourceReturn, SourceAlternative, SourceError:
			body := raw[1:]
			if f, ok := parseFrameBody(Source(raw[0]), body); ok {
				l.Kind = LineFrame
				l.Frame = f
				return l
			}
			if raw[0] == byte(SourceError) {
				// E lines without a frame body are internal gateway
				// error notices such as "E01".
				l.Kind = LineGatewayError
				l.Payload = raw
				return l
			}
		}
	}

	return l
}

// parseFrameBody decodes the eight hex digits of a status frame.
func parseFrameBody(src Source, body string) (Frame, bool) {
	if len(body) != 8 {
		return Frame{}, false
	}
	var bytes [4]byte
	for i := 0; i < 4; i++ {
		v, err := strconv.ParseUint(body[i*2:i*2+2], 16, 8)
		if err != nil {
			return Frame{}, false
		}
		bytes[i] = byte(v)
	}
	return Frame{
		Source:   src,
		MsgType:  bytes[0],
		DataID:   bytes[1],
		HighByte: bytes[2],
		LowByte:  bytes[3],
	}, true
}

func isUpperAlpha(b byte) bool { return b >= 'A' && b <= 'Z' }

// isCodeByte accepts the second byte of a command code; C2 and H2 carry a
// digit there.
func isCodeByte(b byte) bool { return isUpperAlpha(b) || (b >= '0' && b <= '9') }

// LineAssembler accumulates raw bytes and emits complete lines. The gateway
// terminates lines with CR, LF, or CRLF depending on firmware; each
// terminator byte ends the current line and empty lines are swallowed.
type LineAssembler struct {
	buf []byte
}

// NewLineAssembler creates an assembler with a reasonable initial capacity.
func NewLineAssembler() *LineAssembler {
	return &LineAssembler{buf: make([]byte, 0, 64)}
}

// Feed processes a single received byte. It returns a complete line and true
// when a terminator arrives on a non-empty buffer.
func (a *LineAssembler) Feed(b byte) (string, bool) {
	if b == '\r' || b == '\n' {
		if len(a.buf) == 0 {
			return "", false
		}
		line := string(a.buf)
		a.buf = a.buf[:0]
		return line, true
	}
	a.buf = append(a.buf, b)
	return "", false
}

// Reset discards any partially assembled line.
func (a *LineAssembler) Reset() {
	a.buf = a.buf[:0]
}
