package hid

import (
	"encoding/binary"
	"fmt"
)

// ReportIDButtonEvent prefixes every button report sent by the keypad.
const ReportIDButtonEvent byte = 0x01

const (
	EventTypePress   byte = 0x01
	EventTypeRelease byte = 0x02
)

// MaxButtons is the width of the report's button mask.
const MaxButtons = 16

// reportSize is the length of a button report.
const reportSize = 8

// Event is one button report from the keypad.
type Event struct {
	Type       EventType
	ButtonMask uint16
	Timestamp  uint32
}

type EventType byte

const (
	Press   EventType = EventType(EventTypePress)
	Release EventType = EventType(EventTypeRelease)
)

func (e EventType) String() string {
	switch e {
	case Press:
		return "press"
	case Release:
		return "release"
	default:
		return fmt.Sprintf("unknown(%d)", e)
	}
}

// ParseEvent decodes a button report:
//
//	Byte 0:   report ID (0x01)
//	Byte 1:   event type (0x01 press, 0x02 release)
//	Byte 2-3: buttons held after the event, little-endian bitmask
//	Byte 4-7: device timestamp in ms, little-endian
func ParseEvent(data []byte) (*Event, error) {
	if len(data) < reportSize {
		return nil, fmt.Errorf("event data too short: %d bytes", len(data))
	}
	if data[0] != ReportIDButtonEvent {
		return nil, fmt.Errorf("unexpected report ID: 0x%02X", data[0])
	}

	kind := data[1]
	if kind != EventTypePress && kind != EventTypeRelease {
		return nil, fmt.Errorf("unknown event type: 0x%02X", kind)
	}

	return &Event{
		Type:       EventType(kind),
		ButtonMask: binary.LittleEndian.Uint16(data[2:4]),
		Timestamp:  binary.LittleEndian.Uint32(data[4:8]),
	}, nil
}

// Encode is the inverse of ParseEvent. It is used by tests and the
// simulated keypad.
func (e Event) Encode() []byte {
	buf := make([]byte, reportSize)
	buf[0] = ReportIDButtonEvent
	buf[1] = byte(e.Type)
	binary.LittleEndian.PutUint16(buf[2:4], e.ButtonMask)
	binary.LittleEndian.PutUint32(buf[4:8], e.Timestamp)
	return buf
}

// PressedButtons lists the indices set in the button mask.
func (e *Event) PressedButtons() []int {
	var buttons []int
	for i := range MaxButtons {
		if e.ButtonMask&(1<<i) != 0 {
			buttons = append(buttons, i)
		}
	}
	return buttons
}
