// Package device reads raw input events from Linux evdev character devices.
package device

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/verte-zerg/ngram-keylogger/internal/model"
)

// EventSize is the size of struct input_event on 64-bit Linux: a timeval of
// two int64s followed by type, code and value.
const EventSize = 24

// Decode parses one little-endian input_event.
func Decode(buf []byte) (model.Event, error) {
	if len(buf) < EventSize {
		return model.Event{}, fmt.Errorf("short input event: %d bytes", len(buf))
	}
	sec := int64(binary.LittleEndian.Uint64(buf[0:8]))
	usec := int64(binary.LittleEndian.Uint64(buf[8:16]))
	return model.Event{
		Time:  time.Unix(sec, usec*int64(time.Microsecond)),
		Type:  binary.LittleEndian.Uint16(buf[16:18]),
		Code:  binary.LittleEndian.Uint16(buf[18:20]),
		Value: int32(binary.LittleEndian.Uint32(buf[20:24])),
	}, nil
}

// Encode is the inverse of Decode.
func Encode(ev model.Event) []byte {
	buf := make([]byte, EventSize)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(ev.Time.Unix()))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(ev.Time.Nanosecond()/int(time.Microsecond)))
	binary.LittleEndian.PutUint16(buf[16:18], ev.Type)
	binary.LittleEndian.PutUint16(buf[18:20], ev.Code)
	binary.LittleEndian.PutUint32(buf[20:24], uint32(ev.Value))
	return buf
}
