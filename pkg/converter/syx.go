package converter

import (
	"errors"
	"fmt"
)

// SysEx constants
const (
	SysExStart = 0xF0
	SysExEnd   = 0xF7
)

// sysexBanks caches the payloads of the song's sysex bank definitions
type sysexBanks map[int][]byte

func (b sysexBanks) store(bank int, data []byte) {
	b[bank] = append([]byte(nil), data...)
}

// event returns a fresh sysex event for a bank
func (b sysexBanks) event(bank int) (Event, bool) {
	data, ok := b[bank]
	if !ok {
		return Event{}, false
	}
	return SysEx(data), true
}

// ValidateSyx checks the framing of a system exclusive message
func ValidateSyx(data []byte) error {
	if len(data) < 2 {
		return errors.New("syx data too short")
	}

	if data[0] != SysExStart {
		return fmt.Errorf("invalid SysEx: expected start byte 0x%02X, got 0x%02X", SysExStart, data[0])
	}

	if data[len(data)-1] != SysExEnd {
		return fmt.Errorf("invalid SysEx: expected end byte 0x%02X, got 0x%02X", SysExEnd, data[len(data)-1])
	}

	for i := 1; i < len(data)-1; i++ {
		if data[i] > 127 {
			return fmt.Errorf("invalid SysEx: byte at position %d is > 127 (0x%02X)", i, data[i])
		}
	}

	return nil
}

// sysexBody strips the F0/F7 framing, if present
func sysexBody(data []byte) []byte {
	if len(data) > 0 && data[0] == SysExStart {
		data = data[1:]
	}
	if len(data) > 0 && data[len(data)-1] == SysExEnd {
		data = data[:len(data)-1]
	}
	return data
}

// ExtractManufacturerID extracts the manufacturer ID from SysEx data
func ExtractManufacturerID(data []byte) ([]byte, error) {
	if len(data) < 3 {
		return nil, errors.New("syx data too short for manufacturer ID")
	}

	if data[0] != SysExStart {
		return nil, errors.New("invalid SysEx start")
	}

	// Extended manufacturer IDs start with 0x00
	if data[1] == 0x00 {
		if len(data) < 5 {
			return nil, errors.New("syx data too short for extended manufacturer ID")
		}
		return data[1:4], nil
	}

	return data[1:2], nil
}
