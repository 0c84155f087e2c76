// Package wrktest builds small .wrk images for tests
package wrktest

import (
	"bytes"
	"encoding/binary"

	"github.com/james-see/wrk2mid/pkg/converter/wrk"
)

// Event is one entry of a STREAM chunk
type Event struct {
	Time   int64
	Status byte
	Data1  byte
	Data2  byte
	Dur    int
}

// Builder accumulates chunks behind a WRK file header
type Builder struct {
	buf bytes.Buffer
}

// New starts a file with the given version
func New(verh, verl byte) *Builder {
	b := &Builder{}
	b.buf.WriteString(wrk.Header)
	b.buf.WriteByte(0x1A)
	b.buf.WriteByte(verl)
	b.buf.WriteByte(verh)
	return b
}

// Chunk appends a raw chunk
func (b *Builder) Chunk(id byte, body []byte) *Builder {
	b.buf.WriteByte(id)
	_ = binary.Write(&b.buf, binary.LittleEndian, uint32(len(body)))
	b.buf.Write(body)
	return b
}

// TimeBase appends a TIMEBASE chunk
func (b *Builder) TimeBase(ticks int) *Builder {
	return b.Chunk(wrk.TimebaseChunk, le16(ticks))
}

// Vars appends a short VARS chunk carrying only the key signature
func (b *Builder) Vars(keySig int) *Builder {
	body := make([]byte, 12)
	body = append(body, byte(int8(keySig)))
	return b.Chunk(wrk.VarsChunk, body)
}

// Track appends a TRACK chunk
func (b *Builder) Track(number int, name1, name2 string, channel, pitch, velocity int) *Builder {
	var body []byte
	body = append(body, le16(number)...)
	body = append(body, byte(len(name1)))
	body = append(body, name1...)
	body = append(body, byte(len(name2)))
	body = append(body, name2...)
	body = append(body, byte(int8(channel)), byte(int8(pitch)), byte(int8(velocity)), 0, 0)
	return b.Chunk(wrk.TrackChunk, body)
}

// Stream appends a STREAM chunk of fixed size events
func (b *Builder) Stream(track int, events ...Event) *Builder {
	var body []byte
	body = append(body, le16(track)...)
	body = append(body, le16(len(events))...)
	for _, ev := range events {
		body = append(body, le24(ev.Time)...)
		body = append(body, ev.Status, ev.Data1, ev.Data2)
		body = append(body, le16(ev.Dur)...)
	}
	return b.Chunk(wrk.StreamChunk, body)
}

// Tempo appends an NTEMPO chunk; tempo is in hundredths of BPM
func (b *Builder) Tempo(time int64, tempo int) *Builder {
	var body []byte
	body = append(body, le16(1)...)
	body = append(body, le32(time)...)
	body = append(body, make([]byte, 4)...)
	body = append(body, le16(tempo)...)
	body = append(body, make([]byte, 8)...)
	return b.Chunk(wrk.NTempoChunk, body)
}

// Meter appends a METER chunk with a single time signature
func (b *Builder) Meter(bar, num, denExp int) *Builder {
	var body []byte
	body = append(body, le16(1)...)
	body = append(body, make([]byte, 4)...)
	body = append(body, le16(bar)...)
	body = append(body, byte(num), byte(denExp))
	body = append(body, make([]byte, 4)...)
	return b.Chunk(wrk.MeterChunk, body)
}

// Sysex appends a SYSEX bank definition
func (b *Builder) Sysex(bank int, name string, autosend bool, data []byte) *Builder {
	var body []byte
	body = append(body, byte(bank))
	body = append(body, le16(len(data))...)
	if autosend {
		body = append(body, 1)
	} else {
		body = append(body, 0)
	}
	body = append(body, byte(len(name)))
	body = append(body, name...)
	body = append(body, data...)
	return b.Chunk(wrk.SysexChunk, body)
}

// Variable appends a VARIABLE record
func (b *Builder) Variable(name string, data []byte) *Builder {
	body := make([]byte, 32)
	copy(body, name)
	body = append(body, data...)
	return b.Chunk(wrk.VariableChunk, body)
}

// Comments appends a COMMENTS chunk
func (b *Builder) Comments(text string) *Builder {
	body := le16(len(text))
	body = append(body, text...)
	return b.Chunk(wrk.CommentsChunk, body)
}

// TrackVolume appends a TRKVOL chunk
func (b *Builder) TrackVolume(track, vol int) *Builder {
	return b.Chunk(wrk.TrkVolChunk, append(le16(track), le16(vol)...))
}

// End appends the END chunk
func (b *Builder) End() *Builder {
	b.buf.WriteByte(wrk.EndChunk)
	return b
}

// Bytes returns the file image
func (b *Builder) Bytes() []byte {
	return b.buf.Bytes()
}

func le16(v int) []byte {
	return []byte{byte(v), byte(v >> 8)}
}

func le24(v int64) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16)}
}

func le32(v int64) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}
