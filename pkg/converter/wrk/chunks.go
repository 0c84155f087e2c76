package wrk

import (
	"encoding/binary"
	"fmt"
)

// Chunk identifiers
const (
	TrackChunk    = 1
	StreamChunk   = 2
	VarsChunk     = 3
	TempoChunk    = 4
	MeterChunk    = 5
	SysexChunk    = 6
	MemRgnChunk   = 7
	CommentsChunk = 8
	TrkOffsChunk  = 9
	TimebaseChunk = 10
	TimeFmtChunk  = 11
	TrkRepsChunk  = 12
	TrkPatchChunk = 14
	NTempoChunk   = 15
	ThruChunk     = 16
	LyricsChunk   = 18
	TrkVolChunk   = 19
	Sysex2Chunk   = 20
	MarkersChunk  = 21
	StrTabChunk   = 22
	MeterKeyChunk = 23
	TrkNameChunk  = 24
	VariableChunk = 26
	NTrkOfsChunk  = 27
	TrkBankChunk  = 30
	NTrackChunk   = 36
	NSysexChunk   = 44
	NStreamChunk  = 45
	SegmentChunk  = 49
	SoftVerChunk  = 74
	EndChunk      = 0xFF
)

var chunkNames = map[int]string{
	TrackChunk:    "TRACK",
	StreamChunk:   "STREAM",
	VarsChunk:     "VARS",
	TempoChunk:    "TEMPO",
	MeterChunk:    "METER",
	SysexChunk:    "SYSEX",
	MemRgnChunk:   "MEMRGN",
	CommentsChunk: "COMMENTS",
	TrkOffsChunk:  "TRKOFFS",
	TimebaseChunk: "TIMEBASE",
	TimeFmtChunk:  "TIMEFMT",
	TrkRepsChunk:  "TRKREPS",
	TrkPatchChunk: "TRKPATCH",
	NTempoChunk:   "NTEMPO",
	ThruChunk:     "THRU",
	LyricsChunk:   "LYRICS",
	TrkVolChunk:   "TRKVOL",
	Sysex2Chunk:   "SYSEX2",
	MarkersChunk:  "MARKERS",
	StrTabChunk:   "STRTAB",
	MeterKeyChunk: "METERKEY",
	TrkNameChunk:  "TRKNAME",
	VariableChunk: "VARIABLE",
	NTrkOfsChunk:  "NTRKOFS",
	TrkBankChunk:  "TRKBANK",
	NTrackChunk:   "NTRACK",
	NSysexChunk:   "NSYSEX",
	NStreamChunk:  "NSTREAM",
	SegmentChunk:  "SGMNT",
	SoftVerChunk:  "SOFTVER",
	EndChunk:      "END",
}

// ChunkName returns a printable name for a chunk identifier
func ChunkName(id int) string {
	if name, ok := chunkNames[id]; ok {
		return name
	}
	return fmt.Sprintf("chunk %d", id)
}

// chunkReader decodes little-endian fields from one chunk body.
// Reads past the end set err and return zero values.
type chunkReader struct {
	data []byte
	pos  int
	base int64
	err  error
}

func (c *chunkReader) offset() int64 {
	return c.base + int64(c.pos)
}

func (c *chunkReader) remaining() int {
	return len(c.data) - c.pos
}

func (c *chunkReader) take(n int) []byte {
	if c.err != nil {
		return nil
	}
	if n < 0 || c.pos+n > len(c.data) {
		c.err = fmt.Errorf("unexpected end of chunk reading %d bytes", n)
		c.pos = len(c.data)
		return nil
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b
}

func (c *chunkReader) u8() int {
	b := c.take(1)
	if b == nil {
		return 0
	}
	return int(b[0])
}

func (c *chunkReader) i8() int {
	return int(int8(c.u8()))
}

func (c *chunkReader) flag() bool {
	return c.u8() != 0
}

func (c *chunkReader) u16() int {
	b := c.take(2)
	if b == nil {
		return 0
	}
	return int(binary.LittleEndian.Uint16(b))
}

func (c *chunkReader) i16() int {
	return int(int16(c.u16()))
}

func (c *chunkReader) u24() int64 {
	b := c.take(3)
	if b == nil {
		return 0
	}
	return int64(binary.LittleEndian.Uint32(append(b[:3:3], 0)))
}

func (c *chunkReader) u32() int64 {
	b := c.take(4)
	if b == nil {
		return 0
	}
	return int64(binary.LittleEndian.Uint32(b))
}

func (c *chunkReader) gap(n int) {
	c.take(n)
}

// bytes returns a copy so handlers may keep the result
func (c *chunkReader) bytes(n int) []byte {
	b := c.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

func (c *chunkReader) str(n int) string {
	return string(c.take(n))
}
