package wrk

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Header is the signature at the start of every .wrk file
const Header = "CAKEWALK"

// headerLen covers the signature, the 0x1A marker and two version bytes
const headerLen = len(Header) + 3

// ErrBadSignature is returned when the data does not start with the WRK signature
var ErrBadSignature = errors.New("not a Cakewalk WRK file")

// ParseError is a fatal decoding problem at a known file offset
type ParseError struct {
	Offset int64
	Msg    string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at file offset %d", e.Msg, e.Offset)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Reader decodes .wrk data and drives a Handler
type Reader struct {
	handler Handler
	data    []byte
	pos     int
}

// NewReader creates a Reader that delivers callbacks to h
func NewReader(h Handler) *Reader {
	return &Reader{handler: h}
}

func (r *Reader) offset() int64 {
	return int64(r.pos)
}

// Decode walks the chunks of data in file order.
// A returned error means the stream could not be decoded at all; problems
// confined to one chunk are reported through Handler.Error instead.
func (r *Reader) Decode(data []byte) error {
	r.data = data
	r.pos = 0

	if len(data) < headerLen || !bytes.Equal(data[:len(Header)], []byte(Header)) {
		return &ParseError{Offset: 0, Msg: "invalid file signature", Err: ErrBadSignature}
	}
	// Signature, 0x1A, then minor and major version
	verl := int(data[len(Header)+1])
	verh := int(data[len(Header)+2])
	r.pos = headerLen
	r.handler.FileHeader(verh, verl)

	for {
		if r.pos >= len(r.data) {
			r.handler.Error("missing end of file chunk", r.offset())
			return nil
		}
		id := int(r.data[r.pos])
		r.pos++
		if id == EndChunk {
			r.handler.EndOfFile()
			return nil
		}
		if r.pos+4 > len(r.data) {
			return &ParseError{Offset: r.offset(), Msg: fmt.Sprintf("truncated %s chunk header", ChunkName(id))}
		}
		length := int(binary.LittleEndian.Uint32(r.data[r.pos:]))
		r.pos += 4
		if length < 0 || r.pos+length > len(r.data) {
			return &ParseError{Offset: r.offset(), Msg: fmt.Sprintf("%s chunk length %d exceeds file size", ChunkName(id), length)}
		}

		c := &chunkReader{data: r.data[r.pos : r.pos+length], base: r.offset()}
		r.readChunk(id, c)
		if c.err != nil {
			r.handler.Error(fmt.Sprintf("corrupted %s chunk: %v", ChunkName(id), c.err), c.offset())
		}
		r.pos += length
	}
}

func (r *Reader) readChunk(id int, c *chunkReader) {
	switch id {
	case TrackChunk:
		r.readTrack(c)
	case StreamChunk:
		r.readStream(c)
	case VarsChunk:
		r.readVars(c)
	case TempoChunk:
		r.readTempo(c, 100)
	case NTempoChunk:
		r.readTempo(c, 1)
	case MeterChunk:
		r.readMeter(c)
	case MeterKeyChunk:
		r.readMeterKey(c)
	case SysexChunk:
		r.readSysex(c)
	case Sysex2Chunk:
		r.readSysex2(c)
	case NSysexChunk:
		r.readNewSysex(c)
	case CommentsChunk:
		n := c.u16()
		data := c.bytes(n)
		if c.err == nil {
			r.handler.Comments(data)
		}
	case TimebaseChunk:
		tb := c.u16()
		if c.err == nil {
			r.handler.TimeBase(tb)
		}
	case TrkPatchChunk:
		track := c.u16()
		patch := c.u8()
		if c.err == nil {
			r.handler.TrackPatch(track, patch)
		}
	case TrkVolChunk:
		track := c.u16()
		vol := c.u16()
		if c.err == nil {
			r.handler.TrackVolume(track, vol)
		}
	case TrkBankChunk:
		track := c.u16()
		bank := c.u16()
		if c.err == nil {
			r.handler.TrackBank(track, bank)
		}
	case TrkNameChunk:
		track := c.u16()
		name := c.bytes(c.u8())
		if c.err == nil {
			r.handler.TrackName(track, name)
		}
	case VariableChunk:
		r.readVariable(c)
	case MarkersChunk:
		r.readMarkers(c)
	case NTrackChunk:
		r.readNewTrack(c)
	case NStreamChunk:
		r.readNewStream(c)
	case SegmentChunk:
		r.readSegment(c)
	case SoftVerChunk:
		v := c.str(c.u8())
		if c.err == nil {
			r.handler.SoftwareVersion(v)
		}
	default:
		r.handler.UnknownChunk(id, c.base)
	}
}

func (r *Reader) readTrack(c *chunkReader) {
	t := Track{Number: c.u16()}
	name1 := c.bytes(c.u8())
	name2 := c.bytes(c.u8())
	t.Channel = c.i8()
	t.Pitch = c.i8()
	t.Velocity = c.i8()
	t.Port = c.u8()
	flags := c.u8()
	t.Selected = flags&0x01 != 0
	t.Muted = flags&0x02 != 0
	t.Loop = flags&0x04 != 0
	if c.err == nil {
		r.handler.TrackHeader(name1, name2, t)
	}
}

func (r *Reader) readNewTrack(c *chunkReader) {
	t := Track{Number: c.u16()}
	name := c.bytes(c.u8())
	bank := c.i16()
	patch := c.i16()
	vol := c.i16()
	_ = c.i16() // pan
	t.Pitch = c.i8()
	t.Velocity = c.i8()
	c.gap(7)
	t.Port = c.u8()
	t.Channel = c.i8()
	t.Muted = c.flag()
	if c.err != nil {
		return
	}
	r.handler.NewTrackHeader(name, t)
	if bank > -1 {
		r.handler.TrackBank(t.Number, bank)
	}
	if patch > -1 {
		if t.Channel > -1 {
			r.handler.Program(t.Number, 0, t.Channel, patch)
		} else {
			r.handler.TrackPatch(t.Number, patch)
		}
	}
	if vol > -1 {
		r.handler.TrackVolume(t.Number, vol)
	}
}

// readStream decodes the fixed eight byte events of the legacy stream chunk
func (r *Reader) readStream(c *chunkReader) {
	track := c.u16()
	count := c.u16()
	var time int64
	var dur int
	for i := 0; i < count && c.err == nil; i++ {
		time = c.u24()
		status := c.u8()
		data1 := c.u8()
		data2 := c.u8()
		dur = c.u16()
		if c.err != nil {
			return
		}
		r.channelEvent(track, time, status, data1, data2, dur)
	}
	if c.err == nil {
		r.handler.StreamEnd(time + int64(dur))
	}
}

func (r *Reader) readNewStream(c *chunkReader) {
	track := c.u16()
	name := c.bytes(c.u8())
	if c.err != nil {
		return
	}
	r.handler.Segment(track, 0, name)
	r.readEvents(c, track)
}

func (r *Reader) readSegment(c *chunkReader) {
	track := c.u16()
	offset := c.u32()
	c.gap(8)
	name := c.bytes(c.u8())
	c.gap(20)
	if c.err != nil {
		return
	}
	r.handler.Segment(track, offset, name)
	r.readEvents(c, track)
}

// readEvents decodes the variable length event list shared by NSTREAM and SGMNT
func (r *Reader) readEvents(c *chunkReader, track int) {
	count := int(c.u32())
	var time int64
	var dur int
	for i := 0; i < count && c.err == nil; i++ {
		time = c.u24()
		status := c.u8()
		dur = 0
		switch {
		case status >= 0x90:
			data1 := c.u8()
			data2 := c.u8()
			if status&0xF0 == 0x90 {
				dur = c.u16()
			}
			if c.err != nil {
				return
			}
			r.channelEvent(track, time, status, data1, data2, dur)
		case status == 5:
			code := c.u16()
			text := c.bytes(int(c.u32()))
			if c.err == nil {
				r.handler.Expression(track, time, code, text)
			}
		case status == 6:
			// hairpin: code, duration and padding
			c.gap(2)
			dur = c.u16()
			c.gap(4)
		case status == 7:
			name := c.str(int(c.u32()))
			data := c.bytes(13)
			if c.err == nil {
				r.handler.Chord(track, time, name, data)
			}
		case status == 8:
			// inline sysex data, not referenced by any bank
			c.gap(c.u16())
		default:
			text := c.bytes(int(c.u32()))
			if c.err == nil {
				r.handler.Text(track, time, status, text)
			}
		}
	}
	if c.err == nil {
		r.handler.StreamEnd(time + int64(dur))
	}
}

func (r *Reader) channelEvent(track int, time int64, status, data1, data2, dur int) {
	channel := status & 0x0F
	switch status & 0xF0 {
	case 0x90:
		r.handler.Note(track, time, channel, data1, data2, dur)
	case 0xA0:
		r.handler.KeyPress(track, time, channel, data1, data2)
	case 0xB0:
		r.handler.Controller(track, time, channel, data1, data2)
	case 0xC0:
		r.handler.Program(track, time, channel, data1)
	case 0xD0:
		r.handler.ChanPress(track, time, channel, data1)
	case 0xE0:
		r.handler.PitchBend(track, time, channel, data2<<7+data1-8192)
	case 0xF0:
		r.handler.SysexEvent(track, time, data1)
	}
}

func (r *Reader) readVars(c *chunkReader) {
	var v GlobalVars
	v.Now = c.u32()
	v.From = c.u32()
	v.Thru = c.u32()
	v.KeySig = c.i8()
	if c.err != nil {
		return
	}
	// Older files stop after the key signature
	if c.remaining() >= 25 {
		v.Clock = c.u8()
		v.AutoSave = c.u8()
		v.PlayDelay = c.u8()
		c.gap(1)
		v.ZeroCtrls = c.flag()
		v.SendSPP = c.flag()
		v.SendCont = c.flag()
		v.PatchSearch = c.flag()
		v.AutoStop = c.flag()
		v.StopTime = c.u32()
		v.AutoRewind = c.flag()
		v.RewindTime = c.u32()
		v.MetroPlay = c.flag()
		v.MetroRecord = c.flag()
		v.MetroAccent = c.flag()
		v.CountIn = c.u8()
		c.gap(2)
		v.ThruOn = c.flag()
	}
	r.handler.GlobalVars(v)
}

func (r *Reader) readTempo(c *chunkReader, factor int) {
	count := c.u16()
	for i := 0; i < count && c.err == nil; i++ {
		time := c.u32()
		c.gap(4)
		tempo := c.u16() * factor
		c.gap(8)
		if c.err == nil {
			r.handler.Tempo(time, tempo)
		}
	}
}

func (r *Reader) readMeter(c *chunkReader) {
	count := c.u16()
	for i := 0; i < count && c.err == nil; i++ {
		c.gap(4)
		measure := c.u16()
		num := c.u8()
		den := 1 << c.u8()
		c.gap(4)
		if c.err == nil {
			r.handler.TimeSignature(measure, num, den)
		}
	}
}

func (r *Reader) readMeterKey(c *chunkReader) {
	count := c.u16()
	for i := 0; i < count && c.err == nil; i++ {
		measure := c.u16()
		num := c.u8()
		den := 1 << c.u8()
		alt := c.i8()
		if c.err == nil {
			r.handler.TimeSignature(measure, num, den)
			r.handler.KeySignature(measure, alt)
		}
	}
}

func (r *Reader) readSysex(c *chunkReader) {
	bank := c.u8()
	length := c.u16()
	autosend := c.flag()
	name := c.str(c.u8())
	data := c.bytes(length)
	if c.err == nil {
		r.handler.SysexBank(bank, name, autosend, 0, data)
	}
}

func (r *Reader) readSysex2(c *chunkReader) {
	bank := c.u16()
	length := int(c.u32())
	b := c.u8()
	port := (b & 0xF0) >> 4
	autosend := b&0x0F != 0
	name := c.str(c.u8())
	data := c.bytes(length)
	if c.err == nil {
		r.handler.SysexBank(bank, name, autosend, port, data)
	}
}

func (r *Reader) readNewSysex(c *chunkReader) {
	bank := c.u16()
	length := int(c.u32())
	port := c.u16()
	autosend := c.u8()&0x0F != 0
	name := c.str(c.u8())
	data := c.bytes(length)
	if c.err == nil {
		r.handler.SysexBank(bank, name, autosend, port, data)
	}
}

func (r *Reader) readVariable(c *chunkReader) {
	raw := c.take(32)
	if c.err != nil {
		return
	}
	name := string(bytes.TrimRight(raw, "\x00"))
	data := c.bytes(c.remaining())
	r.handler.VariableRecord(name, data)
}

func (r *Reader) readMarkers(c *chunkReader) {
	count := int(c.u32())
	for i := 0; i < count && c.err == nil; i++ {
		smpte := c.u8()
		c.gap(1)
		time := c.u24()
		c.gap(5)
		text := c.bytes(c.u8())
		if c.err == nil {
			r.handler.Marker(time, smpte, text)
		}
	}
}
