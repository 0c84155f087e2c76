package converter

import (
	"bytes"
	"fmt"

	"github.com/james-see/wrk2mid/pkg/converter/wrk"
)

var _ wrk.Handler = (*Sequence)(nil)

// Controller numbers used by track level settings
const (
	ccBankSelect    = 0
	ccVolume        = 7
	ccBankSelectLSB = 32
	ccVolumeLSB     = 39
)

func data7(v int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 127:
		return 127
	}
	return uint8(v)
}

func channel4(v int) uint8 {
	return uint8(v) & 0x0F
}

// appendMetadata stores a text event after codepage decoding
func (s *Sequence) appendMetadata(t TextType, track int, tick int64, data []byte) {
	s.appendEvent(track, tick, Text(t, decodeText(s.decoder, data)))
}

func (s *Sequence) FileHeader(verh, verl int) {
	s.curTrack = 0
	s.division = defaultDivision
	s.beatMax = 4
	s.beatLength = s.division
	s.version = fmt.Sprintf("%d.%d", verh, verl)
	s.timeCalculations()
	s.log.Debug("WRK file header", "version", s.version)
}

func (s *Sequence) TimeBase(ticks int) {
	if ticks <= 0 {
		s.log.Warn("ignoring invalid time base", "ticks", ticks)
		return
	}
	s.division = ticks
	s.timeCalculations()
}

func (s *Sequence) GlobalVars(vars wrk.GlobalVars) {
	s.KeySignature(0, vars.KeySig)
}

func (s *Sequence) SoftwareVersion(version string) {
	s.software = version
	s.log.Debug("saved by", "software", version)
}

func (s *Sequence) startTrack(number int, name []byte, t wrk.Track) {
	id := number + 1
	o := newOverlay()
	o.channel = t.Channel
	o.pitch = t.Pitch
	o.velocity = t.Velocity
	s.overlays[id] = o
	s.curTrack = id
	if name = bytes.TrimSpace(name); len(name) > 0 {
		o.named = true
		s.appendMetadata(TextTrackName, id, 0, name)
	}
}

func (s *Sequence) TrackHeader(name1, name2 []byte, t wrk.Track) {
	name := make([]byte, 0, len(name1)+len(name2)+1)
	name = append(name, name1...)
	name = append(name, ' ')
	name = append(name, name2...)
	s.startTrack(t.Number, name, t)
}

func (s *Sequence) NewTrackHeader(name []byte, t wrk.Track) {
	s.startTrack(t.Number, name, t)
}

func (s *Sequence) TrackName(track int, name []byte) {
	o := s.overlay(track + 1)
	if o.named {
		return
	}
	o.named = true
	s.appendMetadata(TextTrackName, track+1, 0, name)
}

func (s *Sequence) TrackVolume(track, vol int) {
	ch := s.defaultChannel(track + 1)
	if vol < 128 {
		s.Controller(track, 0, ch, ccVolume, vol)
		return
	}
	s.Controller(track, 0, ch, ccVolumeLSB, vol%128)
	s.Controller(track, 0, ch, ccVolume, vol/128)
}

func (s *Sequence) TrackBank(track, bank int) {
	ch := s.defaultChannel(track + 1)
	s.Controller(track, 0, ch, ccBankSelect, bank/128)
	s.Controller(track, 0, ch, ccBankSelectLSB, bank%128)
}

func (s *Sequence) TrackPatch(track, patch int) {
	s.Program(track, 0, s.defaultChannel(track+1), patch)
}

func (s *Sequence) Note(track int, time int64, channel, pitch, vol, dur int) {
	id := track + 1
	o := s.overlayOf(id)
	ch := channel4(o.channelFor(channel))
	key := data7(pitch + o.pitch)
	vel := data7(vol + o.velocity)
	if pitch < s.lowestNote {
		s.lowestNote = pitch
	}
	if pitch > s.highestNote {
		s.highestNote = pitch
	}
	s.appendEvent(id, time, NoteOn(ch, key, vel))
	s.appendEvent(id, time+int64(dur), NoteOff(ch, key, vel))
}

func (s *Sequence) KeyPress(track int, time int64, channel, pitch, press int) {
	id := track + 1
	ch := channel4(s.overlayOf(id).channelFor(channel))
	s.appendEvent(id, time, KeyPress(ch, data7(pitch), data7(press)))
}

func (s *Sequence) Controller(track int, time int64, channel, ctl, value int) {
	id := track + 1
	ch := channel4(s.overlayOf(id).channelFor(channel))
	s.appendEvent(id, time, Controller(ch, data7(ctl), data7(value)))
}

func (s *Sequence) PitchBend(track int, time int64, channel, value int) {
	id := track + 1
	ch := channel4(s.overlayOf(id).channelFor(channel))
	switch {
	case value < -8192:
		value = -8192
	case value > 8191:
		value = 8191
	}
	s.appendEvent(id, time, PitchBend(ch, value))
}

func (s *Sequence) Program(track int, time int64, channel, patch int) {
	if patch < 0 || patch > 127 {
		return
	}
	id := track + 1
	ch := channel4(s.overlayOf(id).channelFor(channel))
	s.appendEvent(id, time, ProgramChange(ch, uint8(patch)))
}

func (s *Sequence) ChanPress(track int, time int64, channel, press int) {
	id := track + 1
	ch := channel4(s.overlayOf(id).channelFor(channel))
	s.appendEvent(id, time, ChannelPressure(ch, data7(press)))
}

func (s *Sequence) SysexBank(bank int, name string, autosend bool, port int, data []byte) {
	if err := ValidateSyx(data); err != nil {
		s.log.Warn("sysex bank is not a framed message", "bank", bank, "name", name, "error", err)
	} else if id, err := ExtractManufacturerID(data); err == nil {
		s.log.Debug("sysex bank", "bank", bank, "name", name, "manufacturer", fmt.Sprintf("% X", id), "port", port)
	}
	s.sysex.store(bank, data)
	if autosend {
		ev, _ := s.sysex.event(bank)
		s.appendEvent(0, 0, ev)
	}
}

func (s *Sequence) SysexEvent(track int, time int64, bank int) {
	ev, ok := s.sysex.event(bank)
	if !ok {
		return
	}
	s.appendEvent(track+1, time, ev)
}

func (s *Sequence) Text(track int, time int64, kind int, data []byte) {
	s.appendMetadata(TextLyric, track+1, time, data)
}

func (s *Sequence) Comments(data []byte) {
	s.appendMetadata(TextText, 1, 0, data)
}

func (s *Sequence) VariableRecord(name string, data []byte) {
	var t TextType
	switch name {
	case "Title", "Subtitle":
		t = TextTrackName
	case "Author", "Copyright":
		if s.copyrightSet {
			return
		}
		s.copyrightSet = true
		t = TextCopyright
	case "Instructions", "Keywords":
		t = TextText
	default:
		s.log.Debug("skipping variable record", "name", name)
		return
	}
	s.appendMetadata(t, 0, 0, data)
}

func (s *Sequence) Marker(time int64, smpte int, data []byte) {
	if len(data) == 0 {
		return
	}
	s.appendMetadata(TextMarker, 1, time, data)
}

func (s *Sequence) Segment(track int, time int64, name []byte) {
	if len(name) == 0 {
		return
	}
	s.appendMetadata(TextMarker, track+1, time, name)
}

func (s *Sequence) Chord(track int, time int64, name string, data []byte) {
	s.appendMetadata(TextCue, track+1, time, []byte(name))
}

func (s *Sequence) Expression(track int, time int64, code int, text []byte) {
	s.appendMetadata(TextCue, track+1, time, text)
}

// Tempo handles a tempo in hundredths of BPM
func (s *Sequence) Tempo(time int64, tempo int) {
	if tempo <= 0 {
		s.log.Debug("ignoring zero tempo", "tick", time)
		return
	}
	bpm := float64(tempo) / 100.0
	s.appendEvent(s.curTrack, time, Tempo(tempoMicros(bpm)))
	if time == 0 {
		s.updateTempo(bpm)
	}
}

func (s *Sequence) TimeSignature(bar, num, den int) {
	if s.timeSigSet {
		return
	}
	if den <= 0 {
		den = 4
	}
	s.beatMax = num
	s.beatLength = s.division * 4 / den
	tick := s.bars.resolve(bar, num, den, s.division)
	exp := 0
	for d := den; d > 1; d /= 2 {
		exp++
	}
	s.appendEvent(s.curTrack, tick, TimeSignature(uint8(num), uint8(exp)))
	s.timeSigSet = true
}

func (s *Sequence) KeySignature(bar, alt int) {
	if s.keySigSet {
		return
	}
	tick, _ := s.bars.lookup(bar)
	s.appendEvent(s.curTrack, tick, KeySignature(alt, false))
	s.keySigSet = true
}

func (s *Sequence) StreamEnd(time int64) {
	if time > s.ticksDuration {
		s.ticksDuration = time
	}
}

func (s *Sequence) EndOfFile() {
	s.log.Debug("end of WRK file", "ticks", s.ticksDuration)
}

func (s *Sequence) UnknownChunk(id int, offset int64) {
	s.log.Debug("skipping chunk", "chunk", wrk.ChunkName(id), "offset", offset)
}

func (s *Sequence) Error(msg string, offset int64) {
	err := &wrk.ParseError{Offset: offset, Msg: msg}
	s.log.Error(err.Error())
	s.problems = append(s.problems, err)
	s.failed = true
}
