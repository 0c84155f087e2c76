package converter

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// Writer receives a finalized sequence one track at a time
type Writer interface {
	Header(format, tracks int, division uint16)
	BeginTrack(id int)
	Add(delta uint32, msg []byte)
	// EndTrack closes the track with an end-of-track meta event
	EndTrack()
	WriteTo(w io.Writer) (int64, error)
}

// smfWriter builds the output with gomidi's smf package
type smfWriter struct {
	s     *smf.SMF
	track smf.Track
	err   error
}

// NewSMFWriter returns a Writer producing a Standard MIDI File
func NewSMFWriter() Writer {
	return &smfWriter{}
}

func (w *smfWriter) Header(format, tracks int, division uint16) {
	if format == 0 {
		w.s = smf.New()
	} else {
		w.s = smf.NewSMF1()
	}
	w.s.TimeFormat = smf.MetricTicks(division)
}

func (w *smfWriter) BeginTrack(id int) {
	w.track = smf.Track{}
}

func (w *smfWriter) Add(delta uint32, msg []byte) {
	w.track.Add(delta, msg)
}

func (w *smfWriter) EndTrack() {
	w.track.Close(0)
	if err := w.s.Add(w.track); err != nil && w.err == nil {
		w.err = fmt.Errorf("failed to add track: %w", err)
	}
}

func (w *smfWriter) WriteTo(out io.Writer) (int64, error) {
	if w.err != nil {
		return 0, w.err
	}
	if w.s == nil {
		return 0, errors.New("no MIDI header written")
	}
	n, err := w.s.WriteTo(out)
	if err != nil {
		return n, fmt.Errorf("failed to write MIDI: %w", err)
	}
	return n, nil
}

// Emit streams the finalized sequence into w. Nothing is written after a failed
// load or when no track holds an event.
func (s *Sequence) Emit(w Writer) error {
	if s.failed {
		return ErrLoadFailed
	}
	ids := s.Tracks()
	if len(ids) == 0 {
		return ErrNoTracks
	}
	w.Header(s.format, len(ids), uint16(s.division))
	for _, id := range ids {
		w.BeginTrack(id)
		var carry int64
		for _, ev := range s.tracks[id] {
			carry += ev.Delta
			msg := encodeEvent(ev)
			if msg == nil {
				continue
			}
			w.Add(uint32(carry), msg)
			carry = 0
		}
		w.EndTrack()
	}
	return nil
}

// WriteMIDI writes the sequence as a Standard MIDI File
func (s *Sequence) WriteMIDI(out io.Writer) error {
	w := NewSMFWriter()
	if err := s.Emit(w); err != nil {
		return err
	}
	_, err := w.WriteTo(out)
	return err
}

// SaveMIDIFile writes the sequence to a .mid file
func (s *Sequence) SaveMIDIFile(filename string) error {
	var buf bytes.Buffer
	if err := s.WriteMIDI(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(filename, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// maxTempoMicros is the largest value a set-tempo meta event can carry
const maxTempoMicros = 0xFFFFFF

// encodeEvent returns the wire bytes of an event, nil for unsupported kinds
func encodeEvent(ev Event) []byte {
	ch := ev.Channel
	switch ev.Kind {
	case KindNoteOn:
		return midi.NoteOn(ch, ev.Data1, ev.Data2)
	case KindNoteOff:
		return midi.NoteOffVelocity(ch, ev.Data1, ev.Data2)
	case KindKeyPress:
		return midi.PolyAfterTouch(ch, ev.Data1, ev.Data2)
	case KindController:
		return midi.ControlChange(ch, ev.Data1, ev.Data2)
	case KindProgramChange:
		return midi.ProgramChange(ch, ev.Data1)
	case KindChannelPressure:
		return midi.AfterTouch(ch, ev.Data1)
	case KindPitchBend:
		lsb, msb := pitchBendBytes(ev.Value)
		return midi.Message{0xE0 | ch&0x0F, lsb, msb}
	case KindSysEx:
		return midi.SysEx(sysexBody(ev.Data))
	case KindText:
		return textMeta(ev.Text, string(ev.Data))
	case KindTempo:
		us := uint32(min(max(ev.Value, 1), maxTempoMicros))
		return smf.Message{0xFF, 0x51, 0x03, byte(us >> 16), byte(us >> 8), byte(us)}
	case KindTimeSignature:
		return smf.Message{0xFF, 0x58, 0x04, ev.Data1, ev.Data2, 24, 8}
	case KindKeySignature:
		var mi byte
		if ev.Minor {
			mi = 1
		}
		return smf.Message{0xFF, 0x59, 0x02, byte(int8(ev.Value)), mi}
	}
	return nil
}

// pitchBendBytes splits a signed bend into the 7-bit LSB and MSB
func pitchBendBytes(value int) (lsb, msb uint8) {
	u := 8192 + value
	return uint8(u % 128), uint8(u / 128)
}

func textMeta(t TextType, text string) []byte {
	switch t {
	case TextText:
		return smf.MetaText(text)
	case TextCopyright:
		return smf.MetaCopyright(text)
	case TextTrackName:
		return smf.MetaTrackSequenceName(text)
	case TextInstrument:
		return smf.MetaInstrument(text)
	case TextLyric:
		return smf.MetaLyric(text)
	case TextMarker:
		return smf.MetaMarker(text)
	case TextCue:
		return smf.MetaCuepoint(text)
	}
	return nil
}

// MIDISummary describes a Standard MIDI File
type MIDISummary struct {
	Format   uint16
	Tracks   int
	Division uint16
	Events   int
	Notes    int
	Tempo    float64 // BPM of the first tempo event, 120 when absent
}

// SummarizeMIDI parses SMF data and counts what it holds
func SummarizeMIDI(data []byte) (*MIDISummary, error) {
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse MIDI: %w", err)
	}

	sum := &MIDISummary{
		Format: s.Format(),
		Tracks: len(s.Tracks),
		Tempo:  120.0,
	}
	if mt, ok := s.TimeFormat.(smf.MetricTicks); ok {
		sum.Division = mt.Resolution()
	}

	tempoSeen := false
	for _, track := range s.Tracks {
		for _, ev := range track {
			sum.Events++
			msg := ev.Message
			// Tempo meta: FF 51 03 tt tt tt
			if !tempoSeen && len(msg) >= 6 && msg[0] == 0xFF && msg[1] == 0x51 && msg[2] == 0x03 {
				us := uint32(msg[3])<<16 | uint32(msg[4])<<8 | uint32(msg[5])
				if us > 0 {
					sum.Tempo = 60000000.0 / float64(us)
					tempoSeen = true
				}
			}
			if len(msg) >= 3 && msg[0]&0xF0 == 0x90 && msg[2] > 0 {
				sum.Notes++
			}
		}
	}
	return sum, nil
}
