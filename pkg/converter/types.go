// Package converter translates Cakewalk .wrk songs into Standard MIDI Files
package converter

import (
	"fmt"
)

// EventKind identifies the variant held by an Event
type EventKind uint8

const (
	KindNone EventKind = iota
	KindNoteOn
	KindNoteOff
	KindKeyPress
	KindController
	KindProgramChange
	KindChannelPressure
	KindPitchBend
	KindSysEx
	KindText
	KindTempo
	KindTimeSignature
	KindKeySignature
)

var kindNames = [...]string{
	KindNone:            "none",
	KindNoteOn:          "note-on",
	KindNoteOff:         "note-off",
	KindKeyPress:        "key-press",
	KindController:      "controller",
	KindProgramChange:   "program",
	KindChannelPressure: "channel-pressure",
	KindPitchBend:       "pitch-bend",
	KindSysEx:           "sysex",
	KindText:            "text",
	KindTempo:           "tempo",
	KindTimeSignature:   "time-signature",
	KindKeySignature:    "key-signature",
}

func (k EventKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// TextType is the SMF meta event type of a text payload
type TextType uint8

const (
	TextNone TextType = iota
	TextText
	TextCopyright
	TextTrackName
	TextInstrument
	TextLyric
	TextMarker
	TextCue
)

var textNames = [...]string{
	TextNone:       "none",
	TextText:       "text",
	TextCopyright:  "copyright",
	TextTrackName:  "track-name",
	TextInstrument: "instrument",
	TextLyric:      "lyric",
	TextMarker:     "marker",
	TextCue:        "cue",
}

func (t TextType) String() string {
	if int(t) < len(textNames) {
		return textNames[t]
	}
	return fmt.Sprintf("text(%d)", uint8(t))
}

// Event is one musical event of a translated sequence.
//
// Field use per kind:
//
//	NoteOn, NoteOff    Data1 key, Data2 velocity
//	KeyPress           Data1 key, Data2 pressure
//	Controller         Data1 controller, Data2 value
//	ProgramChange      Data1 program
//	ChannelPressure    Data1 pressure
//	PitchBend          Value in [-8192, 8191]
//	SysEx              Data
//	Text               Text, Data
//	Tempo              Value in microseconds per quarter note
//	TimeSignature      Data1 numerator, Data2 denominator as a power of two
//	KeySignature       Value alterations, Minor
type Event struct {
	Kind    EventKind
	Tick    int64 // Absolute position in ticks
	Delta   int64 // Ticks since the previous event of the track, set by Finalize
	Track   int   // Owning output track
	Channel uint8
	Data1   uint8
	Data2   uint8
	Value   int
	Minor   bool
	Text    TextType
	Data    []byte
}

// NoteOn creates a note-on event
func NoteOn(channel, key, velocity uint8) Event {
	return Event{Kind: KindNoteOn, Channel: channel, Data1: key, Data2: velocity}
}

// NoteOff creates a note-off event
func NoteOff(channel, key, velocity uint8) Event {
	return Event{Kind: KindNoteOff, Channel: channel, Data1: key, Data2: velocity}
}

// KeyPress creates a polyphonic aftertouch event
func KeyPress(channel, key, pressure uint8) Event {
	return Event{Kind: KindKeyPress, Channel: channel, Data1: key, Data2: pressure}
}

// Controller creates a control change event
func Controller(channel, controller, value uint8) Event {
	return Event{Kind: KindController, Channel: channel, Data1: controller, Data2: value}
}

// ProgramChange creates a program change event
func ProgramChange(channel, program uint8) Event {
	return Event{Kind: KindProgramChange, Channel: channel, Data1: program}
}

// ChannelPressure creates a channel aftertouch event
func ChannelPressure(channel, pressure uint8) Event {
	return Event{Kind: KindChannelPressure, Channel: channel, Data1: pressure}
}

// PitchBend creates a pitch bend event
func PitchBend(channel uint8, value int) Event {
	return Event{Kind: KindPitchBend, Channel: channel, Value: value}
}

// SysEx creates a system exclusive event. The payload is copied.
func SysEx(data []byte) Event {
	return Event{Kind: KindSysEx, Data: append([]byte(nil), data...)}
}

// Text creates a meta text event. The payload is copied.
func Text(t TextType, data []byte) Event {
	return Event{Kind: KindText, Text: t, Data: append([]byte(nil), data...)}
}

// Tempo creates a tempo event
func Tempo(micros int) Event {
	return Event{Kind: KindTempo, Value: micros}
}

// TimeSignature creates a time signature event
func TimeSignature(numerator, denominatorExp uint8) Event {
	return Event{Kind: KindTimeSignature, Data1: numerator, Data2: denominatorExp}
}

// KeySignature creates a key signature event
func KeySignature(alterations int, minor bool) Event {
	return Event{Kind: KindKeySignature, Value: alterations, Minor: minor}
}

// Clone returns a copy that shares no payload with e
func (e Event) Clone() Event {
	if e.Data != nil {
		e.Data = append([]byte(nil), e.Data...)
	}
	return e
}

// String renders the variant fields of the event
func (e Event) String() string {
	switch e.Kind {
	case KindNoteOn, KindNoteOff:
		return fmt.Sprintf("%s ch=%d key=%d vel=%d", e.Kind, e.Channel, e.Data1, e.Data2)
	case KindKeyPress:
		return fmt.Sprintf("%s ch=%d key=%d pressure=%d", e.Kind, e.Channel, e.Data1, e.Data2)
	case KindController:
		return fmt.Sprintf("%s ch=%d cc=%d value=%d", e.Kind, e.Channel, e.Data1, e.Data2)
	case KindProgramChange:
		return fmt.Sprintf("%s ch=%d program=%d", e.Kind, e.Channel, e.Data1)
	case KindChannelPressure:
		return fmt.Sprintf("%s ch=%d pressure=%d", e.Kind, e.Channel, e.Data1)
	case KindPitchBend:
		return fmt.Sprintf("%s ch=%d value=%d", e.Kind, e.Channel, e.Value)
	case KindSysEx:
		return fmt.Sprintf("%s % X", e.Kind, e.Data)
	case KindText:
		return fmt.Sprintf("%s %s %q", e.Kind, e.Text, e.Data)
	case KindTempo:
		return fmt.Sprintf("%s %d", e.Kind, e.Value)
	case KindTimeSignature:
		return fmt.Sprintf("%s %d/%d", e.Kind, e.Data1, 1<<e.Data2)
	case KindKeySignature:
		mode := "major"
		if e.Minor {
			mode = "minor"
		}
		return fmt.Sprintf("%s %d %s", e.Kind, e.Value, mode)
	}
	return e.Kind.String()
}
