package converter

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/james-see/wrk2mid/pkg/converter/wrk"
)

func newTestSequence(t *testing.T) *Sequence {
	t.Helper()
	s := NewSequence(slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.FileHeader(3, 0)
	return s
}

func newTrack(number int) wrk.Track {
	return wrk.Track{Number: number, Channel: -1}
}

func TestNoteProducesOnAndOff(t *testing.T) {
	s := newTestSequence(t)
	s.Note(0, 240, 3, 60, 100, 120)
	s.Finalize()

	events := s.Events(1)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	on, off := events[0], events[1]
	if on.Kind != KindNoteOn || on.Tick != 240 {
		t.Errorf("first event = %v at %d, want note-on at 240", on, on.Tick)
	}
	if off.Kind != KindNoteOff || off.Tick != 360 {
		t.Errorf("second event = %v at %d, want note-off at 360", off, off.Tick)
	}
	if on.Channel != off.Channel || on.Data1 != off.Data1 || on.Data2 != off.Data2 {
		t.Errorf("note-on %v and note-off %v differ", on, off)
	}
	if on.Channel != 3 || on.Data1 != 60 || on.Data2 != 100 {
		t.Errorf("note-on = %v, want ch=3 key=60 vel=100", on)
	}
	if off.Delta != 120 {
		t.Errorf("note-off delta = %d, want 120", off.Delta)
	}
}

func TestTrackOverlayAppliesToNotes(t *testing.T) {
	s := newTestSequence(t)
	s.TrackHeader([]byte("Bass"), nil, wrk.Track{Number: 1, Channel: 9, Pitch: 12, Velocity: 40})
	s.Note(1, 0, 0, 120, 100, 10)
	s.KeyPress(1, 5, 0, 120, 30)

	events := s.Events(2)
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}
	if events[0].Kind != KindText || events[0].Text != TextTrackName || string(events[0].Data) != "Bass" {
		t.Errorf("first event = %v, want track name Bass", events[0])
	}
	on := events[1]
	if on.Channel != 9 || on.Data1 != 127 || on.Data2 != 127 {
		t.Errorf("note-on = %v, want ch=9 key=127 vel=127", on)
	}
	press := events[3]
	if press.Channel != 9 || press.Data1 != 120 {
		t.Errorf("key press = %v, want ch=9 key=120 (no transposition)", press)
	}
	if lo, hi, ok := s.NoteRange(); !ok || lo != 120 || hi != 120 {
		t.Errorf("NoteRange() = %d, %d, %v, want 120, 120, true", lo, hi, ok)
	}
}

func TestTrackNameGuard(t *testing.T) {
	s := newTestSequence(t)
	s.NewTrackHeader([]byte("Lead"), newTrack(0))
	s.TrackName(0, []byte("Other"))
	s.TrackName(4, []byte("Pad"))
	s.TrackName(4, []byte("Pad again"))

	if got := len(s.Events(1)); got != 1 {
		t.Errorf("track 1 has %d events, want 1", got)
	}
	events := s.Events(5)
	if len(events) != 1 || string(events[0].Data) != "Pad" {
		t.Errorf("track 5 events = %v, want one Pad name", events)
	}
}

func TestUnnamedTrackHeader(t *testing.T) {
	s := newTestSequence(t)
	s.NewTrackHeader([]byte("  "), newTrack(2))
	s.TrackName(2, []byte("Strings"))

	events := s.Events(3)
	if len(events) != 1 || string(events[0].Data) != "Strings" {
		t.Errorf("track 3 events = %v, want the Strings name", events)
	}
}

func TestTempo(t *testing.T) {
	s := newTestSequence(t)
	s.Tempo(0, 12000)

	events := s.Events(0)
	if len(events) != 1 || events[0].Kind != KindTempo || events[0].Value != 500000 {
		t.Fatalf("events = %v, want tempo 500000", events)
	}
	if got := s.CurrentTempo(); got != 120 {
		t.Errorf("CurrentTempo() = %v, want 120", got)
	}

	s.Tempo(480, 9000)
	if got := s.CurrentTempo(); got != 120 {
		t.Errorf("CurrentTempo() after tick 480 tempo = %v, want 120", got)
	}
	if got := s.Events(0)[1].Value; got != 666667 {
		t.Errorf("90 BPM tempo = %d, want 666667", got)
	}
}

func TestTempoFollowsTrackContext(t *testing.T) {
	s := newTestSequence(t)
	s.NewTrackHeader(nil, newTrack(4))
	s.Tempo(0, 14000)
	if got := len(s.Events(5)); got != 1 {
		t.Errorf("track 5 has %d events, want the tempo", got)
	}
}

func TestTimeSignature(t *testing.T) {
	tests := []struct {
		num, den int
		wantExp  uint8
	}{
		{4, 4, 2},
		{3, 8, 3},
		{6, 16, 4},
		{2, 2, 1},
		{5, 1, 0},
	}

	for _, tt := range tests {
		s := newTestSequence(t)
		s.TimeSignature(0, tt.num, tt.den)
		events := s.Events(0)
		if len(events) != 1 {
			t.Fatalf("%d/%d: got %d events, want 1", tt.num, tt.den, len(events))
		}
		ev := events[0]
		if ev.Kind != KindTimeSignature || int(ev.Data1) != tt.num || ev.Data2 != tt.wantExp {
			t.Errorf("%d/%d: got %v, want exponent %d", tt.num, tt.den, ev, tt.wantExp)
		}
	}
}

func TestSignaturesFirstWins(t *testing.T) {
	s := newTestSequence(t)
	s.TimeSignature(0, 3, 4)
	s.TimeSignature(4, 6, 8)
	s.KeySignature(0, -3)
	s.KeySignature(0, 2)

	events := s.Events(0)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Data1 != 3 {
		t.Errorf("time signature = %v, want 3/4", events[0])
	}
	if events[1].Kind != KindKeySignature || events[1].Value != -3 || events[1].Minor {
		t.Errorf("key signature = %v, want -3 major", events[1])
	}
}

func TestKeySignatureUsesBarTable(t *testing.T) {
	s := newTestSequence(t)
	s.bars.resolve(0, 4, 4, s.division)
	s.bars.resolve(2, 4, 4, s.division)
	s.KeySignature(2, 1)

	events := s.Events(0)
	if len(events) != 1 || events[0].Tick != 960 {
		t.Errorf("key signature events = %v, want one at tick 960", events)
	}
}

func TestGlobalVarsKeySignature(t *testing.T) {
	s := newTestSequence(t)
	s.GlobalVars(wrk.GlobalVars{KeySig: 4})
	events := s.Events(0)
	if len(events) != 1 || events[0].Value != 4 || events[0].Tick != 0 {
		t.Errorf("events = %v, want key signature 4 at tick 0", events)
	}
}

func TestTrackVolume(t *testing.T) {
	tests := []struct {
		name string
		vol  int
		want [][2]uint8
	}{
		{"msb only", 100, [][2]uint8{{7, 100}}},
		{"lsb then msb", 200, [][2]uint8{{39, 72}, {7, 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSequence(t)
			s.TrackVolume(2, tt.vol)
			events := s.Events(3)
			if len(events) != len(tt.want) {
				t.Fatalf("got %d events, want %d", len(events), len(tt.want))
			}
			for i, w := range tt.want {
				ev := events[i]
				if ev.Kind != KindController || ev.Data1 != w[0] || ev.Data2 != w[1] || ev.Tick != 0 {
					t.Errorf("event %d = %v, want cc=%d value=%d", i, ev, w[0], w[1])
				}
			}
		})
	}
}

func TestTrackBankAndPatch(t *testing.T) {
	s := newTestSequence(t)
	s.NewTrackHeader(nil, wrk.Track{Number: 0, Channel: 5})
	s.TrackBank(0, 300)
	s.TrackPatch(0, 17)
	s.TrackPatch(0, 200)

	events := s.Events(1)
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[0].Data1 != 0 || events[0].Data2 != 2 || events[0].Channel != 5 {
		t.Errorf("bank msb = %v, want cc=0 value=2 on ch 5", events[0])
	}
	if events[1].Data1 != 32 || events[1].Data2 != 44 {
		t.Errorf("bank lsb = %v, want cc=32 value=44", events[1])
	}
	if events[2].Kind != KindProgramChange || events[2].Data1 != 17 || events[2].Channel != 5 {
		t.Errorf("program = %v, want program 17 on ch 5", events[2])
	}
}

func TestProgramOutOfRangeDropped(t *testing.T) {
	s := newTestSequence(t)
	s.Program(0, 0, 0, -1)
	s.Program(0, 0, 0, 128)
	if !s.IsEmpty() {
		t.Errorf("out of range programs produced events: %v", s.Events(1))
	}
}

func TestPitchBendClamped(t *testing.T) {
	s := newTestSequence(t)
	s.PitchBend(0, 0, 1, 9000)
	s.PitchBend(0, 0, 1, -9000)
	events := s.Events(1)
	if events[0].Value != 8191 || events[1].Value != -8192 {
		t.Errorf("pitch bends = %v, want 8191 and -8192", events)
	}
}

func TestSysex(t *testing.T) {
	s := newTestSequence(t)
	reset := []byte{0xF0, 0x7E, 0x7F, 0x09, 0x01, 0xF7}
	s.NewTrackHeader(nil, newTrack(3))
	s.SysexBank(1, "GM reset", true, 0, reset)
	s.SysexBank(2, "manual", false, 0, []byte{0xF0, 0x43, 0x10, 0xF7})
	s.SysexEvent(3, 100, 1)
	s.SysexEvent(3, 200, 1)
	s.SysexEvent(3, 300, 9)

	if s.Failed() {
		t.Error("unresolved sysex reference set the failure flag")
	}
	auto := s.Events(0)
	if len(auto) != 1 || auto[0].Kind != KindSysEx || auto[0].Tick != 0 {
		t.Fatalf("track 0 = %v, want the auto-sent bank at tick 0", auto)
	}
	refs := s.Events(4)
	if len(refs) != 2 {
		t.Fatalf("track 4 has %d events, want 2", len(refs))
	}
	refs[0].Data[1] = 0x00
	if refs[1].Data[1] != 0x7E || auto[0].Data[1] != 0x7E {
		t.Error("sysex replays share their payload")
	}
	if s.curTrack != 4 {
		t.Errorf("current track = %d, want 4", s.curTrack)
	}
}

func TestMetadataRouting(t *testing.T) {
	s := newTestSequence(t)
	s.Text(2, 10, 0, []byte("la"))
	s.Comments([]byte("notes"))
	s.Marker(50, 0, []byte("Verse"))
	s.Marker(60, 0, nil)
	s.Segment(2, 70, []byte("Intro"))
	s.Segment(2, 80, nil)
	s.Chord(2, 90, "Cmaj7", nil)
	s.Expression(2, 100, 1, []byte("ff"))

	tests := []struct {
		track int
		tick  int64
		text  TextType
		data  string
	}{
		{3, 10, TextLyric, "la"},
		{1, 0, TextText, "notes"},
		{1, 50, TextMarker, "Verse"},
		{3, 70, TextMarker, "Intro"},
		{3, 90, TextCue, "Cmaj7"},
		{3, 100, TextCue, "ff"},
	}

	got := map[int][]Event{1: s.Events(1), 3: s.Events(3)}
	seen := map[int]int{}
	for _, tt := range tests {
		i := seen[tt.track]
		seen[tt.track]++
		if i >= len(got[tt.track]) {
			t.Fatalf("track %d is missing %q", tt.track, tt.data)
		}
		ev := got[tt.track][i]
		if ev.Tick != tt.tick || ev.Text != tt.text || string(ev.Data) != tt.data {
			t.Errorf("track %d event %d = %v at %d, want %s %q at %d", tt.track, i, ev, ev.Tick, tt.text, tt.data, tt.tick)
		}
	}
	if len(got[1]) != 2 || len(got[3]) != 4 {
		t.Errorf("got %d and %d events, want 2 and 4", len(got[1]), len(got[3]))
	}
}

func TestVariableRecords(t *testing.T) {
	s := newTestSequence(t)
	s.VariableRecord("Title", []byte("Song"))
	s.VariableRecord("Author", []byte("Me"))
	s.VariableRecord("Copyright", []byte("Someone else"))
	s.VariableRecord("Keywords", []byte("demo"))
	s.VariableRecord("Tempo Map", []byte("ignored"))

	want := []struct {
		text TextType
		data string
	}{
		{TextTrackName, "Song"},
		{TextCopyright, "Me"},
		{TextText, "demo"},
	}
	events := s.Events(0)
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d: %v", len(events), len(want), events)
	}
	for i, w := range want {
		if events[i].Text != w.text || string(events[i].Data) != w.data {
			t.Errorf("event %d = %v, want %s %q", i, events[i], w.text, w.data)
		}
	}
}

func TestTextDecoding(t *testing.T) {
	s := newTestSequence(t)
	dec, err := textDecoder("windows-1252")
	if err != nil {
		t.Fatal(err)
	}
	s.SetTextDecoder(dec)
	s.Comments([]byte{'C', 'a', 'f', 0xE9})
	if got := string(s.Events(1)[0].Data); got != "Café" {
		t.Errorf("decoded comment = %q, want %q", got, "Café")
	}
}

func TestFormatZeroRouting(t *testing.T) {
	s := newTestSequence(t)
	if err := s.SetFormat(0); err != nil {
		t.Fatal(err)
	}
	s.Note(0, 0, 0, 60, 100, 10)
	s.Note(1, 5, 1, 62, 100, 10)
	s.Comments([]byte("x"))
	s.Finalize()

	if ids := s.Tracks(); len(ids) != 1 || ids[0] != 0 {
		t.Fatalf("Tracks() = %v, want [0]", ids)
	}
	events := s.Events(0)
	if len(events) != 5 {
		t.Fatalf("got %d events, want 5", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].Tick < events[i-1].Tick {
			t.Errorf("event %d at %d precedes event %d at %d", i, events[i].Tick, i-1, events[i-1].Tick)
		}
	}
}

func TestErrorSetsFailure(t *testing.T) {
	s := newTestSequence(t)
	s.Error("corrupted TRACK chunk", 42)
	if !s.Failed() {
		t.Error("Failed() = false after Error")
	}
	problems := s.Problems()
	if len(problems) != 1 || problems[0].Error() != "corrupted TRACK chunk at file offset 42" {
		t.Errorf("Problems() = %v", problems)
	}
	s.Clear()
	if s.Failed() {
		t.Error("Clear() kept the failure flag")
	}
}

func TestStreamEndExtendsLength(t *testing.T) {
	s := newTestSequence(t)
	s.Note(0, 0, 0, 60, 100, 10)
	s.StreamEnd(1920)
	s.StreamEnd(100)
	if got := s.SongLengthTicks(); got != 1920 {
		t.Errorf("SongLengthTicks() = %d, want 1920", got)
	}
}

func TestTimeOfTicks(t *testing.T) {
	s := newTestSequence(t)
	s.TimeBase(480)
	s.Tempo(0, 12000)
	// 120 as the tempo state gives 120/(1000*480) ms per tick
	got := s.TimeOfTicks(4000)
	if d := got - time.Millisecond; d < -time.Microsecond || d > time.Microsecond {
		t.Errorf("TimeOfTicks(4000) = %v, want 1ms", got)
	}
	s.SetTempoFactor(2)
	if tempo := s.CurrentTempo(); tempo != 60 {
		t.Errorf("CurrentTempo() = %v, want 60", tempo)
	}
	s.SetTempoFactor(20)
	if f := s.TempoFactor(); f != 2 {
		t.Errorf("TempoFactor() = %v after out of range set, want 2", f)
	}
}

func TestDeltaTimeOfEvent(t *testing.T) {
	s := newTestSequence(t)
	s.TimeBase(480)
	s.Controller(0, 480, 0, 7, 100)
	s.Controller(0, 480, 0, 10, 64)
	s.Finalize()

	events := s.Events(1)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	got := s.DeltaTimeOfEvent(events[0])
	if d := got - 500*time.Millisecond; d < -time.Microsecond || d > time.Microsecond {
		t.Errorf("DeltaTimeOfEvent(first) = %v, want 500ms", got)
	}
	if got = s.DeltaTimeOfEvent(events[1]); got != 0 {
		t.Errorf("DeltaTimeOfEvent(second) = %v, want 0", got)
	}
}
