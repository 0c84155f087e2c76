package converter

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"golang.org/x/text/encoding"

	"github.com/james-see/wrk2mid/pkg/converter/wrk"
)

const (
	defaultDivision = 120
	defaultTempo    = 500000.0

	MinTempoFactor = 0.1
	MaxTempoFactor = 10.0
)

// Sequence is the in-memory result of translating one .wrk song.
// It is not safe for concurrent use.
type Sequence struct {
	log     *slog.Logger
	decoder *encoding.Decoder

	format        int
	division      int
	tempo         float64 // 500000 until a tempo at tick 0 replaces it with its BPM
	tempoFactor   float64
	ticks2millis  float64
	ticksDuration int64
	curTrack      int
	beatMax       int
	beatLength    int
	lowestNote    int
	highestNote   int
	version       string
	software      string

	timeSigSet   bool
	keySigSet    bool
	copyrightSet bool

	failed   bool
	problems []error

	bars     barTable
	overlays map[int]*trackOverlay
	sysex    sysexBanks
	tracks   map[int][]Event
}

// NewSequence creates an empty sequence producing SMF format 1
func NewSequence(log *slog.Logger) *Sequence {
	if log == nil {
		log = slog.Default()
	}
	s := &Sequence{
		log:         log,
		format:      1,
		tempoFactor: 1.0,
	}
	s.Clear()
	return s
}

// Clear discards every event and resets the per-load state
func (s *Sequence) Clear() {
	s.division = defaultDivision
	s.tempo = defaultTempo
	s.ticksDuration = 0
	s.curTrack = 0
	s.beatMax = 4
	s.beatLength = defaultDivision
	s.lowestNote = 127
	s.highestNote = 0
	s.version = ""
	s.software = ""
	s.timeSigSet = false
	s.keySigSet = false
	s.copyrightSet = false
	s.failed = false
	s.problems = nil
	s.bars.reset()
	s.overlays = make(map[int]*trackOverlay)
	s.sysex = make(sysexBanks)
	s.tracks = make(map[int][]Event)
	s.timeCalculations()
}

// SetFormat selects SMF format 0 or 1. Events already loaded keep their tracks.
func (s *Sequence) SetFormat(format int) error {
	if format != 0 && format != 1 {
		return fmt.Errorf("invalid SMF format %d", format)
	}
	s.format = format
	return nil
}

// Format returns the SMF format of the output
func (s *Sequence) Format() int {
	return s.format
}

// SetTextDecoder sets the codepage decoder applied to text payloads
func (s *Sequence) SetTextDecoder(d *encoding.Decoder) {
	s.decoder = d
}

// SetTempoFactor scales playback timing; values outside [0.1, 10] are ignored
func (s *Sequence) SetTempoFactor(f float64) {
	if f < MinTempoFactor || f > MaxTempoFactor {
		return
	}
	s.tempoFactor = f
	s.timeCalculations()
}

// TempoFactor returns the playback tempo scale
func (s *Sequence) TempoFactor() float64 {
	return s.tempoFactor
}

// CurrentTempo returns the tempo state divided by the tempo factor
func (s *Sequence) CurrentTempo() float64 {
	return s.tempo / s.tempoFactor
}

// Division returns the ticks per quarter note
func (s *Sequence) Division() int {
	return s.division
}

// Version returns the file version of the last load
func (s *Sequence) Version() string {
	return s.version
}

// Software returns the version of the program that saved the file, if recorded
func (s *Sequence) Software() string {
	return s.software
}

// SongLengthTicks returns the last tick reached by any event or stream
func (s *Sequence) SongLengthTicks() int64 {
	return s.ticksDuration
}

// NoteRange returns the lowest and highest source pitch seen
func (s *Sequence) NoteRange() (lowest, highest int, ok bool) {
	if s.lowestNote > s.highestNote {
		return 0, 0, false
	}
	return s.lowestNote, s.highestNote, true
}

// Failed reports whether any error was reported during the last load
func (s *Sequence) Failed() bool {
	return s.failed
}

// Problems returns the errors reported during the last load
func (s *Sequence) Problems() []error {
	return s.problems
}

// IsEmpty reports whether the sequence holds no events
func (s *Sequence) IsEmpty() bool {
	for _, events := range s.tracks {
		if len(events) > 0 {
			return false
		}
	}
	return true
}

func (s *Sequence) timeCalculations() {
	s.ticks2millis = s.tempo / (1000.0 * float64(s.division) * s.tempoFactor)
}

func (s *Sequence) updateTempo(tempo float64) {
	if tempo != s.tempo {
		s.tempo = tempo
		s.timeCalculations()
	}
}

// TimeOfTicks converts a tick count with the current timing state
func (s *Sequence) TimeOfTicks(ticks int64) time.Duration {
	return time.Duration(float64(ticks) * s.ticks2millis * float64(time.Millisecond))
}

// DeltaTimeOfEvent returns the time between an event and the previous one on its track
func (s *Sequence) DeltaTimeOfEvent(ev Event) time.Duration {
	return s.TimeOfTicks(ev.Delta)
}

// Finalize sorts every track by tick, keeping append order for ties, and sets deltas
func (s *Sequence) Finalize() {
	for _, events := range s.tracks {
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].Tick < events[j].Tick
		})
		var last int64
		for i := range events {
			events[i].Delta = events[i].Tick - last
			last = events[i].Tick
		}
	}
}

// Load translates a .wrk image, replacing any previous content
func (s *Sequence) Load(data []byte) error {
	s.Clear()
	if err := wrk.NewReader(s).Decode(data); err != nil {
		s.Clear()
		s.failed = true
		s.problems = append(s.problems, err)
		return fmt.Errorf("%w: %w", ErrCorrupted, err)
	}
	s.Finalize()
	if s.failed {
		return errors.Join(append([]error{ErrLoadFailed}, s.problems...)...)
	}
	s.log.Debug("sequence loaded",
		"version", s.version,
		"division", s.division,
		"tracks", len(s.Tracks()),
		"ticks", s.ticksDuration)
	return nil
}

func tempoMicros(bpm float64) int {
	return int(math.Round(60000000.0 / bpm))
}
