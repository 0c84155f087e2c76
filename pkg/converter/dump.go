package converter

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

type dumpEvent struct {
	Tick  int64  `yaml:"tick"`
	Delta int64  `yaml:"delta"`
	Event string `yaml:"event"`
}

type dumpTrack struct {
	ID     int         `yaml:"id"`
	Events []dumpEvent `yaml:"events"`
}

type dumpDoc struct {
	Version     string      `yaml:"version,omitempty"`
	Software    string      `yaml:"software,omitempty"`
	Format      int         `yaml:"format"`
	Division    int         `yaml:"division"`
	Tempo       float64     `yaml:"tempo"`
	LengthTicks int64       `yaml:"length_ticks"`
	NoteRange   []int       `yaml:"note_range,flow,omitempty"`
	Tracks      []dumpTrack `yaml:"tracks"`
}

// Dump writes the translated song as YAML
func (s *Sequence) Dump(w io.Writer) error {
	doc := dumpDoc{
		Version:     s.version,
		Software:    s.software,
		Format:      s.format,
		Division:    s.division,
		Tempo:       s.CurrentTempo(),
		LengthTicks: s.ticksDuration,
	}
	if lo, hi, ok := s.NoteRange(); ok {
		doc.NoteRange = []int{lo, hi}
	}
	for _, id := range s.Tracks() {
		t := dumpTrack{ID: id}
		for _, ev := range s.tracks[id] {
			t.Events = append(t.Events, dumpEvent{Tick: ev.Tick, Delta: ev.Delta, Event: ev.String()})
		}
		doc.Tracks = append(doc.Tracks, t)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode dump: %w", err)
	}
	return enc.Close()
}
