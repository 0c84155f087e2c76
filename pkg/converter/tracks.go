package converter

import (
	"sort"
)

// trackOverlay holds the per-track adjustments of a source track header
type trackOverlay struct {
	channel  int // -1 keeps each event's own channel
	pitch    int
	velocity int
	named    bool
}

func newOverlay() *trackOverlay {
	return &trackOverlay{channel: -1}
}

// channelFor applies the forced channel, if any
func (o *trackOverlay) channelFor(channel int) int {
	if o.channel >= 0 {
		return o.channel
	}
	return channel
}

// overlay returns the overlay of an output track, creating an empty one
func (s *Sequence) overlay(id int) *trackOverlay {
	o, ok := s.overlays[id]
	if !ok {
		o = newOverlay()
		s.overlays[id] = o
	}
	return o
}

// overlayOf returns the overlay of an output track without creating it
func (s *Sequence) overlayOf(id int) *trackOverlay {
	if o, ok := s.overlays[id]; ok {
		return o
	}
	return &noOverlay
}

var noOverlay = trackOverlay{channel: -1}

// defaultChannel is the channel used by track level settings
func (s *Sequence) defaultChannel(id int) int {
	return s.overlayOf(id).channelFor(0)
}

// appendEvent stores ev at tick in the bucket of track
func (s *Sequence) appendEvent(track int, tick int64, ev Event) {
	if s.format == 0 {
		track = 0
	}
	ev.Tick = tick
	ev.Track = track
	s.tracks[track] = append(s.tracks[track], ev)
	if tick > s.ticksDuration {
		s.ticksDuration = tick
	}
}

// Tracks returns the ids of the tracks written to the output, ascending
func (s *Sequence) Tracks() []int {
	if s.format == 0 {
		if len(s.tracks[0]) == 0 {
			return nil
		}
		return []int{0}
	}
	ids := make([]int, 0, len(s.tracks))
	for id, events := range s.tracks {
		if len(events) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

// Events returns the events of one output track
func (s *Sequence) Events(track int) []Event {
	return s.tracks[track]
}
