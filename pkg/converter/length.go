package converter

import (
	"bytes"
	"fmt"
	"time"

	"github.com/sinshu/go-meltysynth/meltysynth"
)

// PlaybackLength returns how long a Standard MIDI File plays
func PlaybackLength(data []byte) (time.Duration, error) {
	mf, err := meltysynth.NewMidiFile(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("failed to parse MIDI: %w", err)
	}
	return mf.GetLength(), nil
}
