// Package wrk decodes Cakewalk .wrk project files into a stream of structural callbacks
package wrk

// Track holds the per-track parameters found in a track header chunk
type Track struct {
	Number   int // Source track number (0-based)
	Channel  int // Forced channel, -1 when the track keeps each event's channel
	Pitch    int // Transposition in semitones
	Velocity int // Velocity offset
	Port     int
	Selected bool
	Muted    bool
	Loop     bool
}

// GlobalVars holds the song-wide settings of the VARS chunk
type GlobalVars struct {
	Now         int64
	From        int64
	Thru        int64
	KeySig      int // Alterations: negative for flats, positive for sharps
	Clock       int
	AutoSave    int
	PlayDelay   int
	ZeroCtrls   bool
	SendSPP     bool
	SendCont    bool
	PatchSearch bool
	AutoStop    bool
	StopTime    int64
	AutoRewind  bool
	RewindTime  int64
	MetroPlay   bool
	MetroRecord bool
	MetroAccent bool
	CountIn     int
	ThruOn      bool
}

// Handler receives the decoded contents of a .wrk file in file order.
// Every call completes before the reader decodes the next item.
type Handler interface {
	FileHeader(verh, verl int)
	TimeBase(ticks int)
	GlobalVars(vars GlobalVars)
	SoftwareVersion(version string)

	TrackHeader(name1, name2 []byte, track Track)
	NewTrackHeader(name []byte, track Track)
	TrackName(track int, name []byte)
	TrackVolume(track, vol int)
	TrackBank(track, bank int)
	TrackPatch(track, patch int)

	Note(track int, time int64, channel, pitch, vol, dur int)
	KeyPress(track int, time int64, channel, pitch, press int)
	Controller(track int, time int64, channel, ctl, value int)
	PitchBend(track int, time int64, channel, value int)
	Program(track int, time int64, channel, patch int)
	ChanPress(track int, time int64, channel, press int)

	SysexBank(bank int, name string, autosend bool, port int, data []byte)
	SysexEvent(track int, time int64, bank int)

	Text(track int, time int64, kind int, data []byte)
	Comments(data []byte)
	VariableRecord(name string, data []byte)
	Marker(time int64, smpte int, data []byte)
	Segment(track int, time int64, name []byte)
	Chord(track int, time int64, name string, data []byte)
	Expression(track int, time int64, code int, text []byte)

	Tempo(time int64, tempo int)
	TimeSignature(bar, num, den int)
	KeySignature(bar, alt int)

	StreamEnd(time int64)
	EndOfFile()
	UnknownChunk(id int, offset int64)

	// Error reports a recoverable problem. Decoding continues with the next chunk.
	Error(msg string, offset int64)
}
