package converter

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Format represents a file format
type Format string

const (
	FormatWRK     Format = "wrk"
	FormatMIDI    Format = "midi"
	FormatUnknown Format = "unknown"
)

var (
	// ErrWrongFileType is returned for input files without a .wrk extension
	ErrWrongFileType = errors.New("wrong file type")
	// ErrCorrupted is returned when the input could not be decoded at all
	ErrCorrupted = errors.New("corrupted WRK file")
	// ErrLoadFailed is returned when errors were reported while loading
	ErrLoadFailed = errors.New("WRK load failed")
	// ErrNoTracks is returned when writing a song that translated to no events
	ErrNoTracks = errors.New("no tracks to write")
)

// DetectFormat detects the format of a file based on its extension
func DetectFormat(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".wrk":
		return FormatWRK
	case ".mid", ".midi":
		return FormatMIDI
	default:
		return FormatUnknown
	}
}

// Options configures a Converter
type Options struct {
	Format      int     // SMF format, 0 or 1
	Encoding    string  // Codepage of text payloads, empty keeps bytes as they are
	TempoFactor float64 // Zero means 1.0
	Logger      *slog.Logger
}

// DefaultOptions returns options producing SMF format 1
func DefaultOptions() Options {
	return Options{Format: 1, TempoFactor: 1.0}
}

// Converter handles format conversions
type Converter struct {
	opts Options
	seq  *Sequence
	log  *slog.Logger
}

// New creates a Converter
func New(opts Options) (*Converter, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	seq := NewSequence(log)
	if err := seq.SetFormat(opts.Format); err != nil {
		return nil, err
	}
	dec, err := textDecoder(opts.Encoding)
	if err != nil {
		return nil, err
	}
	seq.SetTextDecoder(dec)
	if opts.TempoFactor != 0 {
		if opts.TempoFactor < MinTempoFactor || opts.TempoFactor > MaxTempoFactor {
			return nil, fmt.Errorf("tempo factor %g out of range [%g, %g]", opts.TempoFactor, MinTempoFactor, MaxTempoFactor)
		}
		seq.SetTempoFactor(opts.TempoFactor)
	}
	return &Converter{opts: opts, seq: seq, log: log}, nil
}

// Sequence returns the translated song
func (c *Converter) Sequence() *Sequence {
	return c.seq
}

// Load translates .wrk data
func (c *Converter) Load(data []byte) error {
	return c.seq.Load(data)
}

// LoadFile translates a .wrk file
func (c *Converter) LoadFile(path string) error {
	if DetectFormat(path) != FormatWRK {
		return fmt.Errorf("%w: %s", ErrWrongFileType, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}
	if err := c.Load(data); err != nil {
		return err
	}
	c.log.Info("loaded WRK file",
		"file", path,
		"version", c.seq.Version(),
		"tracks", len(c.seq.Tracks()),
		"ticks", c.seq.SongLengthTicks())
	return nil
}

// WRKToMIDI converts .wrk data to a Standard MIDI File
func (c *Converter) WRKToMIDI(data []byte) ([]byte, error) {
	if err := c.Load(data); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := c.seq.WriteMIDI(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ConvertFile converts a .wrk file into a .mid file
func (c *Converter) ConvertFile(inputPath, outputPath string) error {
	if err := c.LoadFile(inputPath); err != nil {
		return err
	}
	if err := c.seq.SaveMIDIFile(outputPath); err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}
	c.log.Info("wrote MIDI file", "file", outputPath, "format", c.seq.Format())
	return nil
}

// OutputPath replaces the extension of a .wrk path with .mid
func OutputPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + ".mid"
}

// GetSupportedConversions returns a list of supported conversion paths
func GetSupportedConversions() []string {
	return []string{
		"wrk -> midi (SMF 0)",
		"wrk -> midi (SMF 1)",
	}
}
