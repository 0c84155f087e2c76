// Package main is the entry point for the wrk2mid CLI
package main

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/james-see/wrk2mid/pkg/api"
	"github.com/james-see/wrk2mid/pkg/converter"
	"github.com/james-see/wrk2mid/pkg/logger"
	"github.com/james-see/wrk2mid/pkg/tui"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const logLevelEnv = "WRK2MID_LOG_LEVEL"

var (
	outputFile  string
	smfFormat   int
	testOnly    bool
	textCharset string
	tempoFactor float64
	logLevel    string
	serverPort  int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "wrk2mid <input.wrk>",
	Short: "Convert Cakewalk WRK songs to Standard MIDI Files",
	Long: `wrk2mid converts Cakewalk .wrk project files into Standard MIDI Files.

Notes, controllers, tempo and meter changes, sysex banks, lyrics, markers
and song information are carried over. Format 1 keeps one MIDI track per
Cakewalk track; format 0 merges everything into a single track.

Examples:
  wrk2mid song.wrk
  wrk2mid -f 0 -o merged.mid song.wrk
  wrk2mid --test song.wrk
  wrk2mid dump song.wrk
  wrk2mid tui
  wrk2mid serve --port 8080`,
	Version:           fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	Args:              cobra.ExactArgs(1),
	PersistentPreRunE: setup,
	RunE:              runConvert,
	SilenceErrors:     true,
	SilenceUsage:      true,
}

var dumpCmd = &cobra.Command{
	Use:   "dump <input.wrk>",
	Short: "Print the translated events as YAML",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().IntVarP(&smfFormat, "format", "f", 1, "SMF output format (0 or 1)")
	rootCmd.PersistentFlags().StringVar(&textCharset, "encoding", "", "Codepage of song texts (shift-jis, windows-1252, iso-8859-1)")
	rootCmd.PersistentFlags().Float64Var(&tempoFactor, "tempo-factor", 1.0, "Playback tempo scale used for timing reports (0.1 to 10)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "Log level: debug, info, warn, error (default from $"+logLevelEnv+" or warn)")

	// Conversion flags
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .mid file path")
	rootCmd.Flags().BoolVarP(&testOnly, "test", "t", false, "Load and check the file without writing output")

	// serve command
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "Server port")

	// Add commands
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	level := logLevel
	if level == "" {
		level = os.Getenv(logLevelEnv)
	}
	if level == "" {
		level = "warn"
	}
	if err := logger.InitLogger(level); err != nil {
		return err
	}
	if smfFormat != 0 && smfFormat != 1 {
		logger.GetLogger().Warn("invalid SMF format, using 1", "format", smfFormat)
		smfFormat = 1
	}
	return nil
}

func newConverter() (*converter.Converter, error) {
	return converter.New(converter.Options{
		Format:      smfFormat,
		Encoding:    textCharset,
		TempoFactor: tempoFactor,
		Logger:      logger.GetLogger(),
	})
}

func getOutputPath(input string) string {
	if outputFile != "" {
		return outputFile
	}
	return converter.OutputPath(input)
}

func runConvert(cmd *cobra.Command, args []string) error {
	input := args[0]
	conv, err := newConverter()
	if err != nil {
		return err
	}
	if err := conv.LoadFile(input); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := conv.Sequence().WriteMIDI(&buf); err != nil {
		return err
	}

	if testOnly {
		fmt.Printf("%s: OK\n", input)
		report(conv, buf.Bytes())
		return nil
	}

	output := getOutputPath(input)
	if err := os.WriteFile(output, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Printf("Converted %s -> %s\n", input, output)
	report(conv, buf.Bytes())
	return nil
}

// report prints what the produced file holds
func report(conv *converter.Converter, data []byte) {
	seq := conv.Sequence()
	sum, err := converter.SummarizeMIDI(data)
	if err != nil {
		logger.GetLogger().Warn("could not read back output", "error", err)
		return
	}
	fmt.Printf("  SMF format %d, %d tracks, %d notes, division %d\n", sum.Format, sum.Tracks, sum.Notes, sum.Division)
	if lo, hi, ok := seq.NoteRange(); ok {
		fmt.Printf("  Note range %d-%d\n", lo, hi)
	}
	if length, err := converter.PlaybackLength(data); err == nil {
		fmt.Printf("  Length %s (%d ticks)\n", length.Round(time.Millisecond), seq.SongLengthTicks())
	}
}

func runDump(cmd *cobra.Command, args []string) error {
	conv, err := newConverter()
	if err != nil {
		return err
	}
	if err := conv.LoadFile(args[0]); err != nil {
		return err
	}
	return conv.Sequence().Dump(os.Stdout)
}

func runTUI(cmd *cobra.Command, args []string) error {
	return tui.Run()
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Printf("Starting API server on port %d...\n", serverPort)
	return api.StartServer(serverPort)
}
