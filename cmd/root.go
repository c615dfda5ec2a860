package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/soundbenchlab/tracktape/internal/audio"
	"github.com/soundbenchlab/tracktape/internal/config"
	"github.com/soundbenchlab/tracktape/internal/notify"
	"github.com/soundbenchlab/tracktape/internal/service"

	"github.com/spf13/cobra"
)

var (
	settings     *config.Settings
	settingsFile string
	ffmpegFlag   string
	outputDir    string
	verboseLevel int
)

var rootCmd = &cobra.Command{
	Use:   "tracktape",
	Short: "Desktop audio recorder for macOS capture devices",
	Long: `TrackTape records audio from macOS capture devices through FFmpeg's
AVFoundation input. It handles multichannel interfaces and loopback
drivers such as BlackHole, with per-channel mono and stereo-pair
down-mixing.

Without a subcommand it opens the interactive recording panel.`,
	Args: cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Configure slog based on verbose level
		setupLogging(verboseLevel)

		// A broken settings document never blocks the tool, the
		// defaults still work
		var err error
		settings, err = config.Load(config.ResolvePath(settingsFile))
		if err != nil {
			slog.Warn("Could not load settings, continuing with defaults", "error", err)
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return panelCmd.RunE(cmd, args)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsFile, "settings", "", "settings file (default is ./"+config.DefaultSettingsFile+")")
	rootCmd.PersistentFlags().StringVar(&ffmpegFlag, "ffmpeg", "", "path to the ffmpeg binary (default is ffmpeg on PATH)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "destination folder for recordings (overrides settings)")
	rootCmd.PersistentFlags().IntVarP(&verboseLevel, "verbose", "v", 0, "verbose level: 0=info, 1=debug, 2=ffmpeg output, 3=max tracing")

	// Add subcommands
	rootCmd.AddCommand(panelCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(doctorCmd)
}

// newSession resolves FFmpeg, enumerates devices and builds a session with
// the loaded settings applied. Shared by every recording-capable command.
func newSession() (service.Service, error) {
	ffmpegPath, err := audio.ResolveFFmpeg(ffmpegFlag)
	if err != nil {
		return nil, fmt.Errorf("%w (install it with: brew install ffmpeg)", err)
	}

	if version, verr := audio.FFmpegVersion(ffmpegPath); verr == nil {
		if !audio.VersionSupported(version) {
			slog.Warn("FFmpeg version may be too old for AVFoundation capture",
				"version", version, "minimum", audio.MinFFmpegVersion)
		}
	}

	devices := audio.ListDevices(ffmpegPath)

	// Level 2 streams FFmpeg's own output to the terminal
	var logWriter io.Writer = io.Discard
	if verboseLevel >= 2 {
		logWriter = os.Stderr
	}

	recorder := audio.NewAVFoundationRecorder(ffmpegPath, logWriter)
	svc := service.New(devices, recorder, notify.New())
	svc.ApplySettings(settings)

	if outputDir != "" {
		svc.SetDestination(outputDir)
	}

	return svc, nil
}

// setupLogging configures slog based on the verbose level
func setupLogging(level int) {
	var slogLevel slog.Level
	switch level {
	case 0:
		slogLevel = slog.LevelInfo
	case 1:
		slogLevel = slog.LevelDebug
	case 2, 3:
		// Level 2 and 3 both use Debug level for slog
		// Level 3 additionally makes FFmpeg write a report file
		slogLevel = slog.LevelDebug
	default:
		slogLevel = slog.LevelInfo
	}

	// Configure text handler for clean terminal output
	opts := &slog.HandlerOptions{
		Level: slogLevel,
	}
	handler := slog.NewTextHandler(os.Stderr, opts)
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// Maximum tracing (level 3) asks FFmpeg for a full report file
	if level >= 3 {
		os.Setenv("FFREPORT", "file=tracktape-ffmpeg.log:level=40")
	}
}
