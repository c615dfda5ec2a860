package cmd

import (
	"fmt"
	"os"

	"github.com/soundbenchlab/tracktape/internal/audio"
	"github.com/soundbenchlab/tracktape/internal/config"

	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check recording prerequisites",
	RunE: func(cmd *cobra.Command, args []string) error {
		ok := true

		ffmpegPath, err := audio.ResolveFFmpeg(ffmpegFlag)
		if err != nil {
			setupCheck("ffmpeg", false, "not found. Install with: brew install ffmpeg")
			ok = false
		} else {
			setupCheck("ffmpeg", true, ffmpegPath)
		}

		if err == nil {
			version, verr := audio.FFmpegVersion(ffmpegPath)
			switch {
			case verr != nil:
				setupCheck("FFmpeg version", false, "could not read ffmpeg -version output")
				ok = false
			case !audio.VersionSupported(version):
				setupCheck("FFmpeg version", false, fmt.Sprintf("%s (need %s or newer)", version, audio.MinFFmpegVersion))
				ok = false
			default:
				setupCheck("FFmpeg version", true, version)
			}

			devices := audio.ListDevices(ffmpegPath)
			if len(devices) == 1 && devices[0] == audio.PlaceholderDevice {
				setupCheck("Capture devices", false, "none found. Is an input device connected and microphone access allowed?")
				ok = false
			} else {
				setupCheck("Capture devices", true, fmt.Sprintf("%d found", len(devices)))
			}
		} else {
			setupCheck("FFmpeg version", false, "skipped (ffmpeg not found)")
			setupCheck("Capture devices", false, "skipped (ffmpeg not found)")
		}

		settingsPath := config.ResolvePath(settingsFile)
		if _, serr := os.Stat(settingsPath); serr != nil {
			setupCheck("Settings document", true, settingsPath+" (not present, defaults in use)")
		} else if _, lerr := config.Load(settingsPath); lerr != nil {
			setupCheck("Settings document", false, fmt.Sprintf("%s (%v)", settingsPath, lerr))
			ok = false
		} else {
			setupCheck("Settings document", true, settingsPath)
		}

		destination := resolveDestination()
		if info, derr := os.Stat(destination); derr != nil {
			setupCheck("Destination folder", true, destination+" (will be created on first recording)")
		} else if !info.IsDir() {
			setupCheck("Destination folder", false, destination+" exists but is not a directory")
			ok = false
		} else {
			setupCheck("Destination folder", true, destination)
		}

		if ok {
			fmt.Println("\n✅ All checks passed. Ready to record!")
		} else {
			fmt.Println("\n⚠️  Some checks failed.")
		}
		return nil
	},
}

func setupCheck(name string, ok bool, detail string) {
	if ok {
		fmt.Printf("  ✅ %s: %s\n", name, detail)
	} else {
		fmt.Printf("  ❌ %s: %s\n", name, detail)
	}
}

// resolveDestination mirrors the session's destination resolution without
// needing FFmpeg
func resolveDestination() string {
	if outputDir != "" {
		return outputDir
	}
	if settings != nil && settings.DestinationFolder != nil && *settings.DestinationFolder != "" {
		return *settings.DestinationFolder
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}
