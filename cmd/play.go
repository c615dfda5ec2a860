package cmd

import (
	"fmt"

	"github.com/soundbenchlab/tracktape/internal/play"
	"github.com/soundbenchlab/tracktape/internal/service"

	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play [file]",
	Short: "Play a recording",
	Long: `Play a recorded WAV file with the first available audio player.
Will attempt afplay, then ffplay, mpv and VLC. Without an argument the
newest recording in the destination folder is played.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		audioFile, err := resolvePlayTarget(args)
		if err != nil {
			return err
		}

		fmt.Printf("Playing: %s\n", audioFile)

		if err := play.New().Play(audioFile); err != nil {
			return fmt.Errorf("playback failed: %w", err)
		}

		return nil
	},
}

// resolvePlayTarget picks the explicit file argument or the newest take in
// the destination folder. Finding the folder does not need FFmpeg, so
// device enumeration is skipped entirely.
func resolvePlayTarget(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	return service.LatestRecordingIn(resolveDestination())
}
