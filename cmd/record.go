package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/soundbenchlab/tracktape/internal/audio"
	"github.com/soundbenchlab/tracktape/internal/mix"
	"github.com/soundbenchlab/tracktape/internal/play"

	"github.com/spf13/cobra"
)

var (
	recordDevice      string
	recordStream      int
	recordChannels    string
	recordMode        string
	recordMonoChannel int
	recordStereoPair  string
	recordName        string
	recordPlay        bool
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record from a capture device until interrupted",
	Long: `Start a recording with the saved settings, optionally overridden by
flags, and keep capturing until Ctrl+C. The take is written as a WAV
file named after the start timestamp.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newSession()
		if err != nil {
			return err
		}
		defer svc.Cleanup()

		// Flags override the settings document only when actually set
		if cmd.Flags().Changed("device") {
			if !svc.SelectDeviceByIndex(recordDevice) {
				return fmt.Errorf("no capture device with index %s", recordDevice)
			}
		}
		if cmd.Flags().Changed("stream") {
			svc.SetStreamIndex(recordStream)
		}
		if cmd.Flags().Changed("channels") {
			svc.SetTotalChannels(recordChannels)
		}
		if cmd.Flags().Changed("mode") {
			mode, ok := mix.ParseMode(recordMode)
			if !ok {
				return fmt.Errorf("unknown record mode %q (valid: mono, stereo, multichannel)", recordMode)
			}
			svc.SetMode(mode)
		}
		if cmd.Flags().Changed("mono-channel") {
			svc.SetMonoChannel(recordMonoChannel)
		}
		if cmd.Flags().Changed("stereo-pair") {
			svc.SetStereoPair(recordStereoPair)
		}
		if cmd.Flags().Changed("name") {
			svc.SetFileName(recordName)
		}

		statusLine, err := svc.StartRecording()
		if err != nil {
			return fmt.Errorf("failed to start recording: %w", err)
		}
		fmt.Println(statusLine)

		slog.Info("Recording... Press Ctrl+C to stop")

		// Handle interruption
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		// Wait for interrupt signal
		<-sigChan
		slog.Info("Stopping recording...")

		statusLine, err = svc.StopRecording()
		if err != nil {
			// The terminal delivers Ctrl+C to FFmpeg as well, so it may
			// have finalized the file and exited before we get here
			if errors.Is(err, audio.ErrNotRecording) {
				statusLine = "Recording stopped."
			} else {
				return fmt.Errorf("failed to stop recording: %w", err)
			}
		}
		fmt.Println(statusLine)

		if recordPlay {
			latest, err := svc.LatestRecording()
			if err != nil {
				return fmt.Errorf("cannot play back: %w", err)
			}
			fmt.Printf("Playing: %s\n", latest)
			return play.New().Play(latest)
		}

		return nil
	},
}

func init() {
	recordCmd.Flags().StringVarP(&recordDevice, "device", "d", "", "capture device index (overrides settings)")
	recordCmd.Flags().IntVar(&recordStream, "stream", 0, "AVFoundation stream index, 0 or 1 (overrides settings)")
	recordCmd.Flags().StringVar(&recordChannels, "channels", "", "total channels to capture (default inferred from device name)")
	recordCmd.Flags().StringVarP(&recordMode, "mode", "m", "", "record mode: mono, stereo or multichannel (overrides settings)")
	recordCmd.Flags().IntVar(&recordMonoChannel, "mono-channel", 0, "1-based channel to record in mono mode")
	recordCmd.Flags().StringVar(&recordStereoPair, "stereo-pair", "", "channel pair to record in stereo mode, e.g. 3-4")
	recordCmd.Flags().StringVarP(&recordName, "name", "n", "", "label appended to the timestamped file name")
	recordCmd.Flags().BoolVar(&recordPlay, "play", false, "play the take back after stopping")
}
