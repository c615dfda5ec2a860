package cmd

import (
	"fmt"
	"runtime"

	"github.com/soundbenchlab/tracktape/internal/audio"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var devicesYAML bool

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List available audio capture devices",
	Long: `List the audio capture devices FFmpeg's AVFoundation input can see,
with the channel count inferred from each device name.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ffmpegPath, err := audio.ResolveFFmpeg(ffmpegFlag)
		if err != nil {
			return fmt.Errorf("%w (install it with: brew install ffmpeg)", err)
		}

		devices := audio.ListDevices(ffmpegPath)

		if devicesYAML {
			return printDevicesYAML(devices)
		}

		fmt.Printf("🎵 Audio Capture Devices (%s)\n", runtime.GOOS)
		fmt.Printf("═══════════════════════════════════════\n\n")

		fmt.Printf("📋 AVFOUNDATION AUDIO DEVICES (%d found):\n", len(devices))
		for _, device := range devices {
			fmt.Printf("  %s  (%d channels inferred)\n", device.Label(), audio.InferChannelCount(device.Name))
		}

		fmt.Printf("\n💡 Usage:\n")
		fmt.Printf("  • Record from a device: tracktape record --device <index>\n")
		fmt.Printf("  • Names ending in \"16ch\" set the inferred channel count\n")
		fmt.Printf("  • Override the count with: tracktape record --channels <n>\n\n")

		return nil
	},
}

func printDevicesYAML(devices []audio.Device) error {
	out, err := yaml.Marshal(devices)
	if err != nil {
		return fmt.Errorf("failed to marshal devices: %w", err)
	}
	fmt.Print(string(out))
	return nil
}

func init() {
	devicesCmd.Flags().BoolVar(&devicesYAML, "yaml", false, "print the device list as YAML")
}
