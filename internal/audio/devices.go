package audio

import (
	"log/slog"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// Device is one audio capture endpoint enumerated by FFmpeg's
// avfoundation input.
type Device struct {
	Index string `json:"index" yaml:"index"`
	Name  string `json:"name" yaml:"name"`
}

// Label returns the "index: name" form used by pickers and logs.
func (d Device) Label() string {
	return d.Index + ": " + d.Name
}

// PlaceholderDevice stands in when enumeration yields nothing so selection
// and recording flows always have an entry to work with.
var PlaceholderDevice = Device{Index: "0", Name: "Default Device (not found by FFmpeg)"}

// Enumeration output is split into a video section and an audio section;
// only lines between these two markers describe audio devices.
const (
	audioSectionStart = "AVFoundation audio devices:"
	audioSectionStop  = "AVFoundation video devices:"
)

var (
	deviceLinePattern  = regexp.MustCompile(`\[AVFoundation[^\]]*\]\s*\[(\d+)\]\s*(.+)`)
	channelHintPattern = regexp.MustCompile(`(\d+)ch`)
)

// ListDevices asks FFmpeg to enumerate avfoundation devices and parses the
// diagnostic output. FFmpeg exits non-zero in enumeration mode, so the exit
// status only matters when no output was produced at all. Failures degrade
// to the placeholder device rather than an error.
func ListDevices(ffmpegPath string) []Device {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}

	cmd := exec.Command(ffmpegPath, "-f", "avfoundation", "-list_devices", "true", "-i", "")
	output, err := cmd.CombinedOutput()
	if err != nil && len(output) == 0 {
		slog.Error("Device enumeration produced no output", "error", err)
		return []Device{PlaceholderDevice}
	}

	devices := ParseDeviceList(string(output))
	if len(devices) == 0 {
		slog.Warn("No audio devices found, falling back to placeholder")
		return []Device{PlaceholderDevice}
	}

	slog.Debug("Enumerated audio devices", "count", len(devices))
	return devices
}

// ParseDeviceList extracts the audio devices from FFmpeg enumeration
// output, preserving their order of appearance. Lines outside the audio
// section and lines that do not match the device pattern are skipped.
func ParseDeviceList(output string) []Device {
	var devices []Device
	inAudioSection := false

	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(line, audioSectionStart) {
			inAudioSection = true
			continue
		}
		if strings.Contains(line, audioSectionStop) {
			inAudioSection = false
			continue
		}
		if !inAudioSection {
			continue
		}

		matches := deviceLinePattern.FindStringSubmatch(line)
		if len(matches) == 3 {
			devices = append(devices, Device{
				Index: matches[1],
				Name:  strings.TrimSpace(matches[2]),
			})
		}
	}

	return devices
}

// InferChannelCount guesses a device's channel count from a "<N>ch" hint
// in its name, e.g. "BlackHole 16ch". Names without a usable hint are
// assumed to be stereo.
func InferChannelCount(name string) int {
	matches := channelHintPattern.FindStringSubmatch(strings.ToLower(name))
	if len(matches) == 2 {
		if n, err := strconv.Atoi(matches[1]); err == nil && n >= 1 {
			return n
		}
	}
	return 2
}
