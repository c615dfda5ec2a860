package mix

import (
	"fmt"
	"strconv"
	"strings"
)

// Mode selects how captured channels are routed into the output file.
type Mode string

const (
	ModeMono         Mode = "mono"
	ModeStereo       Mode = "stereo"
	ModeMultichannel Mode = "multichannel"
)

// Modes lists the supported routing modes in display order.
var Modes = []Mode{ModeMono, ModeStereo, ModeMultichannel}

// ParseMode maps a user-supplied string onto a Mode.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeMono:
		return ModeMono, true
	case ModeStereo:
		return ModeStereo, true
	case ModeMultichannel:
		return ModeMultichannel, true
	}
	return "", false
}

// RoutePlan is the resolved routing for a single take: the pan filter to
// apply (empty means pass-through) and the output channel count to force
// (zero means leave the input layout untouched).
type RoutePlan struct {
	Filter         string
	OutputChannels int
	Description    string
}

// Plan resolves a routing mode and channel selections into a RoutePlan.
// Channel selections are 1-based; the generated pan expressions use
// FFmpeg's 0-based channel names. A stereo pair that does not parse
// degrades to pass-through and reports ok=false so the caller can warn
// without aborting the take.
func Plan(mode Mode, monoChannel int, stereoPair string, totalChannels int) (RoutePlan, bool) {
	switch mode {
	case ModeMono:
		return RoutePlan{
			Filter:         fmt.Sprintf("pan=mono|c0=c%d", monoChannel-1),
			OutputChannels: 1,
			Description:    fmt.Sprintf("MONO (channel %d)", monoChannel),
		}, true

	case ModeStereo:
		left, right, err := parsePair(stereoPair)
		if err != nil {
			return RoutePlan{
				Description: fmt.Sprintf("STEREO UNMAPPED (invalid pair %q, writing all %d channels)", stereoPair, totalChannels),
			}, false
		}
		return RoutePlan{
			Filter:         fmt.Sprintf("pan=stereo|c0=c%d|c1=c%d", left-1, right-1),
			OutputChannels: 2,
			Description:    fmt.Sprintf("STEREO (channels %d-%d)", left, right),
		}, true

	default:
		return RoutePlan{
			Description: fmt.Sprintf("MULTICHANNEL (all %d channels)", totalChannels),
		}, true
	}
}

// parsePair splits a "L-R" selection into its 1-based channel numbers.
func parsePair(pair string) (int, int, error) {
	parts := strings.SplitN(strings.TrimSpace(pair), "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("stereo pair %q is not in L-R form", pair)
	}
	left, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("stereo pair %q has a non-numeric left channel", pair)
	}
	right, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("stereo pair %q has a non-numeric right channel", pair)
	}
	if left < 1 || right < 1 {
		return 0, 0, fmt.Errorf("stereo pair %q has channels below 1", pair)
	}
	return left, right, nil
}

// MonoOptions returns the selectable source channels for mono routing,
// 1 through totalChannels. Totals below 1 fall back to a stereo device.
func MonoOptions(totalChannels int) []int {
	if totalChannels < 1 {
		totalChannels = 2
	}
	options := make([]int, totalChannels)
	for i := range options {
		options[i] = i + 1
	}
	return options
}

// StereoPairOptions returns the selectable adjacent channel pairs for
// stereo routing: "1-2", "3-4", and so on. Devices with fewer than two
// channels still get "1-2" so the selector is never empty.
func StereoPairOptions(totalChannels int) []string {
	var options []string
	for i := 1; i+1 <= totalChannels; i += 2 {
		options = append(options, fmt.Sprintf("%d-%d", i, i+1))
	}
	if len(options) == 0 {
		options = []string{"1-2"}
	}
	return options
}

// ClampMono keeps a mono channel selection when it is still valid for the
// current channel count, otherwise snaps it to the first option.
func ClampMono(selected, totalChannels int) int {
	options := MonoOptions(totalChannels)
	for _, opt := range options {
		if opt == selected {
			return selected
		}
	}
	return options[0]
}

// ClampStereoPair keeps a stereo pair selection when it is still one of the
// generated options, otherwise snaps it to the first pair.
func ClampStereoPair(selected string, totalChannels int) string {
	options := StereoPairOptions(totalChannels)
	for _, opt := range options {
		if opt == selected {
			return selected
		}
	}
	return options[0]
}
