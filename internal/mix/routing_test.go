package mix

import (
	"reflect"
	"testing"
)

func TestPlan_Mono(t *testing.T) {
	plan, ok := Plan(ModeMono, 5, "1-2", 8)
	if !ok {
		t.Fatal("Expected mono plan to resolve")
	}
	if plan.Filter != "pan=mono|c0=c4" {
		t.Errorf("Expected filter 'pan=mono|c0=c4', got '%s'", plan.Filter)
	}
	if plan.OutputChannels != 1 {
		t.Errorf("Expected 1 output channel, got %d", plan.OutputChannels)
	}
	if plan.Description != "MONO (channel 5)" {
		t.Errorf("Unexpected description: %s", plan.Description)
	}
}

func TestPlan_Stereo(t *testing.T) {
	plan, ok := Plan(ModeStereo, 1, "3-4", 8)
	if !ok {
		t.Fatal("Expected stereo plan to resolve")
	}
	if plan.Filter != "pan=stereo|c0=c2|c1=c3" {
		t.Errorf("Expected filter 'pan=stereo|c0=c2|c1=c3', got '%s'", plan.Filter)
	}
	if plan.OutputChannels != 2 {
		t.Errorf("Expected 2 output channels, got %d", plan.OutputChannels)
	}
}

func TestPlan_Multichannel(t *testing.T) {
	plan, ok := Plan(ModeMultichannel, 1, "1-2", 8)
	if !ok {
		t.Fatal("Expected multichannel plan to resolve")
	}
	if plan.Filter != "" {
		t.Errorf("Expected no filter for multichannel, got '%s'", plan.Filter)
	}
	if plan.OutputChannels != 0 {
		t.Errorf("Expected no forced output channels, got %d", plan.OutputChannels)
	}
	if plan.Description != "MULTICHANNEL (all 8 channels)" {
		t.Errorf("Unexpected description: %s", plan.Description)
	}
}

func TestPlan_MalformedStereoPair(t *testing.T) {
	tests := []struct {
		name string
		pair string
	}{
		{name: "no separator", pair: "34"},
		{name: "non-numeric left", pair: "a-4"},
		{name: "non-numeric right", pair: "3-b"},
		{name: "empty", pair: ""},
		{name: "zero channel", pair: "0-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, ok := Plan(ModeStereo, 1, tt.pair, 8)
			if ok {
				t.Errorf("Expected pair '%s' to be rejected", tt.pair)
			}
			if plan.Filter != "" {
				t.Errorf("Expected pass-through fallback, got filter '%s'", plan.Filter)
			}
			if plan.OutputChannels != 0 {
				t.Errorf("Expected no forced output channels, got %d", plan.OutputChannels)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input        string
		expectedMode Mode
		expectedOK   bool
	}{
		{input: "mono", expectedMode: ModeMono, expectedOK: true},
		{input: "Stereo", expectedMode: ModeStereo, expectedOK: true},
		{input: " MULTICHANNEL ", expectedMode: ModeMultichannel, expectedOK: true},
		{input: "surround", expectedOK: false},
		{input: "", expectedOK: false},
	}

	for _, tt := range tests {
		mode, ok := ParseMode(tt.input)
		if ok != tt.expectedOK {
			t.Errorf("ParseMode(%q): expected ok=%v, got %v", tt.input, tt.expectedOK, ok)
		}
		if ok && mode != tt.expectedMode {
			t.Errorf("ParseMode(%q): expected %s, got %s", tt.input, tt.expectedMode, mode)
		}
	}
}

func TestMonoOptions(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		expected []int
	}{
		{name: "stereo device", total: 2, expected: []int{1, 2}},
		{name: "eight channels", total: 8, expected: []int{1, 2, 3, 4, 5, 6, 7, 8}},
		{name: "single channel", total: 1, expected: []int{1}},
		{name: "zero falls back to stereo", total: 0, expected: []int{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			options := MonoOptions(tt.total)
			if !reflect.DeepEqual(options, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, options)
			}
		})
	}
}

func TestStereoPairOptions(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		expected []string
	}{
		{name: "stereo device", total: 2, expected: []string{"1-2"}},
		{name: "eight channels", total: 8, expected: []string{"1-2", "3-4", "5-6", "7-8"}},
		{name: "odd channel count drops trailing channel", total: 7, expected: []string{"1-2", "3-4", "5-6"}},
		{name: "mono device still offers a pair", total: 1, expected: []string{"1-2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			options := StereoPairOptions(tt.total)
			if !reflect.DeepEqual(options, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, options)
			}
		})
	}
}

func TestClampMono(t *testing.T) {
	tests := []struct {
		name     string
		selected int
		total    int
		expected int
	}{
		{name: "valid selection kept", selected: 5, total: 8, expected: 5},
		{name: "out of range snaps to first", selected: 5, total: 2, expected: 1},
		{name: "zero snaps to first", selected: 0, total: 4, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampMono(tt.selected, tt.total); got != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestClampStereoPair(t *testing.T) {
	tests := []struct {
		name     string
		selected string
		total    int
		expected string
	}{
		{name: "valid pair kept", selected: "3-4", total: 8, expected: "3-4"},
		{name: "out of range snaps to first", selected: "7-8", total: 4, expected: "1-2"},
		{name: "non-aligned pair snaps to first", selected: "2-3", total: 8, expected: "1-2"},
		{name: "garbage snaps to first", selected: "x", total: 8, expected: "1-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampStereoPair(tt.selected, tt.total); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}
