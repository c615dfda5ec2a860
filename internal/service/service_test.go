package service

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/soundbenchlab/tracktape/internal/audio"
	"github.com/soundbenchlab/tracktape/internal/config"
	"github.com/soundbenchlab/tracktape/internal/mix"
)

// fakeRecorder stands in for the FFmpeg-backed recorder so session logic
// can be exercised without spawning processes.
type fakeRecorder struct {
	startCalls int
	stopCalls  int
	startErr   error
	stopErr    error
	lastPlan   audio.RecordingPlan
	status     audio.Status
	session    *audio.SessionInfo
}

func (f *fakeRecorder) Start(plan audio.RecordingPlan) error {
	f.startCalls++
	if f.startErr != nil {
		return f.startErr
	}
	f.lastPlan = plan
	f.status = audio.StatusRecording
	f.session = &audio.SessionInfo{
		StartTime:   time.Now(),
		OutputFile:  "/tmp/takes/2026-01-02_03-04-05.wav",
		Description: "Recording STEREO (channels 1-2) on device :0 stream 0 -> /tmp/takes/2026-01-02_03-04-05.wav",
	}
	return nil
}

func (f *fakeRecorder) Stop() error {
	f.stopCalls++
	if f.stopErr != nil {
		return f.stopErr
	}
	f.status = audio.StatusIdle
	return nil
}

func (f *fakeRecorder) GetStatus() (audio.Status, *audio.SessionInfo) {
	if f.status == "" {
		return audio.StatusIdle, f.session
	}
	return f.status, f.session
}

func (f *fakeRecorder) Cleanup() error { return nil }

type fakeNotifier struct {
	started []string
	stopped int
}

func (f *fakeNotifier) RecordingStarted(outputFile string) { f.started = append(f.started, outputFile) }
func (f *fakeNotifier) RecordingStopped()                  { f.stopped++ }

func newTestService(devices []audio.Device, recorder *fakeRecorder) *TrackTapeService {
	if devices == nil {
		devices = []audio.Device{
			{Index: "0", Name: "MacBook Pro Microphone"},
			{Index: "1", Name: "BlackHole 16ch"},
		}
	}
	return New(devices, recorder, nil)
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestNew_SeedsFromFirstDevice(t *testing.T) {
	svc := newTestService([]audio.Device{{Index: "0", Name: "BlackHole 16ch"}}, &fakeRecorder{})

	if got := svc.EffectiveTotalChannels(); got != 16 {
		t.Errorf("Expected 16 inferred channels, got %d", got)
	}

	snapshot := svc.Snapshot()
	if snapshot.Mode != mix.ModeStereo {
		t.Errorf("Expected default mode stereo, got %s", snapshot.Mode)
	}
	if snapshot.MonoChannel != 1 {
		t.Errorf("Expected default mono channel 1, got %d", snapshot.MonoChannel)
	}
	if snapshot.StereoPair != "1-2" {
		t.Errorf("Expected default stereo pair 1-2, got %s", snapshot.StereoPair)
	}
	if !snapshot.ChannelsInferred {
		t.Error("Expected channel count to be marked inferred")
	}
}

func TestSelectDevice_ReInfersChannels(t *testing.T) {
	svc := newTestService(nil, &fakeRecorder{})

	// Device 0 has no hint in its name
	if got := svc.EffectiveTotalChannels(); got != 2 {
		t.Errorf("Expected 2 channels for unhinted device, got %d", got)
	}

	if err := svc.SelectDeviceAt(1); err != nil {
		t.Fatalf("Expected selection to succeed, got: %v", err)
	}
	if got := svc.EffectiveTotalChannels(); got != 16 {
		t.Errorf("Expected 16 channels after selecting hinted device, got %d", got)
	}
}

func TestSelectDevice_KeepsUserChannelOverride(t *testing.T) {
	svc := newTestService(nil, &fakeRecorder{})

	svc.SetTotalChannels("8")
	if err := svc.SelectDeviceAt(1); err != nil {
		t.Fatal(err)
	}

	if got := svc.EffectiveTotalChannels(); got != 8 {
		t.Errorf("Expected user override 8 to survive device change, got %d", got)
	}

	// Clearing the field hands control back to inference
	svc.SetTotalChannels("")
	if got := svc.EffectiveTotalChannels(); got != 16 {
		t.Errorf("Expected inference after clearing override, got %d", got)
	}
}

func TestSetTotalChannels_ClampsSelections(t *testing.T) {
	svc := newTestService([]audio.Device{{Index: "0", Name: "BlackHole 16ch"}}, &fakeRecorder{})

	svc.SetMonoChannel(10)
	svc.SetStereoPair("9-10")

	svc.SetTotalChannels("4")

	snapshot := svc.Snapshot()
	if snapshot.MonoChannel != 1 {
		t.Errorf("Expected mono channel clamped to 1, got %d", snapshot.MonoChannel)
	}
	if snapshot.StereoPair != "1-2" {
		t.Errorf("Expected stereo pair clamped to 1-2, got %s", snapshot.StereoPair)
	}
}

func TestSelectDeviceAt_OutOfRange(t *testing.T) {
	svc := newTestService(nil, &fakeRecorder{})

	if err := svc.SelectDeviceAt(5); err == nil {
		t.Error("Expected error for out-of-range position")
	}
	if svc.SelectedDevice().Index != "0" {
		t.Errorf("Expected selection unchanged, got device %s", svc.SelectedDevice().Index)
	}
}

func TestApplySettings(t *testing.T) {
	svc := newTestService(nil, &fakeRecorder{})

	svc.ApplySettings(&config.Settings{
		DeviceIndex:       strPtr("1"),
		StreamIndex:       intPtr(1),
		RecordMode:        strPtr("mono"),
		MonoChannel:       intPtr(12),
		StereoPair:        strPtr("15-16"),
		FileName:          strPtr("rehearsal"),
		DestinationFolder: strPtr("/tmp/takes"),
	})

	snapshot := svc.Snapshot()
	if snapshot.Device.Index != "1" {
		t.Errorf("Expected device 1 selected, got %s", snapshot.Device.Index)
	}
	if snapshot.StreamIndex != 1 {
		t.Errorf("Expected stream index 1, got %d", snapshot.StreamIndex)
	}
	if snapshot.Mode != mix.ModeMono {
		t.Errorf("Expected mode mono, got %s", snapshot.Mode)
	}
	// BlackHole 16ch keeps both selections in range
	if snapshot.MonoChannel != 12 {
		t.Errorf("Expected mono channel 12, got %d", snapshot.MonoChannel)
	}
	if snapshot.StereoPair != "15-16" {
		t.Errorf("Expected stereo pair 15-16, got %s", snapshot.StereoPair)
	}
	if snapshot.FileName != "rehearsal" {
		t.Errorf("Expected file name 'rehearsal', got %s", snapshot.FileName)
	}
	if snapshot.DestinationFolder != "/tmp/takes" {
		t.Errorf("Expected destination '/tmp/takes', got %s", snapshot.DestinationFolder)
	}
}

func TestApplySettings_ClampsStaleSelections(t *testing.T) {
	// Device 0 has no channel hint, so 2 channels are inferred and the
	// stale selections from the document must snap to the first options.
	svc := newTestService(nil, &fakeRecorder{})

	svc.ApplySettings(&config.Settings{
		MonoChannel: intPtr(12),
		StereoPair:  strPtr("15-16"),
	})

	snapshot := svc.Snapshot()
	if snapshot.MonoChannel != 1 {
		t.Errorf("Expected stale mono channel clamped to 1, got %d", snapshot.MonoChannel)
	}
	if snapshot.StereoPair != "1-2" {
		t.Errorf("Expected stale stereo pair clamped to 1-2, got %s", snapshot.StereoPair)
	}
}

func TestApplySettings_UnknownDeviceKeepsSelection(t *testing.T) {
	svc := newTestService(nil, &fakeRecorder{})

	svc.ApplySettings(&config.Settings{DeviceIndex: strPtr("7")})

	if svc.SelectedDevice().Index != "0" {
		t.Errorf("Expected selection unchanged for unknown index, got %s", svc.SelectedDevice().Index)
	}
}

func TestStartRecording_BuildsPlan(t *testing.T) {
	recorder := &fakeRecorder{}
	svc := newTestService([]audio.Device{{Index: "2", Name: "Scarlett 8ch"}}, recorder)

	svc.SetStreamIndex(1)
	svc.SetMode(mix.ModeStereo)
	svc.SetStereoPair("3-4")
	svc.SetFileName("soundcheck")
	svc.SetDestination("/tmp/takes")

	statusLine, err := svc.StartRecording()
	if err != nil {
		t.Fatalf("Expected start to succeed, got: %v", err)
	}
	if statusLine == "" {
		t.Error("Expected a status line")
	}

	plan := recorder.lastPlan
	if plan.DeviceIndex != "2" {
		t.Errorf("Expected device index '2', got '%s'", plan.DeviceIndex)
	}
	if plan.StreamIndex != 1 {
		t.Errorf("Expected stream index 1, got %d", plan.StreamIndex)
	}
	if plan.TotalChannels != 8 {
		t.Errorf("Expected 8 total channels, got %d", plan.TotalChannels)
	}
	if plan.Routing.Filter != "pan=stereo|c0=c2|c1=c3" {
		t.Errorf("Expected pair 3-4 routing, got '%s'", plan.Routing.Filter)
	}
	if plan.FileName != "soundcheck" {
		t.Errorf("Expected file name 'soundcheck', got '%s'", plan.FileName)
	}
	if plan.Destination != "/tmp/takes" {
		t.Errorf("Expected destination '/tmp/takes', got '%s'", plan.Destination)
	}
}

func TestStartRecording_NotifiesWithOutputFile(t *testing.T) {
	recorder := &fakeRecorder{}
	notifier := &fakeNotifier{}
	svc := New([]audio.Device{{Index: "0", Name: "Mic"}}, recorder, notifier)

	if _, err := svc.StartRecording(); err != nil {
		t.Fatal(err)
	}

	expected := []string{"/tmp/takes/2026-01-02_03-04-05.wav"}
	if !reflect.DeepEqual(notifier.started, expected) {
		t.Errorf("Expected start notification with output path, got %v", notifier.started)
	}
}

func TestStartRecording_AlreadyRecording(t *testing.T) {
	recorder := &fakeRecorder{startErr: audio.ErrAlreadyRecording}
	svc := newTestService(nil, recorder)

	statusLine, err := svc.StartRecording()
	if !errors.Is(err, audio.ErrAlreadyRecording) {
		t.Errorf("Expected ErrAlreadyRecording, got: %v", err)
	}
	if statusLine != "Already recording." {
		t.Errorf("Expected 'Already recording.', got '%s'", statusLine)
	}
	if recorder.startCalls != 1 {
		t.Errorf("Expected a single start attempt, got %d", recorder.startCalls)
	}
}

func TestStartRecording_FailureSetsLastError(t *testing.T) {
	recorder := &fakeRecorder{startErr: errors.New("exec: ffmpeg not found")}
	svc := newTestService(nil, recorder)

	if _, err := svc.StartRecording(); err == nil {
		t.Fatal("Expected start to fail")
	}
	if svc.GetLastError() == "" {
		t.Error("Expected last error to be recorded")
	}
}

func TestStopRecording(t *testing.T) {
	recorder := &fakeRecorder{}
	notifier := &fakeNotifier{}
	svc := New([]audio.Device{{Index: "0", Name: "Mic"}}, recorder, notifier)

	statusLine, err := svc.StopRecording()
	if err != nil {
		t.Fatalf("Expected stop to succeed, got: %v", err)
	}
	if statusLine != "Recording stopped." {
		t.Errorf("Expected 'Recording stopped.', got '%s'", statusLine)
	}
	if notifier.stopped != 1 {
		t.Errorf("Expected one stop notification, got %d", notifier.stopped)
	}
}

func TestStopRecording_NoOpWhenIdle(t *testing.T) {
	recorder := &fakeRecorder{stopErr: audio.ErrNotRecording}
	svc := newTestService(nil, recorder)

	statusLine, err := svc.StopRecording()
	if !errors.Is(err, audio.ErrNotRecording) {
		t.Errorf("Expected ErrNotRecording, got: %v", err)
	}
	if statusLine != "Not currently recording." {
		t.Errorf("Expected 'Not currently recording.', got '%s'", statusLine)
	}
}

func TestListRecordings_NewestFirst(t *testing.T) {
	dir := t.TempDir()
	older := filepath.Join(dir, "2026-01-01_10-00-00.wav")
	newer := filepath.Join(dir, "2026-01-02_10-00-00.wav")

	for _, path := range []string{older, newer} {
		if err := os.WriteFile(path, make([]byte, 2048), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(older, time.Now().Add(-time.Hour), time.Now().Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}

	svc := newTestService(nil, &fakeRecorder{})
	svc.SetDestination(dir)

	recordings, err := svc.ListRecordings()
	if err != nil {
		t.Fatalf("Expected listing to succeed, got: %v", err)
	}
	if len(recordings) != 2 {
		t.Fatalf("Expected 2 recordings, got %d", len(recordings))
	}
	if recordings[0].Path != newer {
		t.Errorf("Expected newest take first, got %s", recordings[0].Path)
	}

	latest, err := svc.LatestRecording()
	if err != nil {
		t.Fatal(err)
	}
	if latest != newer {
		t.Errorf("Expected latest %s, got %s", newer, latest)
	}
}

func TestLatestRecording_EmptyFolder(t *testing.T) {
	svc := newTestService(nil, &fakeRecorder{})
	svc.SetDestination(t.TempDir())

	if _, err := svc.LatestRecording(); err == nil {
		t.Error("Expected error for folder with no takes")
	}
}

func TestSetStreamIndex_RejectsOutOfRange(t *testing.T) {
	svc := newTestService(nil, &fakeRecorder{})

	svc.SetStreamIndex(1)
	if svc.Snapshot().StreamIndex != 1 {
		t.Error("Expected stream index 1 to be accepted")
	}

	svc.SetStreamIndex(3)
	if svc.Snapshot().StreamIndex != 0 {
		t.Errorf("Expected out-of-range stream index to fall back to 0, got %d", svc.Snapshot().StreamIndex)
	}
}
