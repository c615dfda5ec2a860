package service

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/soundbenchlab/tracktape/internal/audio"
	"github.com/soundbenchlab/tracktape/internal/config"
	"github.com/soundbenchlab/tracktape/internal/mix"
)

// Service represents the core TrackTape session interface
type Service interface {
	// Device selection
	Devices() []audio.Device
	SelectedDevice() audio.Device
	SelectDeviceAt(position int) error
	SelectDeviceByIndex(index string) bool

	// Capture shape
	SetStreamIndex(index int)
	SetTotalChannels(text string)
	EffectiveTotalChannels() int
	SetMode(mode mix.Mode)
	SetMonoChannel(channel int)
	SetStereoPair(pair string)
	MonoOptions() []int
	StereoPairOptions() []string

	// Output naming
	SetFileName(name string)
	SetDestination(folder string)

	// Settings document
	ApplySettings(settings *config.Settings)

	// Recording operations
	StartRecording() (string, error)
	StopRecording() (string, error)
	GetRecordingStatus() (audio.Status, *audio.SessionInfo)

	// Recordings on disk
	ListRecordings() ([]RecordingInfo, error)
	LatestRecording() (string, error)

	// Information operations
	Snapshot() Snapshot
	GetLastError() string

	// Cleanup
	Cleanup()
}

// Notifier posts desktop notifications for recording lifecycle events.
// Implementations must tolerate being called from any goroutine.
type Notifier interface {
	RecordingStarted(outputFile string)
	RecordingStopped()
}

// RecordingInfo describes one finished take on disk
type RecordingInfo struct {
	Name         string    `json:"name" yaml:"name"`
	Path         string    `json:"path" yaml:"path"`
	Size         int64     `json:"size" yaml:"size"`
	SizeHuman    string    `json:"size_human" yaml:"size_human"`
	ModTime      time.Time `json:"mod_time" yaml:"mod_time"`
	ModTimeHuman string    `json:"mod_time_human" yaml:"mod_time_human"`
}

// Snapshot is the effective session state, after settings have been
// applied and selections clamped
type Snapshot struct {
	Device             audio.Device `json:"device" yaml:"device"`
	StreamIndex        int          `json:"stream_index" yaml:"stream_index"`
	TotalChannels      int          `json:"total_channels" yaml:"total_channels"`
	ChannelsInferred   bool         `json:"channels_inferred" yaml:"channels_inferred"`
	Mode               mix.Mode     `json:"record_mode" yaml:"record_mode"`
	MonoChannel        int          `json:"mono_channel" yaml:"mono_channel"`
	StereoPair         string       `json:"stereo_pair" yaml:"stereo_pair"`
	FileName           string       `json:"file_name" yaml:"file_name"`
	DestinationFolder  string       `json:"destination_folder" yaml:"destination_folder"`
	Status             audio.Status `json:"status" yaml:"status"`
	OutputFile         string       `json:"output_file,omitempty" yaml:"output_file,omitempty"`
}

// TrackTapeService is the main service implementation
type TrackTapeService struct {
	recorder audio.Recorder
	notifier Notifier

	// Session state
	mutex         sync.RWMutex
	devices       []audio.Device
	devicePos     int
	streamIndex   int
	totalChannels string // raw field text, "" means inferred from the device
	mode          mix.Mode
	monoChannel   int
	stereoPair    string
	fileName      string
	destination   string

	// Error tracking
	lastError      string
	lastErrorMutex sync.RWMutex
}

// New creates a session over the given devices. The device list must come
// from audio.ListDevices, which guarantees at least a placeholder entry.
func New(devices []audio.Device, recorder audio.Recorder, notifier Notifier) *TrackTapeService {
	if len(devices) == 0 {
		devices = []audio.Device{audio.PlaceholderDevice}
	}

	s := &TrackTapeService{
		recorder: recorder,
		notifier: notifier,
		devices:  devices,
		mode:     mix.ModeStereo,
	}

	if wd, err := os.Getwd(); err == nil {
		s.destination = wd
	}

	s.mutex.Lock()
	s.refreshChannelSelections()
	s.mutex.Unlock()

	return s
}

// Devices returns the enumerated capture devices
func (s *TrackTapeService) Devices() []audio.Device {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	devices := make([]audio.Device, len(s.devices))
	copy(devices, s.devices)
	return devices
}

// SelectedDevice returns the device the next take will capture from
func (s *TrackTapeService) SelectedDevice() audio.Device {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.devices[s.devicePos]
}

// SelectDeviceAt selects a device by its position in the enumerated list.
// Channel selections are re-validated against the new device.
func (s *TrackTapeService) SelectDeviceAt(position int) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if position < 0 || position >= len(s.devices) {
		return fmt.Errorf("device position %d out of range", position)
	}

	s.devicePos = position
	s.refreshChannelSelections()

	slog.Debug("Selected device", "device", s.devices[position].Label())
	return nil
}

// SelectDeviceByIndex selects the device whose FFmpeg index matches.
// Reports false when no device carries that index, leaving the current
// selection unchanged.
func (s *TrackTapeService) SelectDeviceByIndex(index string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.selectByIndex(index)
}

func (s *TrackTapeService) selectByIndex(index string) bool {
	for pos, device := range s.devices {
		if device.Index == index {
			s.devicePos = pos
			s.refreshChannelSelections()
			return true
		}
	}
	return false
}

// SetStreamIndex sets which avfoundation stream to map. Only streams 0 and
// 1 exist on capture devices; anything else falls back to 0.
func (s *TrackTapeService) SetStreamIndex(index int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if index != 0 && index != 1 {
		slog.Warn("Stream index out of range, using 0", "index", index)
		index = 0
	}
	s.streamIndex = index
}

// SetTotalChannels overrides the inferred channel count with raw field
// text. An empty string returns the field to inferred mode.
func (s *TrackTapeService) SetTotalChannels(text string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.totalChannels = strings.TrimSpace(text)
	s.refreshChannelSelections()
}

// EffectiveTotalChannels returns the channel count the next take will ask
// FFmpeg for: the user override when set, the device inference otherwise.
func (s *TrackTapeService) EffectiveTotalChannels() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.effectiveTotal()
}

func (s *TrackTapeService) effectiveTotal() int {
	if s.totalChannels == "" {
		return audio.InferChannelCount(s.devices[s.devicePos].Name)
	}
	if n, ok := parseTotal(s.totalChannels); ok {
		return n
	}
	return 2
}

// SetMode selects the routing mode for the next take
func (s *TrackTapeService) SetMode(mode mix.Mode) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.mode = mode
}

// SetMonoChannel selects the source channel for mono takes, snapped into
// the valid range for the current channel count
func (s *TrackTapeService) SetMonoChannel(channel int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.monoChannel = mix.ClampMono(channel, s.effectiveTotal())
}

// SetStereoPair selects the source pair for stereo takes, snapped onto the
// generated pair options
func (s *TrackTapeService) SetStereoPair(pair string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.stereoPair = mix.ClampStereoPair(pair, s.effectiveTotal())
}

// MonoOptions lists the selectable mono source channels for the current
// device and channel count
func (s *TrackTapeService) MonoOptions() []int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return mix.MonoOptions(s.effectiveTotal())
}

// StereoPairOptions lists the selectable stereo pairs for the current
// device and channel count
func (s *TrackTapeService) StereoPairOptions() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return mix.StereoPairOptions(s.effectiveTotal())
}

// SetFileName sets the optional label appended to timestamped file names
func (s *TrackTapeService) SetFileName(name string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.fileName = name
}

// SetDestination sets the folder takes are written to
func (s *TrackTapeService) SetDestination(folder string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if folder != "" {
		s.destination = folder
	}
}

// ApplySettings seeds the session from a settings document. Fields the
// document does not carry keep their current values; channel selections
// are re-validated afterwards so stale values snap to valid options.
func (s *TrackTapeService) ApplySettings(settings *config.Settings) {
	if settings == nil {
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if settings.DeviceIndex != nil {
		if !s.selectByIndex(*settings.DeviceIndex) {
			slog.Warn("Settings device not present, keeping current selection",
				"device_index", *settings.DeviceIndex)
		}
	}
	if settings.StreamIndex != nil {
		s.streamIndex = *settings.StreamIndex
	}
	if settings.RecordMode != nil {
		if mode, ok := mix.ParseMode(*settings.RecordMode); ok {
			s.mode = mode
		}
	}
	if settings.MonoChannel != nil {
		s.monoChannel = *settings.MonoChannel
	}
	if settings.StereoPair != nil {
		s.stereoPair = *settings.StereoPair
	}
	if settings.FileName != nil {
		s.fileName = *settings.FileName
	}
	if settings.DestinationFolder != nil && *settings.DestinationFolder != "" {
		s.destination = *settings.DestinationFolder
	}

	s.refreshChannelSelections()
}

// refreshChannelSelections snaps the mono and stereo selections onto the
// option lists for the current channel count. Called with the state mutex
// held.
func (s *TrackTapeService) refreshChannelSelections() {
	total := s.effectiveTotal()
	s.monoChannel = mix.ClampMono(s.monoChannel, total)
	s.stereoPair = mix.ClampStereoPair(s.stereoPair, total)
}

// StartRecording resolves the current selections into a recording plan and
// spawns the capture process. The returned string is the status line shown
// to the user.
func (s *TrackTapeService) StartRecording() (string, error) {
	s.mutex.Lock()

	device := s.devices[s.devicePos]
	total := s.effectiveTotal()
	if s.totalChannels != "" {
		if _, ok := parseTotal(s.totalChannels); !ok {
			slog.Warn("Total channels is not a positive number, assuming 2", "value", s.totalChannels)
		}
	}

	routing, routed := mix.Plan(s.mode, s.monoChannel, s.stereoPair, total)
	if !routed {
		slog.Warn("Stereo pair could not be mapped, recording unfiltered", "pair", s.stereoPair)
	}

	plan := audio.RecordingPlan{
		DeviceIndex:   device.Index,
		DeviceName:    device.Name,
		StreamIndex:   s.streamIndex,
		TotalChannels: total,
		FileName:      s.fileName,
		Destination:   s.destination,
		Routing:       routing,
	}
	s.mutex.Unlock()

	if err := s.recorder.Start(plan); err != nil {
		if errors.Is(err, audio.ErrAlreadyRecording) {
			slog.Warn("Recording already in progress")
			return "Already recording.", err
		}
		s.setLastError(fmt.Sprintf("Failed to start recording: %v", err))
		return "", err
	}

	s.clearLastError()

	statusLine := "Recording..."
	outputFile := ""
	if _, session := s.recorder.GetStatus(); session != nil {
		statusLine = session.Description
		outputFile = session.OutputFile
	}

	if s.notifier != nil {
		s.notifier.RecordingStarted(outputFile)
	}

	return statusLine, nil
}

// StopRecording ends the current take. Asking to stop when nothing is
// recording is a no-op reported through the status line.
func (s *TrackTapeService) StopRecording() (string, error) {
	err := s.recorder.Stop()
	if err != nil {
		if errors.Is(err, audio.ErrNotRecording) {
			slog.Warn("Stop requested with no recording in progress")
			return "Not currently recording.", err
		}
		s.setLastError(fmt.Sprintf("Failed to stop recording: %v", err))
		return "Recording stopped.", err
	}

	s.clearLastError()

	if s.notifier != nil {
		s.notifier.RecordingStopped()
	}

	return "Recording stopped.", nil
}

// GetRecordingStatus returns the recorder state and session info
func (s *TrackTapeService) GetRecordingStatus() (audio.Status, *audio.SessionInfo) {
	return s.recorder.GetStatus()
}

// ListRecordings returns the takes in the destination folder, newest first
func (s *TrackTapeService) ListRecordings() ([]RecordingInfo, error) {
	s.mutex.RLock()
	destination := s.destination
	s.mutex.RUnlock()

	return ListRecordingsIn(destination)
}

// LatestRecording returns the path of the newest take in the destination
// folder
func (s *TrackTapeService) LatestRecording() (string, error) {
	s.mutex.RLock()
	destination := s.destination
	s.mutex.RUnlock()

	return LatestRecordingIn(destination)
}

// ListRecordingsIn scans a folder for WAV takes, newest first. It needs no
// session, playback-only paths use it directly.
func ListRecordingsIn(folder string) ([]RecordingInfo, error) {
	files, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to read destination folder: %w", err)
	}

	var recordings []RecordingInfo
	for _, file := range files {
		if file.IsDir() || strings.ToLower(filepath.Ext(file.Name())) != ".wav" {
			continue
		}

		info, err := file.Info()
		if err != nil {
			slog.Warn("Failed to get file info", "file", file.Name(), "error", err)
			continue
		}

		recordings = append(recordings, RecordingInfo{
			Name:         file.Name(),
			Path:         filepath.Join(folder, file.Name()),
			Size:         info.Size(),
			SizeHuman:    formatBytes(info.Size()),
			ModTime:      info.ModTime(),
			ModTimeHuman: info.ModTime().Format("2006-01-02 15:04:05"),
		})
	}

	// Newest first
	sort.Slice(recordings, func(i, j int) bool {
		return recordings[i].ModTime.After(recordings[j].ModTime)
	})

	return recordings, nil
}

// LatestRecordingIn returns the newest WAV take in a folder
func LatestRecordingIn(folder string) (string, error) {
	recordings, err := ListRecordingsIn(folder)
	if err != nil {
		return "", err
	}
	if len(recordings) == 0 {
		return "", fmt.Errorf("no recordings found in %s", folder)
	}
	return recordings[0].Path, nil
}

// Snapshot returns the effective session state
func (s *TrackTapeService) Snapshot() Snapshot {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	status, session := s.recorder.GetStatus()

	snapshot := Snapshot{
		Device:            s.devices[s.devicePos],
		StreamIndex:       s.streamIndex,
		TotalChannels:     s.effectiveTotal(),
		ChannelsInferred:  s.totalChannels == "",
		Mode:              s.mode,
		MonoChannel:       s.monoChannel,
		StereoPair:        s.stereoPair,
		FileName:          s.fileName,
		DestinationFolder: s.destination,
		Status:            status,
	}
	if session != nil {
		snapshot.OutputFile = session.OutputFile
	}

	return snapshot
}

// Cleanup force stops any leftover capture process
func (s *TrackTapeService) Cleanup() {
	s.recorder.Cleanup()
}

// GetLastError returns the last error message (thread-safe)
func (s *TrackTapeService) GetLastError() string {
	s.lastErrorMutex.RLock()
	defer s.lastErrorMutex.RUnlock()
	return s.lastError
}

// setLastError sets the last error message (thread-safe)
func (s *TrackTapeService) setLastError(err string) {
	s.lastErrorMutex.Lock()
	defer s.lastErrorMutex.Unlock()
	s.lastError = err

	slog.Error("Service error occurred", "error_message", err)
}

// clearLastError clears the last error message (thread-safe)
func (s *TrackTapeService) clearLastError() {
	s.lastErrorMutex.Lock()
	defer s.lastErrorMutex.Unlock()
	s.lastError = ""
}

// Helper functions

func parseTotal(text string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// formatBytes formats bytes in human readable format
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
