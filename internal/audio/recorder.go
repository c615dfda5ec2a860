package audio

import (
	"errors"
	"time"

	"github.com/soundbenchlab/tracktape/internal/mix"
)

// Status represents the current state of the recorder
type Status string

const (
	StatusIdle      Status = "IDLE"
	StatusRecording Status = "RECORDING"
)

// Lifecycle guard errors. Both occur in normal operation and are surfaced
// as status messages rather than treated as failures.
var (
	ErrAlreadyRecording = errors.New("already recording")
	ErrNotRecording     = errors.New("not currently recording")
)

// RecordingPlan carries everything needed to build one FFmpeg capture
// invocation.
type RecordingPlan struct {
	DeviceIndex   string
	DeviceName    string
	StreamIndex   int
	TotalChannels int
	FileName      string
	Destination   string
	Routing       mix.RoutePlan
}

// SessionInfo contains information about the current recording session
type SessionInfo struct {
	StartTime   time.Time `json:"start_time" yaml:"start_time"`
	OutputFile  string    `json:"output_file" yaml:"output_file"`
	Description string    `json:"description" yaml:"description"`
}

// Recorder defines the interface that recording front-ends drive
type Recorder interface {
	Start(plan RecordingPlan) error
	Stop() error

	// Status and information
	GetStatus() (Status, *SessionInfo)

	// Cleanup
	Cleanup() error
}
