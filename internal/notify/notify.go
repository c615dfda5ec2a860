package notify

import (
	"log/slog"

	"github.com/gen2brain/beeep"
)

const appTitle = "TrackTape"

// Desktop posts native desktop notifications for recording lifecycle
// events. Notification failures are logged and otherwise ignored so a
// broken notification daemon never interferes with a take.
type Desktop struct{}

// New creates a desktop notifier
func New() *Desktop {
	return &Desktop{}
}

// RecordingStarted announces a new take and where it is being written
func (d *Desktop) RecordingStarted(outputFile string) {
	message := "Recording started"
	if outputFile != "" {
		message = "Recording started: " + outputFile
	}
	if err := beeep.Notify(appTitle, message, ""); err != nil {
		slog.Debug("Desktop notification failed", "error", err)
	}
}

// RecordingStopped announces the end of a take
func (d *Desktop) RecordingStopped() {
	if err := beeep.Notify(appTitle, "Recording stopped", ""); err != nil {
		slog.Debug("Desktop notification failed", "error", err)
	}
}
