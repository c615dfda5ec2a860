package audio

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// Capture parameters applied to every take.
	sampleRate      = 48000
	threadQueueSize = 4096

	// Output files are named by wall-clock start time.
	timestampLayout = "2006-01-02_15-04-05"

	// How long Stop waits for FFmpeg to finalize the file after SIGINT
	// before force killing. WAV finalization is quick; the margin covers
	// slow disks.
	stopTimeout = 10 * time.Second

	// Anything smaller than this is a header with no audio in it.
	minOutputFileSize = 1024
)

// AVFoundationRecorder implements the Recorder interface by driving one
// FFmpeg avfoundation capture process at a time.
type AVFoundationRecorder struct {
	ffmpegPath string
	logWriter  io.Writer

	// Recording state
	mutex     sync.RWMutex
	status    Status
	session   *SessionInfo
	ffmpegCmd *exec.Cmd
	waitDone  chan error

	// FFmpeg diagnostics, written by the reader goroutine
	outputMu  sync.Mutex
	stderrBuf strings.Builder
}

// NewAVFoundationRecorder creates a recorder that spawns ffmpegPath for
// each take. FFmpeg's own output is mirrored to logWriter when non-nil.
func NewAVFoundationRecorder(ffmpegPath string, logWriter io.Writer) *AVFoundationRecorder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if logWriter == nil {
		logWriter = io.Discard
	}

	return &AVFoundationRecorder{
		ffmpegPath: ffmpegPath,
		logWriter:  logWriter,
		status:     StatusIdle,
	}
}

// Start spawns FFmpeg for the given plan. If a capture process is already
// running it returns ErrAlreadyRecording and spawns nothing.
func (r *AVFoundationRecorder) Start(plan RecordingPlan) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.status == StatusRecording && r.ffmpegCmd != nil {
		return ErrAlreadyRecording
	}

	destination := plan.Destination
	if destination == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to resolve working directory: %w", err)
		}
		destination = wd
	}

	if err := os.MkdirAll(destination, 0755); err != nil {
		return fmt.Errorf("failed to create destination folder: %w", err)
	}

	startTime := time.Now()
	outputFile := filepath.Join(destination, outputFileName(plan.FileName, startTime))
	args := buildCaptureArgs(plan, outputFile)

	slog.Info("Starting FFmpeg capture", "command", r.ffmpegPath+" "+strings.Join(args, " "))

	cmd := exec.Command(r.ffmpegPath, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	r.ffmpegCmd = cmd
	r.status = StatusRecording
	r.session = &SessionInfo{
		StartTime:  startTime,
		OutputFile: outputFile,
		Description: fmt.Sprintf("Recording %s on device :%s stream %d -> %s",
			plan.Routing.Description, plan.DeviceIndex, plan.StreamIndex, outputFile),
	}

	r.outputMu.Lock()
	r.stderrBuf.Reset()
	r.outputMu.Unlock()
	go r.readOutput(stderr)

	done := make(chan error, 1)
	r.waitDone = done
	go r.watchProcess(cmd, done)

	return nil
}

// Stop interrupts the capture process and waits for it to finalize the
// output file. Returns ErrNotRecording when nothing is running.
func (r *AVFoundationRecorder) Stop() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.status != StatusRecording || r.ffmpegCmd == nil {
		return ErrNotRecording
	}

	slog.Debug("Stopping recording...")

	outputFile := ""
	if r.session != nil {
		outputFile = r.session.OutputFile
	}

	err := r.stopFFmpeg()
	r.status = StatusIdle
	if err != nil {
		return err
	}

	if err := r.validateOutputFile(outputFile); err != nil {
		return err
	}

	slog.Info("Recording stopped", "output", outputFile)
	return nil
}

// GetStatus returns the current status and a copy of the session info for
// the active (or most recent) take.
func (r *AVFoundationRecorder) GetStatus() (Status, *SessionInfo) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var sessionCopy *SessionInfo
	if r.session != nil {
		sessionCopy = &SessionInfo{
			StartTime:   r.session.StartTime,
			OutputFile:  r.session.OutputFile,
			Description: r.session.Description,
		}
	}

	return r.status, sessionCopy
}

// Cleanup force kills any leftover capture process. Used on shutdown paths
// where a graceful Stop is no longer possible.
func (r *AVFoundationRecorder) Cleanup() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.ffmpegCmd != nil && r.ffmpegCmd.Process != nil {
		r.ffmpegCmd.Process.Kill()
		<-r.waitDone
	}
	r.ffmpegCmd = nil
	r.status = StatusIdle

	slog.Debug("Recorder cleaned up")
	return nil
}

// watchProcess waits for FFmpeg to exit and hands the result to whoever
// stops the recording. If the process dies on its own the recorder state
// is reset so a later Start is not rejected.
func (r *AVFoundationRecorder) watchProcess(cmd *exec.Cmd, done chan error) {
	err := cmd.Wait()
	done <- err

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.ffmpegCmd == cmd {
		slog.Warn("FFmpeg exited on its own", "error", err, "output", r.stderrTail())
		r.ffmpegCmd = nil
		r.status = StatusIdle
	}
}

// readOutput drains FFmpeg's stderr, which carries all of its logging.
func (r *AVFoundationRecorder) readOutput(pipe io.ReadCloser) {
	scanner := bufio.NewScanner(pipe)
	for scanner.Scan() {
		line := scanner.Text()
		r.outputMu.Lock()
		r.stderrBuf.WriteString(line + "\n")
		r.outputMu.Unlock()
		fmt.Fprintln(r.logWriter, line)
		slog.Debug("FFmpeg output", "line", line)
	}
	pipe.Close()
}

// stopFFmpeg asks the capture process to stop and tolerates the exit
// statuses FFmpeg reports after an interrupt. Called with the state mutex
// held.
func (r *AVFoundationRecorder) stopFFmpeg() error {
	if r.ffmpegCmd == nil {
		return nil
	}

	// SIGINT makes FFmpeg finalize the WAV header before exiting
	if r.ffmpegCmd.Process != nil {
		slog.Debug("Sending SIGINT to FFmpeg process")
		if err := r.ffmpegCmd.Process.Signal(os.Interrupt); err != nil {
			slog.Debug("Failed to send interrupt to FFmpeg", "error", err)
			slog.Debug("Falling back to SIGKILL")
			r.ffmpegCmd.Process.Kill()
		}
	}

	select {
	case err := <-r.waitDone:
		r.ffmpegCmd = nil
		if err != nil {
			if cleanSignalExit(err) {
				slog.Debug("FFmpeg exited normally after interrupt signal")
				return nil
			}
			return fmt.Errorf("FFmpeg process failed: %w\nOutput: %s", err, r.stderrTail())
		}
		slog.Debug("FFmpeg exited successfully")
		return nil

	case <-time.After(stopTimeout):
		slog.Warn("FFmpeg did not exit within timeout, force killing")
		if r.ffmpegCmd.Process != nil {
			r.ffmpegCmd.Process.Kill()
		}
		<-r.waitDone
		r.ffmpegCmd = nil
		return nil
	}
}

// cleanSignalExit reports whether an FFmpeg exit error is the expected
// result of stopping it with a signal. Exit code 255 is FFmpeg's own
// graceful-interrupt status.
func cleanSignalExit(err error) bool {
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return false
	}
	if exitErr.ExitCode() == 255 {
		return true
	}
	if exitErr.ProcessState != nil {
		stateStr := exitErr.ProcessState.String()
		return stateStr == "signal: interrupt" || stateStr == "signal: killed"
	}
	return false
}

// validateOutputFile checks that the take actually produced audio.
func (r *AVFoundationRecorder) validateOutputFile(outputFile string) error {
	if outputFile == "" {
		return fmt.Errorf("no session info available")
	}

	fileInfo, err := os.Stat(outputFile)
	if err != nil {
		return fmt.Errorf("recording file not found: %s", outputFile)
	}

	if fileInfo.Size() < minOutputFileSize {
		return fmt.Errorf("recording failed: file too small (%d bytes)", fileInfo.Size())
	}

	slog.Debug("Output file validated", "size", fileInfo.Size())
	return nil
}

func (r *AVFoundationRecorder) stderrTail() string {
	r.outputMu.Lock()
	defer r.outputMu.Unlock()

	lines := strings.Split(strings.TrimRight(r.stderrBuf.String(), "\n"), "\n")
	if len(lines) > 10 {
		lines = lines[len(lines)-10:]
	}
	return strings.Join(lines, "\n")
}

// buildCaptureArgs assembles the FFmpeg argument vector for one take.
// Input options size the avfoundation grab; the optional pan filter and
// trailing -ac reshape the channels written to disk.
func buildCaptureArgs(plan RecordingPlan, outputFile string) []string {
	args := []string{
		"-y",
		"-thread_queue_size", strconv.Itoa(threadQueueSize),
		"-f", "avfoundation",
		"-i", ":" + plan.DeviceIndex,
		"-ac", strconv.Itoa(plan.TotalChannels),
		"-ar", strconv.Itoa(sampleRate),
		"-map", fmt.Sprintf("0:%d?", plan.StreamIndex),
	}

	if plan.Routing.Filter != "" {
		args = append(args, "-af", plan.Routing.Filter)
	}
	if plan.Routing.OutputChannels > 0 {
		args = append(args, "-ac", strconv.Itoa(plan.Routing.OutputChannels))
	}

	return append(args, outputFile)
}

// outputFileName builds the timestamped file name for a take, with the
// optional user label appended.
func outputFileName(fileName string, at time.Time) string {
	name := at.Format(timestampLayout)
	if clean := cleanFileName(fileName); clean != "" {
		name += "_" + clean
	}
	return name + ".wav"
}

// cleanFileName sanitizes a user-supplied file name label
// Allows: letters, numbers, spaces, hyphens, underscores
func cleanFileName(name string) string {
	var result strings.Builder
	for _, c := range name {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == ' ' || c == '-' || c == '_' {
			result.WriteRune(c)
		}
	}
	return strings.ReplaceAll(strings.TrimSpace(result.String()), " ", "_")
}
