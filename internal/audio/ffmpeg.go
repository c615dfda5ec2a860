package audio

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"golang.org/x/mod/semver"
)

// ErrFFmpegNotFound is returned when no usable FFmpeg binary can be
// resolved. Callers treat it as a degraded state, not a crash: device
// enumeration falls back to the placeholder and recording reports the
// failure when started.
var ErrFFmpegNotFound = errors.New("ffmpeg binary not found")

// MinFFmpegVersion is the oldest release known to support the
// avfoundation options and pan filter syntax this tool emits.
const MinFFmpegVersion = "4.0"

// ResolveFFmpeg locates the FFmpeg binary to drive. A non-empty custom
// path must itself resolve; otherwise PATH is searched.
func ResolveFFmpeg(customPath string) (string, error) {
	if customPath != "" {
		if _, err := exec.LookPath(customPath); err != nil {
			return "", fmt.Errorf("%w: %s", ErrFFmpegNotFound, customPath)
		}
		return customPath, nil
	}

	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", ErrFFmpegNotFound
	}
	return path, nil
}

// FFmpegVersion runs `ffmpeg -version` and extracts the version token from
// the banner line.
func FFmpegVersion(ffmpegPath string) (string, error) {
	output, err := exec.Command(ffmpegPath, "-version").Output()
	if err != nil {
		return "", fmt.Errorf("ffmpeg -version failed: %w", err)
	}
	return ParseFFmpegVersion(string(output))
}

// ParseFFmpegVersion pulls the version token out of a banner like
// "ffmpeg version 6.1.1 Copyright (c) 2000-2023 the FFmpeg developers".
func ParseFFmpegVersion(banner string) (string, error) {
	line := banner
	if i := strings.IndexByte(banner, '\n'); i >= 0 {
		line = banner[:i]
	}

	fields := strings.Fields(line)
	if len(fields) < 3 || fields[0] != "ffmpeg" || fields[1] != "version" {
		return "", fmt.Errorf("unrecognized ffmpeg version banner: %q", strings.TrimSpace(line))
	}
	return fields[2], nil
}

// VersionSupported reports whether an FFmpeg version string meets
// MinFFmpegVersion. Build-suffixed versions like "6.1.1-tessus" are
// compared on their numeric prefix; versions that cannot be parsed at all
// count as unsupported.
func VersionSupported(version string) bool {
	v := canonicalVersion(version)
	if !semver.IsValid(v) {
		return false
	}
	return semver.Compare(v, canonicalVersion(MinFFmpegVersion)) >= 0
}

func canonicalVersion(version string) string {
	v := strings.TrimPrefix(strings.TrimSpace(version), "v")
	if i := strings.IndexAny(v, "-_+ "); i >= 0 {
		v = v[:i]
	}
	return "v" + v
}
