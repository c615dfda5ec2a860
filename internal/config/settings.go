package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// DefaultSettingsFile is looked up relative to the working directory.
const DefaultSettingsFile = "tracktape_settings.json"

// Settings is the optional on-disk seed for a recording session. Every
// field may be absent; absent fields leave the built-in defaults alone.
// The document is read-only: runtime changes are never written back.
type Settings struct {
	DeviceIndex       *string `mapstructure:"device_index" json:"device_index,omitempty" yaml:"device_index,omitempty"`
	StreamIndex       *int    `mapstructure:"stream_index" json:"stream_index,omitempty" yaml:"stream_index,omitempty" validate:"omitempty,min=0,max=1"`
	FileName          *string `mapstructure:"file_name" json:"file_name,omitempty" yaml:"file_name,omitempty"`
	DestinationFolder *string `mapstructure:"destination_folder" json:"destination_folder,omitempty" yaml:"destination_folder,omitempty"`
	RecordMode        *string `mapstructure:"record_mode" json:"record_mode,omitempty" yaml:"record_mode,omitempty" validate:"omitempty,oneof=mono stereo multichannel"`
	MonoChannel       *int    `mapstructure:"mono_channel" json:"mono_channel,omitempty" yaml:"mono_channel,omitempty" validate:"omitempty,min=1"`
	StereoPair        *string `mapstructure:"stereo_pair" json:"stereo_pair,omitempty" yaml:"stereo_pair,omitempty"`
}

var validate = validator.New()

// ResolvePath picks the settings document location: an explicit path wins,
// otherwise DefaultSettingsFile in the working directory.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return DefaultSettingsFile
}

// Load reads the settings document at path. A missing document is normal
// and yields empty settings. A malformed document is reported through the
// returned error but still yields usable empty settings, so callers can
// warn and continue.
func Load(path string) (*Settings, error) {
	settings := &Settings{}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix("TRACKTAPE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("No settings document found", "path", path)
			return settings, nil
		}
		return settings, fmt.Errorf("error reading settings file %s: %w", path, err)
	}

	if err := v.Unmarshal(settings); err != nil {
		return &Settings{}, fmt.Errorf("error unmarshaling settings: %w", err)
	}

	settings.sanitize()

	slog.Debug("Loaded settings document", "path", path)
	return settings, nil
}

// sanitize drops fields that fail validation instead of failing the whole
// load. Each dropped field falls back to its built-in default.
func (s *Settings) sanitize() {
	if err := validate.Struct(s); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			slog.Warn("Settings validation failed", "error", err)
			return
		}
		for _, fieldErr := range validationErrors {
			slog.Warn("Ignoring invalid settings field",
				"field", fieldErr.Field(), "rule", fieldErr.Tag(), "value", fieldErr.Value())
			s.clearField(fieldErr.Field())
		}
	}

	if s.DestinationFolder != nil {
		expanded := expandPath(*s.DestinationFolder)
		s.DestinationFolder = &expanded
	}
}

func (s *Settings) clearField(field string) {
	switch field {
	case "StreamIndex":
		s.StreamIndex = nil
	case "RecordMode":
		s.RecordMode = nil
	case "MonoChannel":
		s.MonoChannel = nil
	}
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
