package audio

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// SpeakerSettings holds the tunables of the sound card backend.
type SpeakerSettings struct {
	SampleRate      int `yaml:"sample_rate" mapstructure:"sample_rate" default:"44100" validate:"gte=8000,lte=192000"`
	BufferMs        int `yaml:"buffer_ms" mapstructure:"buffer_ms" default:"100" validate:"gte=10,lte=2000"`
	PollIntervalMs  int `yaml:"poll_interval_ms" mapstructure:"poll_interval_ms" default:"250" validate:"gte=10,lte=5000"`
	ResampleQuality int `yaml:"resample_quality" mapstructure:"resample_quality" default:"4" validate:"gte=1,lte=64"`
}

// ParseSettings decodes backend settings from a free-form config map.
// A nil or empty map yields the defaults.
func ParseSettings(settings map[string]any) (SpeakerSettings, error) {
	var config SpeakerSettings
	if err := mapstructure.Decode(settings, &config); err != nil {
		return SpeakerSettings{}, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return SpeakerSettings{}, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(config); err != nil {
		return SpeakerSettings{}, errors.Wrap(err, "validation failed")
	}
	return config, nil
}

// Buffer returns the output buffer length.
func (s SpeakerSettings) Buffer() time.Duration {
	return time.Duration(s.BufferMs) * time.Millisecond
}

// PollInterval returns how often the playback position is reported.
func (s SpeakerSettings) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalMs) * time.Millisecond
}
