// Package domain defines the DEK rotation schedule: the named intervals and the
// persisted rotation settings.
package domain

import (
	"time"

	"github.com/allisson/envelope/internal/errors"
)

// Interval names a rotation schedule.
type Interval string

// Supported rotation intervals.
const (
	Hourly     Interval = "hourly"
	TwiceDaily Interval = "twicedaily"
	Daily      Interval = "daily"
	Weekly     Interval = "weekly"
)

// DefaultInterval is used when no settings have been saved.
const DefaultInterval = Daily

// ErrInvalidInterval indicates an unknown schedule name.
var ErrInvalidInterval = errors.Wrap(errors.ErrInvalidInput, "invalid rotation interval")

var periods = map[Interval]time.Duration{
	Hourly:     time.Hour,
	TwiceDaily: 12 * time.Hour,
	Daily:      24 * time.Hour,
	Weekly:     7 * 24 * time.Hour,
}

// ParseInterval validates a schedule name.
func ParseInterval(value string) (Interval, error) {
	interval := Interval(value)
	if _, ok := periods[interval]; !ok {
		return "", ErrInvalidInterval
	}
	return interval, nil
}

// Period returns the time between two rotations, or zero for an unknown interval.
func (i Interval) Period() time.Duration {
	return periods[i]
}

// Intervals returns every supported interval, shortest first.
func Intervals() []Interval {
	return []Interval{Hourly, TwiceDaily, Daily, Weekly}
}

// Settings is the persisted rotation configuration.
type Settings struct {
	RotationInterval Interval `yaml:"rotation_interval"`
}

// Validate checks that the settings name a supported interval.
func (s Settings) Validate() error {
	_, err := ParseInterval(string(s.RotationInterval))
	return err
}
