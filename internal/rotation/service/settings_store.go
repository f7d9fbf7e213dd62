// Package service provides the file-backed pieces of rotation scheduling: the YAML
// settings file and a watcher that reports changes made to it outside the process.
package service

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/allisson/envelope/internal/errors"
	"github.com/allisson/envelope/internal/fsutil"
	rotationDomain "github.com/allisson/envelope/internal/rotation/domain"
)

// ErrSettingsUnreadable indicates the settings file exists but could not be read or parsed.
var ErrSettingsUnreadable = errors.Wrap(errors.ErrInvalidInput, "settings file unreadable")

// YAMLSettingsStore keeps rotation settings in a YAML file.
type YAMLSettingsStore struct {
	path     string
	defaults rotationDomain.Settings
}

// NewYAMLSettingsStore creates a store for path. defaults are returned while the file
// does not exist.
func NewYAMLSettingsStore(path string, defaults rotationDomain.Settings) *YAMLSettingsStore {
	return &YAMLSettingsStore{path: path, defaults: defaults}
}

// Path returns the settings file location.
func (s *YAMLSettingsStore) Path() string {
	return s.path
}

// Defaults returns the settings used while the file does not exist.
func (s *YAMLSettingsStore) Defaults() rotationDomain.Settings {
	return s.defaults
}

// Load reads and validates the settings file.
func (s *YAMLSettingsStore) Load() (rotationDomain.Settings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s.defaults, nil
		}
		return rotationDomain.Settings{}, errors.Wrap(ErrSettingsUnreadable, err.Error())
	}

	var settings rotationDomain.Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return rotationDomain.Settings{}, errors.Wrap(ErrSettingsUnreadable, err.Error())
	}
	if settings.RotationInterval == "" {
		settings.RotationInterval = s.defaults.RotationInterval
	}
	if err := settings.Validate(); err != nil {
		return rotationDomain.Settings{}, err
	}
	return settings, nil
}

// Save validates and atomically writes the settings file.
func (s *YAMLSettingsStore) Save(settings rotationDomain.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return errors.Wrap(err, "marshal settings")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrap(err, "create settings directory")
	}
	if err := fsutil.WriteFileAtomic(s.path, out, 0o600); err != nil {
		return errors.Wrap(err, "write settings")
	}
	return nil
}
