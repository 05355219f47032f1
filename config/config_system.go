package config

import (
	"os"

	"emperror.dev/errors"
	"github.com/apex/log"
)

// Defines basic system configuration settings.
type SystemConfiguration struct {
	// Directory where the collector log file is written. Logs only go to
	// stderr when this is empty.
	LogDirectory string `json:"log_directory" yaml:"log_directory"`
}

// ConfigureDirectories ensures the log directory exists, it is created so
// that only the owner can read the data.
func (sc *SystemConfiguration) ConfigureDirectories() error {
	if sc.LogDirectory == "" {
		return nil
	}
	log.WithField("path", sc.LogDirectory).Debug("ensuring log directory exists")
	if err := os.MkdirAll(sc.LogDirectory, 0o700); err != nil {
		return errors.WithStack(err)
	}
	return nil
}
