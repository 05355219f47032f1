package cmd

import (
	"path/filepath"

	"emperror.dev/errors"
	"github.com/NYTimes/logrotate"
	"github.com/apex/log"
	"github.com/apex/log/handlers/multi"

	"github.com/pterodactyl/telemetry/loggers/cli"
)

// Configures the global logger so that we can call it from any location in
// the code without having to pass around a logger instance. When a directory
// is given the output is also written to a file inside it which is reopened
// on SIGHUP, allowing logrotate to move it out of the way.
func configureLogging(logDir string, debug bool) error {
	if debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}

	if logDir == "" {
		log.SetHandler(cli.Default)
		return nil
	}

	p := filepath.Join(logDir, "telemetry.log")
	w, err := logrotate.NewFile(p)
	if err != nil {
		return errors.WrapIf(err, "failed to open process log file")
	}

	log.SetHandler(multi.New(
		cli.Default,
		cli.New(w.File, false),
	))

	log.WithField("path", p).Info("writing log files to disk")
	return nil
}
