package config

import (
	"emperror.dev/errors"

	"github.com/pterodactyl/telemetry/ingest"
)

// QuestDBConfiguration defines the database that statistics are written to.
type QuestDBConfiguration struct {
	// One of "http", "https", "tcp" or "tcps".
	Protocol string `default:"http" json:"protocol" yaml:"protocol"`
	Host     string `default:"localhost" json:"host" yaml:"host"`
	Port     int    `default:"9000" json:"port" yaml:"port"`

	// The table container statistics are written to.
	Table string `default:"containerStats" json:"table" yaml:"table"`

	// The table disk statistics are written to.
	DiskTable string `default:"diskStats" json:"disk_table" yaml:"disk_table"`
}

func (q *QuestDBConfiguration) Validate() error {
	switch q.Protocol {
	case "http", "https", "tcp", "tcps":
	default:
		return errors.Errorf("config: unknown questdb protocol %q", q.Protocol)
	}
	if q.Host == "" {
		return errors.New("config: questdb host must be set")
	}
	if q.Port < 1 || q.Port > 65535 {
		return errors.Errorf("config: questdb port %d is out of range", q.Port)
	}
	if err := ingest.ValidateTableName(q.Table); err != nil {
		return errors.WrapIf(err, "config: invalid container table")
	}
	if err := ingest.ValidateTableName(q.DiskTable); err != nil {
		return errors.WrapIf(err, "config: invalid disk table")
	}
	return nil
}

// Conf returns the client configuration string for the database.
func (q *QuestDBConfiguration) Conf() string {
	return ingest.Conf(q.Protocol, q.Host, q.Port)
}
