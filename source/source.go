// Package source reads point-in-time resource usage for every running
// container from the container runtime.
package source

import (
	"context"
	"io"

	"emperror.dev/errors"
	"github.com/goccy/go-json"

	"github.com/pterodactyl/telemetry/stats"
)

// Source returns one record per running container each time it is read.
type Source interface {
	Read(ctx context.Context) ([]stats.Record, error)
}

// DecodeRecords reads a stream of JSON objects, one per container, as printed
// by "docker stats --format json". An empty stream returns no records.
func DecodeRecords(r io.Reader) ([]stats.Record, error) {
	var out []stats.Record
	dec := json.NewDecoder(r)
	for {
		var rec stats.Record
		if err := dec.Decode(&rec); err != nil {
			if err == io.EOF {
				return out, nil
			}
			return nil, errors.Wrap(err, "source: failed to decode container statistics")
		}
		out = append(out, rec)
	}
}
