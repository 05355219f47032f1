package config

import "time"

// DockerConfiguration defines how the collector talks to the Docker daemon.
type DockerConfiguration struct {
	// The docker client executable used by the "cli" source.
	Binary string `default:"docker" json:"binary" yaml:"binary"`

	// The daemon to connect to. When empty the DOCKER_HOST environment variable
	// or the default socket is used.
	Host string `json:"host" yaml:"host"`

	// How long the "api" source waits for the daemon to respond when first
	// booting before giving up.
	Timeout time.Duration `default:"30s" json:"timeout" yaml:"timeout"`
}
