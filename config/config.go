package config

import (
	"os"
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"

	"github.com/pterodactyl/telemetry/stats"
)

const DefaultLocation = "/etc/pterodactyl/telemetry.yml"

var (
	mu      sync.RWMutex
	_config *Configuration
)

type Configuration struct {
	// Determines if the collector should be running in debug mode. This value is
	// ignored if the debug flag is passed through the command line arguments.
	Debug bool `json:"debug" yaml:"debug"`

	// The host label written alongside every row. This is required and is
	// usually the name of the node the collector runs on.
	Node string `json:"node" yaml:"node"`

	// How the samples of a single container are reduced within a window, either
	// "average" or "maximum".
	Mode stats.Mode `json:"mode" yaml:"mode"`

	// The length of each publish window in minutes.
	Interval int `default:"5" json:"interval" yaml:"interval"`

	// The amount of time to wait between two polls of the container runtime. By
	// default the runtime is polled again as soon as the previous poll returns.
	PollDelay time.Duration `default:"0s" json:"poll_delay" yaml:"poll_delay"`

	// Where container statistics are read from, "cli" runs the docker client
	// while "api" talks to the daemon directly.
	Source string `default:"cli" json:"source" yaml:"source"`

	// Device names, as listed in the mount table, to report disk usage for.
	Disks []string `json:"disks" yaml:"disks"`

	Docker  DockerConfiguration  `json:"docker" yaml:"docker"`
	QuestDB QuestDBConfiguration `json:"questdb" yaml:"questdb"`
	System  SystemConfiguration  `json:"system" yaml:"system"`
	Metrics MetricsConfiguration `json:"metrics" yaml:"metrics"`
}

// MetricsConfiguration controls the prometheus endpoint of the collector.
type MetricsConfiguration struct {
	// The address to serve metrics on, leaving it empty disables the endpoint.
	Bind string `json:"bind" yaml:"bind"`
}

// New returns a new configuration with every default value applied.
func New() (*Configuration, error) {
	var c Configuration
	if err := defaults.Set(&c); err != nil {
		return nil, errors.Wrap(err, "config: could not set default values")
	}
	return &c, nil
}

// FromFile reads the configuration from the provided file. Environment
// variables are expanded before the file is parsed and any value not set in
// the file keeps its default.
func FromFile(path string) (*Configuration, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	c, err := New()
	if err != nil {
		return nil, err
	}
	// Replace environment variables within the configuration file with their
	// values from the host system.
	b = []byte(os.ExpandEnv(string(b)))
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, errors.WrapIf(err, "config: failed to parse configuration file")
	}
	return c, nil
}

// Validate checks that the configuration can be used to start the collector.
func (c *Configuration) Validate() error {
	if c.Node == "" {
		return errors.New("config: node must be set")
	}
	if c.Interval < 1 || c.Interval > 15 {
		return errors.Errorf("config: interval must be between 1 and 15 minutes, got %d", c.Interval)
	}
	if c.Mode != stats.Average && c.Mode != stats.Maximum {
		return errors.Errorf("config: unknown aggregation mode %d", c.Mode)
	}
	if c.PollDelay < 0 {
		return errors.New("config: poll_delay cannot be negative")
	}
	switch c.Source {
	case "cli", "api":
	default:
		return errors.Errorf("config: unknown statistics source %q", c.Source)
	}
	return c.QuestDB.Validate()
}

// WindowInterval returns the configured interval as a duration.
func (c *Configuration) WindowInterval() time.Duration {
	return time.Duration(c.Interval) * time.Minute
}

// Set the global configuration instance.
func Set(c *Configuration) {
	mu.Lock()
	_config = c
	mu.Unlock()
}

// Get returns a copy of the global configuration, or nil if none has been set
// yet. Changing the copy does not affect the global configuration.
func Get() *Configuration {
	mu.RLock()
	defer mu.RUnlock()
	if _config == nil {
		return nil
	}
	c := *_config
	c.Disks = append([]string(nil), _config.Disks...)
	return &c
}
