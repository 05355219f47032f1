package source

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"emperror.dev/errors"

	"github.com/pterodactyl/telemetry/stats"
)

// CLI reads statistics by running the docker command line client.
type CLI struct {
	// Binary is the name or path of the executable, defaults to "docker".
	Binary string
	// Host is passed along as "-H" when set.
	Host string
}

func (c *CLI) args() []string {
	var args []string
	if c.Host != "" {
		args = append(args, "-H", c.Host)
	}
	return append(args, "stats", "--no-stream", "--format", "json")
}

func (c *CLI) Read(ctx context.Context) ([]stats.Record, error) {
	bin := c.Binary
	if bin == "" {
		bin = "docker"
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, c.args()...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, errors.WithDetails(errors.Wrap(err, "source: failed to run docker stats"), "stderr", msg)
		}
		return nil, errors.Wrap(err, "source: failed to run docker stats")
	}
	return DecodeRecords(bytes.NewReader(out))
}
