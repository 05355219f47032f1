package cmd

import (
	"time"

	"emperror.dev/errors"
	"github.com/spf13/cobra"

	"github.com/pterodactyl/telemetry/config"
	"github.com/pterodactyl/telemetry/stats"
)

// overrides holds every flag that can replace a value from the configuration
// file. A flag only takes effect if it was passed on the command line.
type overrides struct {
	node        string
	mode        string
	host        string
	port        int
	protocol    string
	table       string
	diskTable   string
	interval    int
	disks       []string
	source      string
	pollDelay   time.Duration
	metricsBind string
}

func (o *overrides) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.node, "node", "n", "", "the host label written with every row")
	f.StringVarP(&o.mode, "mode", "m", "average", "how samples are reduced within a window, average or maximum")
	f.StringVarP(&o.host, "questdb", "q", "localhost", "the questdb host to publish to")
	f.IntVarP(&o.port, "port", "p", 9000, "the questdb port to publish to")
	f.StringVar(&o.protocol, "protocol", "http", "the protocol used to talk to questdb: http, https, tcp or tcps")
	f.StringVarP(&o.table, "table", "t", "containerStats", "the table container statistics are written to")
	f.StringVar(&o.diskTable, "disk-table", "diskStats", "the table disk statistics are written to")
	f.IntVarP(&o.interval, "interval", "i", 5, "the length of a publish window in minutes (1-15)")
	f.StringArrayVar(&o.disks, "disk", nil, "a device to report disk usage for, may be repeated")
	f.StringVar(&o.source, "source", "cli", "where statistics are read from, cli or api")
	f.DurationVar(&o.pollDelay, "poll-delay", 0, "the time to wait between two polls")
	f.StringVar(&o.metricsBind, "metrics-bind", "", "the address to serve prometheus metrics on")
}

func (o *overrides) apply(cmd *cobra.Command, c *config.Configuration) error {
	f := cmd.Flags()
	if f.Changed("node") {
		c.Node = o.node
	}
	if f.Changed("mode") {
		m, err := stats.ParseMode(o.mode)
		if err != nil {
			return errors.WithStack(err)
		}
		c.Mode = m
	}
	if f.Changed("questdb") {
		c.QuestDB.Host = o.host
	}
	if f.Changed("port") {
		c.QuestDB.Port = o.port
	}
	if f.Changed("protocol") {
		c.QuestDB.Protocol = o.protocol
	}
	if f.Changed("table") {
		c.QuestDB.Table = o.table
	}
	if f.Changed("disk-table") {
		c.QuestDB.DiskTable = o.diskTable
	}
	if f.Changed("interval") {
		c.Interval = o.interval
	}
	if f.Changed("disk") {
		c.Disks = o.disks
	}
	if f.Changed("source") {
		c.Source = o.source
	}
	if f.Changed("poll-delay") {
		c.PollDelay = o.pollDelay
	}
	if f.Changed("metrics-bind") {
		c.Metrics.Bind = o.metricsBind
	}
	return nil
}
