package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"emperror.dev/errors"
	"github.com/apex/log"
	"github.com/mitchellh/colorstring"
	"github.com/spf13/cobra"

	"github.com/pterodactyl/telemetry/collector"
	"github.com/pterodactyl/telemetry/config"
	"github.com/pterodactyl/telemetry/disk"
	"github.com/pterodactyl/telemetry/ingest"
	"github.com/pterodactyl/telemetry/internal/notify"
	"github.com/pterodactyl/telemetry/metrics"
	"github.com/pterodactyl/telemetry/source"
	"github.com/pterodactyl/telemetry/system"
)

var (
	configPath  = config.DefaultLocation
	debug       = false
	showVersion = false
	flags       overrides
)

var root = &cobra.Command{
	Use:   "telemetry",
	Short: "Collects container resource usage and publishes it to QuestDB",
	Long:  ``,
	Run:   rootCmdRun,
}

func init() {
	root.PersistentFlags().BoolVar(&showVersion, "version", false, "show the version and exit")
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultLocation, "set the location for the configuration file")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "pass in order to run the collector in debug mode")
	flags.bind(root)

	root.AddCommand(serviceCmd)
}

// Execute calls cobra to handle cli commands
func Execute() error {
	return root.Execute()
}

// readConfiguration loads the configuration file and applies any flags passed
// on the command line on top of it. The default location is allowed to not
// exist, in which case the flags are the only source of configuration.
func readConfiguration(cmd *cobra.Command) (*config.Configuration, error) {
	p, err := filepath.Abs(configPath)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var c *config.Configuration
	if s, err := os.Stat(p); err != nil {
		if !os.IsNotExist(err) || configPath != config.DefaultLocation {
			return nil, errors.WithStack(err)
		}
		if c, err = config.New(); err != nil {
			return nil, err
		}
	} else if s.IsDir() {
		return nil, errors.New("cannot use directory as configuration file path")
	} else if c, err = config.FromFile(p); err != nil {
		return nil, err
	}

	if err := flags.apply(cmd, c); err != nil {
		return nil, err
	}
	if debug {
		c.Debug = true
	}
	return c, c.Validate()
}

func rootCmdRun(cmd *cobra.Command, _ []string) {
	if showVersion {
		fmt.Println(system.Version)
		os.Exit(0)
	}

	c, err := readConfiguration(cmd)
	if err != nil {
		exitWithConfigurationNotice(err)
	}

	printLogo()
	if err := c.System.ConfigureDirectories(); err != nil {
		panic(err)
	}
	if err := configureLogging(c.System.LogDirectory, c.Debug); err != nil {
		panic(err)
	}
	if c.Debug {
		log.Debug("running in debug mode")
	}
	config.Set(c)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go metrics.Serve(ctx, c.Metrics.Bind)

	src, err := newSource(ctx, c)
	if err != nil {
		log.WithField("error", err).Fatal("failed to configure container statistics source")
		return
	}

	pub := &ingest.Publisher{
		Encoder: ingest.Encoder{Host: c.Node, Table: c.QuestDB.Table, DiskTable: c.QuestDB.DiskTable},
		Conf:    c.QuestDB.Conf(),
		Dial:    ingest.QuestDB,
		Disks:   c.Disks,
	}
	if len(c.Disks) > 0 {
		pub.DiskSource = disk.NewHost()
	}

	log.WithFields(log.Fields{
		"node":     c.Node,
		"mode":     c.Mode,
		"interval": c.WindowInterval(),
		"source":   c.Source,
		"questdb":  fmt.Sprintf("%s://%s:%d", c.QuestDB.Protocol, c.QuestDB.Host, c.QuestDB.Port),
		"disks":    c.Disks,
	}).Info("starting container telemetry collector")

	col := collector.New(collector.Options{
		Node:      c.Node,
		Mode:      c.Mode,
		Interval:  c.WindowInterval(),
		PollDelay: c.PollDelay,
	}, src, pub, notify.New())
	if err := col.Run(ctx); err != nil {
		log.WithField("error", err).Fatal("collector stopped unexpectedly")
	}
	log.Info("collector stopped")
}

func newSource(ctx context.Context, c *config.Configuration) (source.Source, error) {
	if c.Source == "api" {
		return source.NewAPI(ctx, c.Docker.Host, c.Docker.Timeout)
	}
	return &source.CLI{Binary: c.Docker.Binary, Host: c.Docker.Host}, nil
}

// Prints the collector banner.
func printLogo() {
	fmt.Printf(colorstring.Color(`
[blue][bold]Pterodactyl[reset] container telemetry [bold]v%s[reset]

 Polls docker for per-container resource usage and publishes one
 aggregated row per container and window to QuestDB.%s`), system.Version, "\n\n")
}

func exitWithConfigurationNotice(err error) {
	fmt.Print(colorstring.Color(`
[_red_][white][bold]Error: Invalid Configuration[reset]

The collector was not able to load its configuration, and therefore is not
able to complete its boot process.

`))
	fmt.Printf("%s\n\nConfiguration file: %s\n\n", err, configPath)
	os.Exit(1)
}
