package cmd

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/apex/log"
	"github.com/spf13/cobra"
)

var (
	serviceFile     = "/etc/systemd/system/telemetry.service"
	serviceTemplate = `[Unit]
Description=Pterodactyl Container Telemetry
After=docker.service
Requires=docker.service
PartOf=docker.service

[Service]
Type=notify
User=root
ExecStart=%s --config %s
WatchdogSec=300
Restart=on-failure
StartLimitInterval=180
StartLimitBurst=30
RestartSec=5s

[Install]
WantedBy=multi-user.target
`
	serviceCmd = &cobra.Command{
		Use:   "service-install",
		Short: "Install and start a systemd unit for the collector",
		Run:   installService,
	}
)

// serviceUnit returns the systemd unit for the collector. The unit is of the
// notify type, so systemd waits for the collector to report it is ready and
// restarts it if polling ever stalls.
func serviceUnit(binary, configPath string) string {
	return fmt.Sprintf(serviceTemplate, binary, configPath)
}

func installService(cmd *cobra.Command, args []string) {
	if _, err := os.Stat(serviceFile); err == nil {
		log.WithField("path", serviceFile).Fatal("service is already installed")
		return
	}

	bin, err := os.Executable()
	if err != nil {
		log.WithField("error", err).Fatal("failed to determine path of the running executable")
		return
	}

	if err := os.WriteFile(serviceFile, []byte(serviceUnit(bin, configPath)), 0o644); err != nil {
		log.WithField("error", err).Fatal("error while writing service file")
		return
	}

	if err := exec.Command("systemctl", "daemon-reload").Run(); err != nil {
		log.WithField("error", err).Fatal("error while reloading daemon")
		return
	}

	if err := exec.Command("systemctl", "enable", "--now", "telemetry.service").Run(); err != nil {
		log.WithField("error", err).Fatal("error while enabling service")
		return
	}

	fmt.Println("service created successfully!")
}
