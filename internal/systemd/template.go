package systemd

import "fmt"

// UnitPath is where `cellwatch init --install-systemd` installs the unit.
const UnitPath = "/etc/systemd/system/cellwatch.service"

// ServiceTemplate returns the cellwatch.service unit running the gRPC
// controller with the given config file.
func ServiceTemplate(binary, configPath string) string {
	return fmt.Sprintf(`[Unit]
Description=Cellwatch manufacturing cell controller
After=network-online.target
Wants=network-online.target

[Service]
Type=simple
ExecStart=%s serve --config %s
Restart=on-failure
RestartSec=2
StateDirectory=cellwatch
NoNewPrivileges=true
PrivateTmp=true
ProtectSystem=strict
ProtectHome=read-only
ReadWritePaths=/var/lib/cellwatch

[Install]
WantedBy=multi-user.target
`, binary, configPath)
}
