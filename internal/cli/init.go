package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ppiankov/cellwatch/internal/config"
	"github.com/ppiankov/cellwatch/internal/systemd"
)

var (
	initMode           string
	initInstallSystemd bool
	initForce          bool
)

func init() {
	initCmd.Flags().StringVar(&initMode, "mode", "user", "Config location: user (~/.cellwatch) or system (/etc/cellwatch)")
	initCmd.Flags().BoolVar(&initInstallSystemd, "install-systemd", false, "Install cellwatch.service unit (requires root)")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing config files")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Bootstrap cellwatch configuration and optional systemd integration",
	Long: `Creates the config directory and a commented default config.yaml.

User mode (default):  writes to ~/.cellwatch/
System mode:          writes to /etc/cellwatch/ (requires root)

With --install-systemd: installs cellwatch.service running the gRPC
controller with the system config, and records its hash so serve can
warn when the unit is edited.`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	configDir, err := initConfigDir()
	if err != nil {
		return err
	}

	var created []string

	cfgPath := filepath.Join(configDir, "config.yaml")
	if wrote, err := writeIfMissing(cfgPath, config.DefaultConfigYAML()); err != nil {
		return err
	} else if wrote {
		created = append(created, cfgPath)
	}

	// Install systemd unit if requested.
	if initInstallSystemd {
		if runtime.GOOS != "linux" {
			return fmt.Errorf("--install-systemd is only supported on Linux")
		}
		if os.Geteuid() != 0 {
			return fmt.Errorf("--install-systemd requires root; run with sudo")
		}

		binary, err := os.Executable()
		if err != nil {
			binary = "/usr/local/bin/cellwatch"
		}
		content := systemd.ServiceTemplate(binary, cfgPath)
		if err := os.WriteFile(systemd.UnitPath, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write systemd unit: %w", err)
		}
		created = append(created, systemd.UnitPath)

		if err := systemd.RecordUnitFileHash(systemd.UnitPath); err != nil {
			fmt.Fprintf(os.Stderr, "warning: unit hash not recorded: %v\n", err)
		}

		// Reload systemd.
		if err := exec.Command("systemctl", "daemon-reload").Run(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: systemctl daemon-reload failed: %v\n", err)
		}
	}

	// Print summary.
	fmt.Println("cellwatch init complete.")
	fmt.Println()
	if len(created) > 0 {
		fmt.Println("Created:")
		for _, path := range created {
			fmt.Printf("  %s\n", path)
		}
		fmt.Println()
	} else {
		fmt.Println("All files already exist (use --force to overwrite).")
		fmt.Println()
	}

	fmt.Println("Check an order:")
	fmt.Println("  cellwatch check 'RUN=1,ESTOP_OK=1,QUALITY=87'")
	fmt.Println()
	if initInstallSystemd {
		fmt.Println("Start the controller:")
		fmt.Println("  sudo systemctl enable --now cellwatch")
	} else {
		fmt.Println("Start the controller:")
		fmt.Printf("  cellwatch serve --config %s\n", cfgPath)
	}

	return nil
}

// initConfigDir returns the configuration directory based on mode.
func initConfigDir() (string, error) {
	switch initMode {
	case "system":
		return "/etc/cellwatch", nil
	case "user", "":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(home, ".cellwatch"), nil
	default:
		return "", fmt.Errorf("unknown mode %q: use 'user' or 'system'", initMode)
	}
}

// writeIfMissing writes content to path if it doesn't exist or --force is set.
// Returns true if the file was written.
func writeIfMissing(path, content string) (bool, error) {
	if !initForce {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}
