package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ppiankov/cellwatch/internal/audit"
	"github.com/ppiankov/cellwatch/internal/config"
	"github.com/ppiankov/cellwatch/internal/historian"
	"github.com/ppiankov/cellwatch/internal/systemd"
)

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check installation readiness and diagnose configuration issues",
	RunE:  runDoctor,
}

type checkResult struct {
	label  string
	ok     bool
	detail string
	fix    string
}

func runDoctor(cmd *cobra.Command, args []string) error {
	checks := doctorChecks()

	// Print results.
	hasFailures := false
	for _, c := range checks {
		mark := "\u2713" // ✓
		if !c.ok {
			mark = "\u2717" // ✗
			hasFailures = true
		}
		line := fmt.Sprintf("%s %-20s %s", mark, c.label+":", c.detail)
		if !c.ok && c.fix != "" {
			line += fmt.Sprintf("  ->  %s", c.fix)
		}
		fmt.Println(line)
	}

	if hasFailures {
		fmt.Println()
		fmt.Println("Some checks failed. Run the suggested commands to fix.")
		return fmt.Errorf("doctor found issues")
	}

	fmt.Println()
	fmt.Println("All checks passed.")
	return nil
}

func doctorChecks() []checkResult {
	var checks []checkResult

	// 1. Binary location and version.
	execPath, _ := os.Executable()
	if execPath != "" {
		checks = append(checks, checkResult{
			label:  "cellwatch binary",
			ok:     true,
			detail: fmt.Sprintf("%s (%s)", execPath, version),
		})
	} else {
		checks = append(checks, checkResult{
			label:  "cellwatch binary",
			ok:     false,
			detail: "cannot determine executable path",
		})
	}

	// 2. Config file.
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, hash, err := loadConfig()
	switch {
	case err != nil:
		checks = append(checks, checkResult{
			label:  "config",
			ok:     false,
			detail: err.Error(),
			fix:    "fix " + path,
		})
		return checks
	case fileExists(path):
		checks = append(checks, checkResult{
			label:  "config",
			ok:     true,
			detail: fmt.Sprintf("%s (%s)", path, hash[:min(len(hash), 19)]),
		})
	default:
		checks = append(checks, checkResult{
			label:  "config",
			ok:     false,
			detail: "missing, running on defaults",
			fix:    "cellwatch init",
		})
	}

	checks = append(checks, checkResult{
		label: "controller",
		ok:    true,
		detail: fmt.Sprintf("max_order_len=%d oversize=%s interlock=%t",
			cfg.Controller.MaxOrderLen, cfg.Controller.Oversize, cfg.Controller.Interlock),
	})

	// 3. Audit log chain.
	if cfg.AuditLog != "" {
		checks = append(checks, auditCheck(cfg.AuditLog))
	}

	// 4. Historian.
	if cfg.Historian.Path != "" {
		checks = append(checks, historianCheck(cfg.Historian.Path))
	}

	// 5. systemd (Linux only).
	if runtime.GOOS == "linux" {
		if !fileExists(systemd.UnitPath) {
			checks = append(checks, checkResult{
				label:  "cellwatch.service",
				ok:     false,
				detail: "not installed",
				fix:    "sudo cellwatch init --mode system --install-systemd",
			})
		} else if msg := systemd.CheckUnitFileIntegrity(systemd.UnitPath); msg != "" {
			checks = append(checks, checkResult{
				label:  "cellwatch.service",
				ok:     false,
				detail: msg,
				fix:    "sudo cellwatch init --mode system --install-systemd --force",
			})
		} else {
			checks = append(checks, checkResult{
				label:  "cellwatch.service",
				ok:     true,
				detail: "installed",
			})
		}
	}

	return checks
}

func auditCheck(path string) checkResult {
	if !fileExists(path) {
		return checkResult{label: "audit log", ok: true, detail: path + " (not created yet)"}
	}
	result := audit.Verify(path)
	if !result.Valid {
		return checkResult{
			label:  "audit log",
			ok:     false,
			detail: fmt.Sprintf("chain broken at line %d: %s", result.ErrorLine, result.Error),
			fix:    "cellwatch audit verify " + path,
		}
	}
	return checkResult{label: "audit log", ok: true, detail: fmt.Sprintf("%d entries verified", result.Lines)}
}

func historianCheck(path string) checkResult {
	store, err := historian.NewStore(path)
	if err != nil {
		return checkResult{label: "historian", ok: false, detail: err.Error()}
	}
	defer store.Close()
	n, err := store.Count(context.Background())
	if err != nil {
		return checkResult{label: "historian", ok: false, detail: err.Error()}
	}
	return checkResult{label: "historian", ok: true, detail: fmt.Sprintf("%s (%d samples)", path, n)}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
