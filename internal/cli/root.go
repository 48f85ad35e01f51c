package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/cellwatch/internal/audit"
	"github.com/ppiankov/cellwatch/internal/config"
	"github.com/ppiankov/cellwatch/internal/controller"
	"github.com/ppiankov/cellwatch/internal/logging"
	"github.com/ppiankov/cellwatch/internal/service"
)

var (
	configPath string
	logLevel   string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config YAML (default ~/.cellwatch/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug|info|warn|error)")
}

var rootCmd = &cobra.Command{
	Use:   "cellwatch",
	Short: "Manufacturing cell controller with fail-safe order handling",
	Long: "Applies production orders (RUN, ESTOP_OK, QUALITY directives) to a cell controller.\n" +
		"Orders that overflow the working buffer force the cell into its least-permissive\n" +
		"state and mark it compromised until reset.",
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads --config (or the default path) and applies --log-level.
func loadConfig() (*config.Config, string, error) {
	cfg, hash, err := config.LoadWithHash(configPath)
	if err != nil {
		return nil, "", err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, hash, nil
}

func newLogger(cfg *config.Config, journal bool) (*slog.Logger, *slog.LevelVar, error) {
	logger, level, err := logging.New(logging.Options{Level: cfg.Log.Level, Journal: journal})
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level: %w", err)
	}
	return logger, level, nil
}

// newService builds an order service from cfg. The returned close function
// releases the audit log.
func newService(cfg *config.Config, hash string, logger *slog.Logger) (*service.Service, func(), error) {
	var auditLog *audit.Log
	if cfg.AuditLog != "" {
		var err error
		auditLog, err = audit.Open(cfg.AuditLog)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open audit log: %w", err)
		}
	}

	svc := service.New(service.Config{
		Controller: controller.New(cfg.Controller.Options()...),
		AuditLog:   auditLog,
		Alerts:     cfg.Alerts,
		ConfigHash: hash,
		Logger:     logger,
	})

	closeFn := func() {
		if auditLog != nil {
			auditLog.Close()
		}
	}
	return svc, closeFn, nil
}
