package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/cellwatch/internal/config"
	"github.com/ppiankov/cellwatch/internal/historian"
	"github.com/ppiankov/cellwatch/internal/server"
	"github.com/ppiankov/cellwatch/internal/systemd"
)

var (
	servePort     int
	serveAuditLog string
	serveHistory  string
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "gRPC listen port (default from config, 50502)")
	serveCmd.Flags().StringVar(&serveAuditLog, "audit-log", "", "Path to audit log JSONL file (overrides config)")
	serveCmd.Flags().StringVar(&serveHistory, "historian", "", "Path to historian SQLite file (overrides config)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start gRPC cell controller server",
	Long: "Runs the cell controller behind a gRPC endpoint.\n" +
		"HMI uploads and gateways apply orders remotely; state is sampled into the\n" +
		"historian and every order is written to the audit log.\n" +
		"Supports hot-reload of the config file.",
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, hash, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if serveAuditLog != "" {
		cfg.AuditLog = serveAuditLog
	}
	if serveHistory != "" {
		cfg.Historian.Path = serveHistory
	}

	logger, level, err := newLogger(cfg, true)
	if err != nil {
		return err
	}

	if msg := systemd.CheckUnitFileIntegrity(systemd.UnitPath); msg != "" {
		logger.Warn("unit file integrity", "warning", msg)
	}

	svc, closeSvc, err := newService(cfg, hash, logger)
	if err != nil {
		return err
	}
	defer closeSvc()

	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	srv, err := server.New(server.Config{
		Port:       cfg.Server.Port,
		ConfigPath: path,
		Service:    svc,
		Logger:     logger,
		LevelVar:   level,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start hot-reload watcher for the config file
	reloader, err := server.NewReloader(srv, []string{path}, logger)
	if err != nil {
		logger.Warn("hot-reload disabled", "error", err)
	} else {
		go reloader.Run(ctx)
	}

	if cfg.Historian.Path != "" {
		store, err := historian.NewStore(cfg.Historian.Path)
		if err != nil {
			return fmt.Errorf("failed to open historian: %w", err)
		}
		defer store.Close()
		sampler := historian.NewSampler(store, svc.Controller(), cfg.Historian.Interval, logger)
		go sampler.Run(ctx)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down cell controller...")
		cancel()
		srv.GracefulStop()
	}()

	logger.Info("cell controller listening",
		"port", cfg.Server.Port,
		"max_order_len", cfg.Controller.MaxOrderLen,
		"oversize", cfg.Controller.Oversize,
		"interlock", cfg.Controller.Interlock,
		"audit_log", cfg.AuditLog,
		"historian", cfg.Historian.Path,
		"config_hash", hash)

	return srv.Serve()
}
