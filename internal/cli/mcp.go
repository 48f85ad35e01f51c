package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	cellmcp "github.com/ppiankov/cellwatch/internal/mcp"
)

func init() {
	rootCmd.AddCommand(mcpCmd)
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP tool server for agent integration",
	Long: "Runs a cell controller as an MCP (Model Context Protocol) server over stdio.\n" +
		"Exposes tools: cell_apply_order, cell_state, cell_reset, cell_check.",
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, hash, err := loadConfig()
	if err != nil {
		return err
	}
	// stdout carries the protocol; logs go to stderr only.
	logger, _, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	svc, closeSvc, err := newService(cfg, hash, logger)
	if err != nil {
		return err
	}
	defer closeSvc()

	srv, err := cellmcp.New(cellmcp.Config{Service: svc, Version: version})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down MCP server...")
		cancel()
	}()

	fmt.Fprintln(os.Stderr, "cellwatch MCP server running on stdio")

	err = srv.Run(ctx)

	st := svc.State()
	fmt.Fprintf(os.Stderr, "\nFinal state: run=%t estop_ok=%t quality=%d compromised=%t\n",
		st.ConveyorRun, st.EmergencyOK, st.QualityScore, st.Compromised)
	return err
}
