package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/cellwatch/internal/historian"
)

var (
	historyDB     string
	historyLimit  int
	historyFormat string
	historyPrune  time.Duration
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringVar(&historyDB, "db", "", "Historian SQLite file (default from config)")
	historyCmd.Flags().IntVarP(&historyLimit, "lines", "n", 15, "Number of recent samples to show")
	historyCmd.Flags().StringVarP(&historyFormat, "format", "f", "text", "Output format (text|json)")
	historyCmd.Flags().DurationVar(&historyPrune, "prune", 0, "Delete samples older than this age before listing")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show sampled controller state from the historian",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	path := historyDB
	if path == "" {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		path = cfg.Historian.Path
	}
	if path == "" {
		return fmt.Errorf("no historian configured: set historian.path or pass --db")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("historian: %w", err)
	}

	store, err := historian.NewStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	if historyPrune > 0 {
		n, err := store.Prune(ctx, time.Now().Add(-historyPrune))
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "pruned %d samples\n", n)
	}

	samples, err := store.Recent(ctx, historyLimit)
	if err != nil {
		return err
	}

	if historyFormat == "json" {
		return printJSON(samples)
	}

	total, err := store.Count(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tRUN\tESTOP_OK\tQUALITY\tCOMPROMISED")
	for _, s := range samples {
		fmt.Fprintf(w, "%s\t%t\t%t\t%d\t%t\n",
			s.Timestamp.Local().Format("2006-01-02 15:04:05"),
			s.State.ConveyorRun, s.State.EmergencyOK, s.State.QualityScore, s.State.Compromised)
	}
	w.Flush()
	fmt.Printf("\n%d of %d samples\n", len(samples), total)
	return nil
}
