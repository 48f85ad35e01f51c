package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/cellwatch/internal/client"
	"github.com/ppiankov/cellwatch/internal/registers"
	"github.com/ppiankov/cellwatch/internal/service"
)

var (
	applyAddr      string
	applyFile      string
	applyRegisters string
)

func init() {
	rootCmd.AddCommand(applyCmd)
	applyCmd.Flags().StringVar(&applyAddr, "addr", "", "Remote controller address (host:port); local one-shot controller when empty")
	applyCmd.Flags().StringVar(&applyFile, "file", "", "Read the order from a file (HMI upload)")
	applyCmd.Flags().StringVar(&applyRegisters, "registers", "", "Read the order from a register dump JSON file")
}

var applyCmd = &cobra.Command{
	Use:   "apply [order]",
	Short: "Apply a production order",
	Long: "Applies an order such as RUN=1,ESTOP_OK=1,QUALITY=87 and prints the result as JSON.\n\n" +
		"Without --addr the order runs against a fresh controller built from the config,\n" +
		"which shows exactly how an order would be handled from the power-on state.\n" +
		"Exit code 2 if the order compromised the controller.",
	Args: cobra.MaximumNArgs(1),
	RunE: runApply,
}

// registerDump is the JSON form of a gateway register read.
type registerDump struct {
	Length int      `json:"length"`
	Words  []uint16 `json:"words"`
}

func readOrder(args []string) (string, error) {
	sources := 0
	if len(args) == 1 {
		sources++
	}
	if applyFile != "" {
		sources++
	}
	if applyRegisters != "" {
		sources++
	}
	if sources != 1 {
		return "", fmt.Errorf("exactly one of [order], --file or --registers is required")
	}

	switch {
	case applyFile != "":
		data, err := os.ReadFile(applyFile)
		if err != nil {
			return "", fmt.Errorf("read order file: %w", err)
		}
		// Editors append a newline; a trailing separator is harmless but
		// counts toward the length.
		return strings.TrimRight(string(data), "\n"), nil
	case applyRegisters != "":
		data, err := os.ReadFile(applyRegisters)
		if err != nil {
			return "", fmt.Errorf("read register dump: %w", err)
		}
		var dump registerDump
		if err := json.Unmarshal(data, &dump); err != nil {
			return "", fmt.Errorf("parse register dump: %w", err)
		}
		return registers.DecodeOrder(dump.Words, dump.Length), nil
	default:
		return args[0], nil
	}
}

func runApply(cmd *cobra.Command, args []string) error {
	order, err := readOrder(args)
	if err != nil {
		return err
	}

	if applyAddr != "" {
		return applyRemote(order)
	}

	cfg, hash, err := loadConfig()
	if err != nil {
		return err
	}
	logger, _, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	svc, closeSvc, err := newService(cfg, hash, logger)
	if err != nil {
		return err
	}
	defer closeSvc()

	out := svc.ApplyOrder(service.SourceCLI, order)
	if err := printJSON(out); err != nil {
		return err
	}
	if out.After.Compromised {
		closeSvc()
		os.Exit(2)
	}
	return nil
}

func applyRemote(order string) error {
	c, err := client.New(applyAddr)
	if err != nil {
		return err
	}
	defer c.Close()

	res, err := c.ApplyOrder(order)
	if err != nil {
		return err
	}
	if err := printJSON(res); err != nil {
		return err
	}
	if res.State.Compromised {
		c.Close()
		os.Exit(2)
	}
	return nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
