package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/cellwatch/internal/directive"
)

var (
	checkFile   string
	checkFormat string
)

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkFile, "file", "", "Read the order from a file")
	checkCmd.Flags().StringVarP(&checkFormat, "format", "f", "text", "Output format (text|json)")
}

var checkCmd = &cobra.Command{
	Use:   "check [order]",
	Short: "Check an order without applying it",
	Long: "Parses an order in strict mode and compares its length with the configured\n" +
		"bound. Nothing is applied.\n\n" +
		"Exit code 0 if the order is clean, 1 if it is oversized or malformed.\n" +
		"Use in HMI upload pipelines to reject orders before they reach the cell.",
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

// CheckReport describes how an order would be handled.
type CheckReport struct {
	Length      int                   `json:"length"`
	MaxOrderLen int                   `json:"max_order_len"`
	Oversized   bool                  `json:"oversized"`
	Directives  []directive.Directive `json:"directives"`
	Unknown     []string              `json:"unknown,omitempty"`
	Problem     string                `json:"problem,omitempty"`
	Offset      int                   `json:"offset,omitempty"`
}

// OK reports whether the order is safe to apply.
func (r CheckReport) OK() bool {
	return !r.Oversized && r.Problem == ""
}

func buildCheckReport(order string, maxLen int) CheckReport {
	if i := strings.IndexByte(order, 0); i >= 0 {
		order = order[:i]
	}
	r := CheckReport{
		Length:      len(order),
		MaxOrderLen: maxLen,
		Oversized:   len(order) > maxLen,
		Directives:  []directive.Directive{},
	}
	for d := range directive.All(order) {
		r.Directives = append(r.Directives, d)
		if !d.Known() {
			r.Unknown = append(r.Unknown, d.Key)
		}
	}
	if err := directive.Validate(order); err != nil {
		r.Problem = err.Error()
		var de *directive.DirectiveError
		if errors.As(err, &de) {
			r.Offset = de.Offset
		}
	}
	return r
}

func runCheck(cmd *cobra.Command, args []string) error {
	var order string
	switch {
	case checkFile != "" && len(args) == 0:
		data, err := os.ReadFile(checkFile)
		if err != nil {
			return fmt.Errorf("read order file: %w", err)
		}
		order = strings.TrimRight(string(data), "\n")
	case checkFile == "" && len(args) == 1:
		order = args[0]
	default:
		return fmt.Errorf("exactly one of [order] or --file is required")
	}

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	report := buildCheckReport(order, cfg.Controller.MaxOrderLen)

	switch checkFormat {
	case "json":
		if err := printJSON(report); err != nil {
			return err
		}
	default:
		fmt.Print(formatCheckReport(report))
	}

	if !report.OK() {
		os.Exit(1)
	}
	return nil
}

func formatCheckReport(r CheckReport) string {
	var b strings.Builder
	status := "OK"
	if !r.OK() {
		status = "FAIL"
	}
	fmt.Fprintf(&b, "%s: %d/%d bytes\n", status, r.Length, r.MaxOrderLen)
	if r.Oversized {
		fmt.Fprintf(&b, "  oversized: would compromise the controller\n")
	}
	for _, d := range r.Directives {
		mark := " "
		if !d.Known() {
			mark = "?"
		}
		fmt.Fprintf(&b, "  %s %s=%s\n", mark, d.Key, d.Value)
	}
	if r.Problem != "" {
		fmt.Fprintf(&b, "  problem: %s\n", r.Problem)
	}
	return b.String()
}
