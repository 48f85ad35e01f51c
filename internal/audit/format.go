package audit

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const separator = "──────────────────────────────────────────────────────────────────"

// FormatTimeline renders a ReplayResult as a human-readable text timeline.
func FormatTimeline(result *ReplayResult) string {
	if len(result.Entries) == 0 {
		return "No entries found.\n"
	}

	var b strings.Builder

	first := formatDateRange(result.Summary.FirstTimestamp)
	last := formatTimeOnly(result.Summary.LastTimestamp)
	fmt.Fprintf(&b, "Orders: %s–%s UTC\n", first, last)
	b.WriteString(separator + "\n")

	for _, e := range result.Entries {
		tag := ""
		switch {
		case e.Tripped:
			tag = "  [compromised]"
		case e.Oversized:
			tag = "  [oversized]"
		}
		fmt.Fprintf(&b, "%-10s %-6s %-5s Q=%-3d %-32s%s\n",
			formatTimeOnly(e.Timestamp),
			strings.ToUpper(e.Type),
			runLabel(e.State.ConveyorRun),
			e.State.QualityScore,
			truncate(strconv.Quote(e.Order), 32),
			tag)
	}

	b.WriteString(separator + "\n")
	b.WriteString(formatSummary(result.Summary))
	return b.String()
}

// FormatJSON renders a ReplayResult as indented JSON.
func FormatJSON(result *ReplayResult) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal replay result: %w", err)
	}
	return string(data), nil
}

func formatDateRange(ts string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatTimeOnly(ts string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("15:04:05")
}

func formatSummary(s ReplaySummary) string {
	parts := []string{fmt.Sprintf("%d apply", s.ApplyCount)}
	if s.ResetCount > 0 {
		parts = append(parts, fmt.Sprintf("%d reset", s.ResetCount))
	}
	if s.OversizedCount > 0 {
		parts = append(parts, fmt.Sprintf("%d oversized", s.OversizedCount))
	}
	if s.TripCount > 0 {
		parts = append(parts, fmt.Sprintf("%d compromise", s.TripCount))
	}
	return fmt.Sprintf("Summary: %s\n", strings.Join(parts, ", "))
}

func runLabel(run bool) string {
	if run {
		return "RUN"
	}
	return "STOP"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
