package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/cellwatch/internal/controller"
)

// TimestampFormat is the layout used in audit entry timestamps.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// ReplayFilter holds filtering criteria for replay.
type ReplayFilter struct {
	Source string    // empty = any source
	From   time.Time // zero value = no lower bound
	To     time.Time // zero value = no upper bound
}

// ReplaySummary holds event counts for a replayed log.
type ReplaySummary struct {
	Total          int    `json:"total"`
	ApplyCount     int    `json:"apply_count"`
	ResetCount     int    `json:"reset_count"`
	OversizedCount int    `json:"oversized_count"`
	TripCount      int    `json:"trip_count"`
	FirstTimestamp string `json:"first_timestamp"`
	LastTimestamp  string `json:"last_timestamp"`
}

// ReplayResult holds filtered entries and their summary.
type ReplayResult struct {
	Entries []AuditEntry  `json:"entries"`
	Summary ReplaySummary `json:"summary"`
}

// Replay reads the audit log and returns entries matching the filter.
func Replay(path string, filter ReplayFilter) (*ReplayResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	result := &ReplayResult{}

	scanner := newScanner(f)
	for scanner.Scan() {
		var entry AuditEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue // skip malformed lines
		}

		if filter.Source != "" && entry.Source != filter.Source {
			continue
		}

		if !filter.From.IsZero() || !filter.To.IsZero() {
			ts, err := time.Parse(TimestampFormat, entry.Timestamp)
			if err != nil {
				continue
			}
			if !filter.From.IsZero() && ts.Before(filter.From) {
				continue
			}
			if !filter.To.IsZero() && ts.After(filter.To) {
				continue
			}
		}

		result.Entries = append(result.Entries, entry)
		updateSummary(&result.Summary, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}

	return result, nil
}

func updateSummary(s *ReplaySummary, entry AuditEntry) {
	s.Total++

	switch entry.Type {
	case TypeApply:
		s.ApplyCount++
	case TypeReset:
		s.ResetCount++
	}
	if entry.Oversized {
		s.OversizedCount++
	}
	if entry.Tripped {
		s.TripCount++
	}

	if s.FirstTimestamp == "" {
		s.FirstTimestamp = entry.Timestamp
	}
	s.LastTimestamp = entry.Timestamp
}

// Divergence is an entry whose recorded state differs from the state
// obtained by re-applying the log.
type Divergence struct {
	Index    int                 `json:"index"`
	OrderID  string              `json:"order_id"`
	Recorded controller.Snapshot `json:"recorded"`
	Replayed controller.Snapshot `json:"replayed"`
}

// Reconstruct re-applies every entry of an unfiltered replay to a fresh
// controller and reports entries whose recorded state does not match.
// The controller must be configured the way the recording one was.
func Reconstruct(entries []AuditEntry, c *controller.Controller) []Divergence {
	var out []Divergence
	for i, e := range entries {
		switch e.Type {
		case TypeApply:
			c.ApplyOrder(e.Order)
		case TypeReset:
			c.Reset()
		default:
			continue
		}
		if got := c.Snapshot(); got != e.State {
			out = append(out, Divergence{Index: i, OrderID: e.OrderID, Recorded: e.State, Replayed: got})
		}
	}
	return out
}
