package audit

import "github.com/ppiankov/cellwatch/internal/controller"

// Entry types.
const (
	TypeApply = "apply"
	TypeReset = "reset"
)

// MaxStoredOrder caps the order text kept in an entry. The full order is
// still identified by OrderSHA256.
const MaxStoredOrder = 4096

// AuditEntry is one line in the hash-chained JSONL audit log.
// All fields are structs (no map[string]any) to guarantee deterministic
// json.Marshal field order for reproducible hashing.
type AuditEntry struct {
	Timestamp   string              `json:"ts"`
	OrderID     string              `json:"order_id"`
	Type        string              `json:"type"`
	Source      string              `json:"source,omitempty"`
	Order       string              `json:"order,omitempty"`
	OrderSHA256 string              `json:"order_sha256,omitempty"`
	Length      int                 `json:"length"`
	Oversized   bool                `json:"oversized,omitempty"`
	Tripped     bool                `json:"tripped,omitempty"`
	Applied     int                 `json:"applied"`
	Ignored     int                 `json:"ignored"`
	State       controller.Snapshot `json:"state"`
	ConfigHash  string              `json:"config_hash"`
	PrevHash    string              `json:"prev_hash"`
}
