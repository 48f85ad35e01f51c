package alert

// Event types a webhook can subscribe to.
const (
	EventCompromised = "compromised" // controller moved from trusted to compromised
	EventOversized   = "oversized"   // any oversized order, including repeats
	EventReset       = "reset"       // operator reset
)

// AlertConfig defines a webhook alert destination.
type AlertConfig struct {
	URL     string            `yaml:"url"     json:"url"`
	Format  string            `yaml:"format"  json:"format"` // "generic", "slack", "pagerduty"
	Events  []string          `yaml:"events"  json:"events"` // ["compromised", "oversized", "reset"]
	Headers map[string]string `yaml:"headers" json:"headers"`
}

// AlertEvent is the payload sent to webhook endpoints.
type AlertEvent struct {
	Timestamp    string `json:"timestamp"`
	Type         string `json:"type"`
	OrderID      string `json:"order_id,omitempty"`
	OrderLength  int    `json:"order_length"`
	MaxOrderLen  int    `json:"max_order_len"`
	ConveyorRun  bool   `json:"conveyor_run"`
	EmergencyOK  bool   `json:"emergency_ok"`
	QualityScore int    `json:"quality_score"`
	Compromised  bool   `json:"compromised"`
	ConfigHash   string `json:"config_hash,omitempty"`
	Source       string `json:"source,omitempty"` // "grpc", "mcp", "cli"
}
