package alert

import (
	"encoding/json"
	"fmt"
)

// FormatPayload builds the webhook body for the given format.
func FormatPayload(format string, event AlertEvent) ([]byte, error) {
	switch format {
	case "slack":
		return formatSlack(event)
	case "pagerduty":
		return formatPagerDuty(event)
	default:
		return formatGeneric(event)
	}
}

func formatGeneric(event AlertEvent) ([]byte, error) {
	return json.Marshal(event)
}

func formatSlack(event AlertEvent) ([]byte, error) {
	payload := map[string]any{
		"blocks": []any{
			map[string]any{
				"type": "header",
				"text": map[string]any{
					"type": "plain_text",
					"text": fmt.Sprintf("cellwatch: %s", event.Type),
				},
			},
			map[string]any{
				"type": "section",
				"fields": []any{
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Order:* %s (%d/%d bytes)", orderLabel(event.OrderID), event.OrderLength, event.MaxOrderLen)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Conveyor:* %s", runLabel(event.ConveyorRun))},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*E-Stop OK:* %t", event.EmergencyOK)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Quality:* %d", event.QualityScore)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Compromised:* %t", event.Compromised)},
				},
			},
		},
	}
	return json.Marshal(payload)
}

func formatPagerDuty(event AlertEvent) ([]byte, error) {
	payload := map[string]any{
		"event_action": "trigger",
		"payload": map[string]any{
			"summary":  fmt.Sprintf("cellwatch %s: order %s", event.Type, orderLabel(event.OrderID)),
			"severity": severityFor(event.Type),
			"source":   "cellwatch",
			"custom_details": map[string]any{
				"order_id":      event.OrderID,
				"order_length":  event.OrderLength,
				"max_order_len": event.MaxOrderLen,
				"conveyor_run":  event.ConveyorRun,
				"emergency_ok":  event.EmergencyOK,
				"quality_score": event.QualityScore,
				"compromised":   event.Compromised,
			},
		},
	}
	return json.Marshal(payload)
}

func severityFor(eventType string) string {
	switch eventType {
	case EventCompromised:
		return "critical"
	case EventOversized:
		return "error"
	default:
		return "info"
	}
}

func runLabel(run bool) string {
	if run {
		return "RUN"
	}
	return "STOP"
}

func orderLabel(id string) string {
	if id == "" {
		return "-"
	}
	return id
}
