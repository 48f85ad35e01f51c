// Package service is the single entry point for orders arriving over any
// transport. It applies the order to the controller and turns the outcome
// into log lines, audit entries and alerts.
package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/cellwatch/internal/alert"
	"github.com/ppiankov/cellwatch/internal/audit"
	"github.com/ppiankov/cellwatch/internal/config"
	"github.com/ppiankov/cellwatch/internal/controller"
)

// Order sources recorded in audit entries and alerts.
const (
	SourceGRPC = "grpc"
	SourceMCP  = "mcp"
	SourceCLI  = "cli"
)

// Config holds service dependencies. Only Controller is required.
type Config struct {
	Controller *controller.Controller
	AuditLog   *audit.Log
	Alerts     []alert.AlertConfig
	ConfigHash string
	Logger     *slog.Logger
}

// Outcome is the result of one order as seen by transports.
type Outcome struct {
	OrderID string
	Source  string
	controller.Result
}

// Service serializes orders against one controller.
type Service struct {
	ctrl     *controller.Controller
	auditLog *audit.Log
	logger   *slog.Logger

	// seq keeps audit order identical to application order.
	seq sync.Mutex

	mu         sync.RWMutex
	dispatcher *alert.Dispatcher
	configHash string
}

// New creates a service. A nil controller gets a default one.
func New(cfg Config) *Service {
	ctrl := cfg.Controller
	if ctrl == nil {
		ctrl = controller.New()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		ctrl:       ctrl,
		auditLog:   cfg.AuditLog,
		logger:     logger,
		dispatcher: alert.NewDispatcher(cfg.Alerts, logger),
		configHash: cfg.ConfigHash,
	}
}

// Controller returns the controller behind the service.
func (s *Service) Controller() *controller.Controller {
	return s.ctrl
}

// State returns a consistent snapshot of the controller.
func (s *Service) State() controller.Snapshot {
	return s.ctrl.Snapshot()
}

// ApplyOrder applies an order received from source.
func (s *Service) ApplyOrder(source, order string) Outcome {
	s.seq.Lock()
	defer s.seq.Unlock()

	out := Outcome{
		OrderID: newOrderID(),
		Source:  source,
		Result:  s.ctrl.Apply(order),
	}
	hash, dispatcher := s.current()

	s.logOutcome(out)
	s.record(audit.AuditEntry{
		OrderID:    out.OrderID,
		Type:       audit.TypeApply,
		Source:     source,
		Order:      order,
		Length:     out.Length,
		Oversized:  out.Oversized,
		Tripped:    out.Tripped,
		Applied:    out.Applied,
		Ignored:    out.Ignored,
		State:      out.After,
		ConfigHash: hash,
	})

	if dispatcher != nil && out.Oversized {
		event := s.event(alert.EventOversized, out.OrderID, source, out.Length, out.After, hash)
		dispatcher.Dispatch(event)
		if out.Tripped {
			event.Type = alert.EventCompromised
			dispatcher.Dispatch(event)
		}
	}
	return out
}

// Reset restores the controller's power-on state.
func (s *Service) Reset(source string) Outcome {
	s.seq.Lock()
	defer s.seq.Unlock()

	before := s.ctrl.Snapshot()
	s.ctrl.Reset()
	after := s.ctrl.Snapshot()

	out := Outcome{
		OrderID: newOrderID(),
		Source:  source,
		Result:  controller.Result{Before: before, After: after},
	}
	hash, dispatcher := s.current()

	s.logger.Info("controller reset", "order_id", out.OrderID, "source", source, "was_compromised", before.Compromised)
	s.record(audit.AuditEntry{
		OrderID:    out.OrderID,
		Type:       audit.TypeReset,
		Source:     source,
		State:      after,
		ConfigHash: hash,
	})
	if dispatcher != nil {
		dispatcher.Dispatch(s.event(alert.EventReset, out.OrderID, source, 0, after, hash))
	}
	return out
}

// Reconfigure applies a reloaded configuration: controller options, alert
// targets and the config hash stamped on audit entries.
func (s *Service) Reconfigure(cfg *config.Config, hash string) {
	s.ctrl.Configure(cfg.Controller.Options()...)

	s.mu.Lock()
	s.dispatcher = alert.NewDispatcher(cfg.Alerts, s.logger)
	s.configHash = hash
	s.mu.Unlock()

	s.logger.Info("configuration applied",
		"config_hash", hash,
		"max_order_len", cfg.Controller.MaxOrderLen,
		"oversize", cfg.Controller.Oversize,
		"interlock", cfg.Controller.Interlock,
		"alerts", len(cfg.Alerts))
}

func (s *Service) current() (string, *alert.Dispatcher) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.configHash, s.dispatcher
}

func (s *Service) record(entry audit.AuditEntry) {
	if s.auditLog == nil {
		return
	}
	if err := s.auditLog.Record(entry); err != nil {
		s.logger.Warn("audit record failed", "order_id", entry.OrderID, "error", err)
	}
}

func (s *Service) logOutcome(out Outcome) {
	attrs := []any{
		"order_id", out.OrderID,
		"source", out.Source,
		"length", out.Length,
		"applied", out.Applied,
		"ignored", out.Ignored,
		"conveyor_run", out.After.ConveyorRun,
		"emergency_ok", out.After.EmergencyOK,
		"quality_score", out.After.QualityScore,
	}
	switch {
	case out.Tripped:
		s.logger.Error("controller compromised by oversized order", append(attrs, "max_order_len", s.ctrl.MaxOrderLen())...)
	case out.Oversized:
		s.logger.Warn("oversized order", append(attrs, "max_order_len", s.ctrl.MaxOrderLen())...)
	default:
		s.logger.Info("order applied", attrs...)
	}
}

func (s *Service) event(eventType, orderID, source string, length int, state controller.Snapshot, hash string) alert.AlertEvent {
	return alert.AlertEvent{
		Timestamp:    time.Now().UTC().Format(audit.TimestampFormat),
		Type:         eventType,
		OrderID:      orderID,
		OrderLength:  length,
		MaxOrderLen:  s.ctrl.MaxOrderLen(),
		ConveyorRun:  state.ConveyorRun,
		EmergencyOK:  state.EmergencyOK,
		QualityScore: state.QualityScore,
		Compromised:  state.Compromised,
		ConfigHash:   hash,
		Source:       source,
	}
}

func newOrderID() string {
	return "o-" + uuid.NewString()
}
