package mcp

import (
	"context"
	"errors"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/cellwatch/internal/controller"
	"github.com/ppiankov/cellwatch/internal/directive"
	"github.com/ppiankov/cellwatch/internal/service"
)

// --- Input/Output types ---

// ApplyOrderInput defines parameters for the cell_apply_order tool.
type ApplyOrderInput struct {
	Order string `json:"order" jsonschema:"production order, e.g. RUN=1,ESTOP_OK=1,QUALITY=87"`
}

// ApplyOrderOutput reports the effect of an order.
type ApplyOrderOutput struct {
	OrderID   string              `json:"order_id"`
	State     controller.Snapshot `json:"state"`
	Length    int                 `json:"length"`
	Oversized bool                `json:"oversized,omitempty"`
	Tripped   bool                `json:"tripped,omitempty"`
	Applied   int                 `json:"applied"`
	Ignored   int                 `json:"ignored"`
}

// StateInput is empty, no parameters needed.
type StateInput struct{}

// StateOutput is the current controller state.
type StateOutput struct {
	State controller.Snapshot `json:"state"`
}

// ResetInput is empty, no parameters needed.
type ResetInput struct{}

// ResetOutput is the state after reset.
type ResetOutput struct {
	OrderID        string              `json:"order_id"`
	WasCompromised bool                `json:"was_compromised"`
	State          controller.Snapshot `json:"state"`
}

// CheckInput defines parameters for the cell_check tool.
type CheckInput struct {
	Order string `json:"order" jsonschema:"production order to check"`
}

// CheckOutput describes how an order would be handled.
type CheckOutput struct {
	Length      int             `json:"length"`
	MaxOrderLen int             `json:"max_order_len"`
	Oversized   bool            `json:"oversized"`
	Directives  []DirectiveItem `json:"directives"`
	Problem     string          `json:"problem,omitempty"`
	Offset      int             `json:"offset,omitempty"`
}

// DirectiveItem is one parsed directive.
type DirectiveItem struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Known bool   `json:"known"`
}

// --- Handlers ---

func (s *Server) handleApplyOrder(ctx context.Context, req *mcpsdk.CallToolRequest, input ApplyOrderInput) (*mcpsdk.CallToolResult, ApplyOrderOutput, error) {
	out := s.svc.ApplyOrder(service.SourceMCP, input.Order)
	result := ApplyOrderOutput{
		OrderID:   out.OrderID,
		State:     out.After,
		Length:    out.Length,
		Oversized: out.Oversized,
		Tripped:   out.Tripped,
		Applied:   out.Applied,
		Ignored:   out.Ignored,
	}
	if out.Oversized {
		return &mcpsdk.CallToolResult{IsError: true}, result, nil
	}
	return nil, result, nil
}

func (s *Server) handleState(ctx context.Context, req *mcpsdk.CallToolRequest, input StateInput) (*mcpsdk.CallToolResult, StateOutput, error) {
	return nil, StateOutput{State: s.svc.State()}, nil
}

func (s *Server) handleReset(ctx context.Context, req *mcpsdk.CallToolRequest, input ResetInput) (*mcpsdk.CallToolResult, ResetOutput, error) {
	out := s.svc.Reset(service.SourceMCP)
	return nil, ResetOutput{
		OrderID:        out.OrderID,
		WasCompromised: out.Before.Compromised,
		State:          out.After,
	}, nil
}

func (s *Server) handleCheck(ctx context.Context, req *mcpsdk.CallToolRequest, input CheckInput) (*mcpsdk.CallToolResult, CheckOutput, error) {
	order := input.Order
	if i := strings.IndexByte(order, 0); i >= 0 {
		order = order[:i]
	}
	maxLen := s.svc.Controller().MaxOrderLen()

	out := CheckOutput{
		Length:      len(order),
		MaxOrderLen: maxLen,
		Oversized:   len(order) > maxLen,
		Directives:  []DirectiveItem{},
	}
	for d := range directive.All(order) {
		out.Directives = append(out.Directives, DirectiveItem{Key: d.Key, Value: d.Value, Known: d.Known()})
	}

	if err := directive.Validate(order); err != nil {
		out.Problem = err.Error()
		var de *directive.DirectiveError
		if errors.As(err, &de) {
			out.Offset = de.Offset
		}
	}
	if out.Oversized || out.Problem != "" {
		return &mcpsdk.CallToolResult{IsError: true}, out, nil
	}
	return nil, out, nil
}
