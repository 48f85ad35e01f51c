package mcp

import (
	"context"
	"strings"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/cellwatch/internal/controller"
	"github.com/ppiankov/cellwatch/internal/service"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := New(Config{Service: service.New(service.Config{})})
	if err != nil {
		t.Fatalf("failed to create MCP server: %v", err)
	}
	return s
}

func TestNewRequiresService(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error without service")
	}
}

func TestApplyOrderTool(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	result, out, err := s.handleApplyOrder(ctx, &mcpsdk.CallToolRequest{}, ApplyOrderInput{Order: "RUN=1,ESTOP_OK=1,QUALITY=87"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil && result.IsError {
		t.Fatal("expected success, got error result")
	}
	want := controller.Snapshot{ConveyorRun: true, EmergencyOK: true, QualityScore: 87}
	if out.State != want {
		t.Fatalf("expected %+v, got %+v", want, out.State)
	}
	if out.Applied != 3 || out.OrderID == "" {
		t.Fatalf("unexpected output %+v", out)
	}
}

func TestApplyOversizedOrderIsErrorResult(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	result, out, err := s.handleApplyOrder(ctx, &mcpsdk.CallToolRequest{}, ApplyOrderInput{Order: strings.Repeat("X", 60)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil || !result.IsError {
		t.Fatal("expected IsError result for oversized order")
	}
	if !out.Oversized || !out.Tripped || !out.State.Compromised {
		t.Fatalf("expected compromised output, got %+v", out)
	}
}

func TestStateMatchesController(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	s.handleApplyOrder(ctx, &mcpsdk.CallToolRequest{}, ApplyOrderInput{Order: "QUALITY=150"})
	_, out, err := s.handleState(ctx, &mcpsdk.CallToolRequest{}, StateInput{})
	if err != nil {
		t.Fatal(err)
	}
	if out.State != s.svc.State() {
		t.Fatalf("tool state %+v differs from controller %+v", out.State, s.svc.State())
	}
	if out.State.QualityScore != 100 {
		t.Fatalf("expected clamped quality 100, got %d", out.State.QualityScore)
	}
}

func TestResetTool(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	s.handleApplyOrder(ctx, &mcpsdk.CallToolRequest{}, ApplyOrderInput{Order: strings.Repeat("X", 60)})
	_, out, err := s.handleReset(ctx, &mcpsdk.CallToolRequest{}, ResetInput{})
	if err != nil {
		t.Fatal(err)
	}
	if !out.WasCompromised {
		t.Error("expected was_compromised=true")
	}
	if out.State != (controller.Snapshot{ConveyorRun: true, EmergencyOK: true, QualityScore: 98}) {
		t.Errorf("expected reset state, got %+v", out.State)
	}
}

func TestCheckDoesNotMutate(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	before := s.svc.State()

	result, out, err := s.handleCheck(ctx, &mcpsdk.CallToolRequest{}, CheckInput{Order: "RUN=0,FOO=1,QUALITY=5"})
	if err != nil {
		t.Fatal(err)
	}
	if result != nil && result.IsError {
		t.Fatalf("expected clean check, got problem %q", out.Problem)
	}
	if len(out.Directives) != 3 {
		t.Fatalf("expected 3 directives, got %+v", out.Directives)
	}
	if out.Directives[1].Known {
		t.Error("expected FOO to be unknown")
	}
	if s.svc.State() != before {
		t.Fatal("check must not change controller state")
	}
}

func TestCheckReportsProblems(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		order     string
		oversized bool
		problem   string
	}{
		{"oversized", strings.Repeat("A", 42), true, "malformed"},
		{"malformed", "RUN=1,bogus", false, "malformed"},
		{"long value", "QUALITY=" + strings.Repeat("9", 16), false, "too long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, out, err := s.handleCheck(ctx, &mcpsdk.CallToolRequest{}, CheckInput{Order: tt.order})
			if err != nil {
				t.Fatal(err)
			}
			if result == nil || !result.IsError {
				t.Fatal("expected IsError result")
			}
			if out.Oversized != tt.oversized {
				t.Errorf("expected oversized=%v, got %v", tt.oversized, out.Oversized)
			}
			if !strings.Contains(out.Problem, tt.problem) {
				t.Errorf("expected problem containing %q, got %q", tt.problem, out.Problem)
			}
		})
	}
}
