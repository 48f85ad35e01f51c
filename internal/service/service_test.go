package service

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/cellwatch/internal/alert"
	"github.com/ppiankov/cellwatch/internal/audit"
	"github.com/ppiankov/cellwatch/internal/config"
	"github.com/ppiankov/cellwatch/internal/controller"
)

type webhookRecorder struct {
	mu     sync.Mutex
	events []alert.AlertEvent
}

func (w *webhookRecorder) handler() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		var ev alert.AlertEvent
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &ev)
		w.mu.Lock()
		w.events = append(w.events, ev)
		w.mu.Unlock()
		rw.WriteHeader(http.StatusOK)
	})
}

func (w *webhookRecorder) types() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []string
	for _, e := range w.events {
		out = append(out, e.Type)
	}
	return out
}

func newTestService(t *testing.T, alerts []alert.AlertConfig) (*Service, string, *bytes.Buffer) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	log, err := audit.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { log.Close() })

	var buf bytes.Buffer
	svc := New(Config{
		Controller: controller.New(),
		AuditLog:   log,
		Alerts:     alerts,
		ConfigHash: "sha256:test",
		Logger:     slog.New(slog.NewTextHandler(&buf, nil)),
	})
	return svc, path, &buf
}

func TestApplyOrderRecordsAudit(t *testing.T) {
	svc, path, logs := newTestService(t, nil)

	out := svc.ApplyOrder(SourceGRPC, "RUN=1,ESTOP_OK=1,QUALITY=87")
	if !strings.HasPrefix(out.OrderID, "o-") {
		t.Fatalf("expected order ID, got %q", out.OrderID)
	}
	if out.After.QualityScore != 87 || out.Applied != 3 {
		t.Fatalf("unexpected outcome %+v", out)
	}

	result, err := audit.Replay(path, audit.ReplayFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(result.Entries))
	}
	e := result.Entries[0]
	if e.OrderID != out.OrderID || e.Source != SourceGRPC || e.State != out.After || e.ConfigHash != "sha256:test" {
		t.Fatalf("unexpected audit entry %+v", e)
	}
	if !strings.Contains(logs.String(), "order applied") {
		t.Fatalf("expected info log, got %s", logs.String())
	}
}

func TestOversizedOrderAlertsAndLogs(t *testing.T) {
	rec := &webhookRecorder{}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	svc, path, logs := newTestService(t, []alert.AlertConfig{
		{URL: srv.URL, Events: []string{alert.EventCompromised, alert.EventOversized, alert.EventReset}},
	})

	order := "RUN=1,QUALITY=50," + strings.Repeat("X", 43)
	out := svc.ApplyOrder(SourceMCP, order)
	if !out.Tripped || out.After.QualityScore != 20 {
		t.Fatalf("expected trip to quality 20, got %+v", out)
	}
	svc.ApplyOrder(SourceMCP, order)
	svc.Reset(SourceCLI)

	time.Sleep(300 * time.Millisecond)
	types := rec.types()
	counts := map[string]int{}
	for _, ty := range types {
		counts[ty]++
	}
	if counts[alert.EventOversized] != 2 || counts[alert.EventCompromised] != 1 || counts[alert.EventReset] != 1 {
		t.Fatalf("unexpected alert counts %v", counts)
	}

	if !strings.Contains(logs.String(), "controller compromised") {
		t.Fatalf("expected error log for trip, got %s", logs.String())
	}
	if v := audit.Verify(path); !v.Valid || v.Lines != 3 {
		t.Fatalf("expected valid 3-line audit chain, got %+v", v)
	}
}

func TestResetClearsCompromise(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	svc.ApplyOrder(SourceCLI, strings.Repeat("Z", 50))
	out := svc.Reset(SourceCLI)
	if !out.Before.Compromised || out.After.Compromised {
		t.Fatalf("expected reset to clear compromise, got %+v", out.Result)
	}
	if svc.State() != (controller.Snapshot{ConveyorRun: true, EmergencyOK: true, QualityScore: 98}) {
		t.Fatalf("unexpected state after reset %+v", svc.State())
	}
}

func TestConcurrentOrdersReconstructFromAudit(t *testing.T) {
	svc, path, _ := newTestService(t, nil)

	var wg sync.WaitGroup
	orders := []string{"RUN=1", "QUALITY=12", "ESTOP_OK=0", strings.Repeat("Q", 45), "QUALITY=99"}
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%13 == 0 {
				svc.Reset(SourceGRPC)
				return
			}
			svc.ApplyOrder(SourceGRPC, orders[i%len(orders)])
		}(i)
	}
	wg.Wait()

	result, err := audit.Replay(path, audit.ReplayFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if div := audit.Reconstruct(result.Entries, controller.New()); len(div) != 0 {
		t.Fatalf("audit order diverges from application order: %+v", div[0])
	}
}

func TestReconfigureSwapsControllerOptions(t *testing.T) {
	svc, path, _ := newTestService(t, nil)

	cfg := config.DefaultConfig()
	cfg.Controller.Oversize = "reject"
	cfg.Controller.Interlock = true
	svc.Reconfigure(cfg, "sha256:v2")

	out := svc.ApplyOrder(SourceGRPC, "RUN=1,QUALITY=50,"+strings.Repeat("X", 43))
	if out.After.QualityScore != 68 {
		t.Fatalf("expected reject policy after reload, got %+v", out.After)
	}

	result, _ := audit.Replay(path, audit.ReplayFilter{})
	if result.Entries[0].ConfigHash != "sha256:v2" {
		t.Fatalf("expected new config hash on entries, got %s", result.Entries[0].ConfigHash)
	}
}

func TestServiceWithoutAuditOrAlerts(t *testing.T) {
	svc := New(Config{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	out := svc.ApplyOrder(SourceCLI, "QUALITY=150")
	if out.After.QualityScore != 100 {
		t.Fatalf("expected clamp to 100, got %d", out.After.QualityScore)
	}
}
