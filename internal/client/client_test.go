package client

import (
	"net"
	"strings"
	"testing"

	"github.com/ppiankov/cellwatch/internal/controller"
	"github.com/ppiankov/cellwatch/internal/server"
	"github.com/ppiankov/cellwatch/internal/service"
)

// startTestServer creates a server + returns its address.
func startTestServer(t *testing.T) (string, func()) {
	t.Helper()

	srv, err := server.New(server.Config{Service: service.New(service.Config{})})
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	go srv.ServeOn(lis)

	return lis.Addr().String(), srv.GracefulStop
}

func newClient(t *testing.T, addr string) *Client {
	t.Helper()
	c, err := New(addr)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClientApplyOrder(t *testing.T) {
	addr, cleanup := startTestServer(t)
	defer cleanup()
	c := newClient(t, addr)

	res, err := c.ApplyOrder("RUN=1,ESTOP_OK=1,QUALITY=87")
	if err != nil {
		t.Fatalf("ApplyOrder: %v", err)
	}
	want := controller.Snapshot{ConveyorRun: true, EmergencyOK: true, QualityScore: 87}
	if res.State != want {
		t.Errorf("expected %+v, got %+v", want, res.State)
	}
	if res.Applied != 3 || res.Ignored != 0 || res.Oversized {
		t.Errorf("unexpected result %+v", res)
	}
	if res.OrderID == "" {
		t.Error("expected order ID")
	}
}

func TestClientUnknownKeyIgnored(t *testing.T) {
	addr, cleanup := startTestServer(t)
	defer cleanup()
	c := newClient(t, addr)

	res, err := c.ApplyOrder("FOO=1")
	if err != nil {
		t.Fatal(err)
	}
	if res.Ignored != 1 || res.State.Compromised {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestClientOversizedThenReset(t *testing.T) {
	addr, cleanup := startTestServer(t)
	defer cleanup()
	c := newClient(t, addr)

	res, err := c.ApplyOrder(strings.Repeat("A", 42))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Oversized || !res.State.Compromised || res.Length != 42 {
		t.Fatalf("expected compromised by 42-byte order, got %+v", res)
	}

	st, err := c.State()
	if err != nil {
		t.Fatal(err)
	}
	if !st.Compromised {
		t.Fatal("expected compromise to persist")
	}

	st, err = c.Reset()
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if st != (controller.Snapshot{ConveyorRun: true, EmergencyOK: true, QualityScore: 98}) {
		t.Errorf("expected reset state, got %+v", st)
	}
}

func TestClientFailClosedOnUnreachable(t *testing.T) {
	// Nothing listens on this port.
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := lis.Addr().String()
	lis.Close()

	c := newClient(t, addr)

	st, err := c.State()
	if err == nil {
		t.Fatal("expected error from unreachable server")
	}
	if st.ConveyorRun || st.EmergencyOK || !st.Compromised {
		t.Errorf("expected fail-closed state, got %+v", st)
	}

	res, err := c.ApplyOrder("RUN=1")
	if err == nil {
		t.Fatal("expected error from unreachable server")
	}
	if res.State.ConveyorRun || !res.State.Compromised {
		t.Errorf("expected fail-closed state, got %+v", res.State)
	}
}
