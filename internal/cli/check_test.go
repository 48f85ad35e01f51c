package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/cellwatch/internal/registers"
)

func TestCheckReportClean(t *testing.T) {
	r := buildCheckReport("RUN=1,ESTOP_OK=1,QUALITY=87", 41)
	if !r.OK() {
		t.Fatalf("expected clean report, got %+v", r)
	}
	if len(r.Directives) != 3 || len(r.Unknown) != 0 {
		t.Fatalf("unexpected directives %+v", r.Directives)
	}
	if !strings.HasPrefix(formatCheckReport(r), "OK: 27/41 bytes") {
		t.Errorf("unexpected text %q", formatCheckReport(r))
	}
}

func TestCheckReportUnknownKeyIsNotAFailure(t *testing.T) {
	r := buildCheckReport("FOO=1", 41)
	if !r.OK() {
		t.Fatalf("unknown key should not fail the check: %+v", r)
	}
	if len(r.Unknown) != 1 || r.Unknown[0] != "FOO" {
		t.Fatalf("expected FOO reported unknown, got %v", r.Unknown)
	}
	if !strings.Contains(formatCheckReport(r), "? FOO=1") {
		t.Errorf("expected unknown marker, got %q", formatCheckReport(r))
	}
}

func TestCheckReportOversized(t *testing.T) {
	r := buildCheckReport("RUN=1,QUALITY=50,"+strings.Repeat("X", 43), 41)
	if r.OK() || !r.Oversized {
		t.Fatalf("expected oversized failure, got %+v", r)
	}
	if r.Length != 60 {
		t.Errorf("expected length 60, got %d", r.Length)
	}
	if !strings.Contains(formatCheckReport(r), "would compromise") {
		t.Error("expected oversize line in text output")
	}
}

func TestCheckReportMalformed(t *testing.T) {
	r := buildCheckReport("RUN=1,bogus", 41)
	if r.OK() || r.Problem == "" {
		t.Fatalf("expected malformed failure, got %+v", r)
	}
	if r.Offset != 6 {
		t.Errorf("expected offset 6, got %d", r.Offset)
	}
}

func TestCheckReportStopsAtNUL(t *testing.T) {
	r := buildCheckReport("QUALITY=5\x00"+strings.Repeat("A", 80), 41)
	if !r.OK() || r.Length != 9 {
		t.Fatalf("expected NUL to end the order, got %+v", r)
	}
}

func TestReadOrderFromRegisters(t *testing.T) {
	words, length := registers.EncodeOrder("RUN=0,QUALITY=12")
	dump, err := json.Marshal(registerDump{Length: int(length), Words: words[:]})
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "regs.json")
	if err := os.WriteFile(path, dump, 0o644); err != nil {
		t.Fatal(err)
	}

	applyFile, applyRegisters = "", path
	defer func() { applyRegisters = "" }()

	order, err := readOrder(nil)
	if err != nil {
		t.Fatalf("readOrder: %v", err)
	}
	if order != "RUN=0,QUALITY=12" {
		t.Fatalf("unexpected order %q", order)
	}
}

func TestReadOrderFromRegistersNegativeLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regs.json")
	dump := `{"length":-1,"words":[82,85,78,61,49,0,88]}`
	if err := os.WriteFile(path, []byte(dump), 0o644); err != nil {
		t.Fatal(err)
	}

	applyFile, applyRegisters = "", path
	defer func() { applyRegisters = "" }()

	order, err := readOrder(nil)
	if err != nil {
		t.Fatalf("readOrder: %v", err)
	}
	if order != "RUN=1" {
		t.Fatalf("expected read to the zero register, got %q", order)
	}
}

func TestReadOrderRequiresOneSource(t *testing.T) {
	applyFile, applyRegisters = "", ""
	if _, err := readOrder(nil); err == nil {
		t.Fatal("expected error without order")
	}

	applyFile = "order.txt"
	defer func() { applyFile = "" }()
	if _, err := readOrder([]string{"RUN=1"}); err == nil {
		t.Fatal("expected error with two sources")
	}
}
