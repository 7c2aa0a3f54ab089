package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"ic-control/internal/register"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	encodeOpts.protocol, encodeOpts.params = "", ""
	regmapOpts.file, regmapOpts.output = "", ""

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestEncodeCommands(t *testing.T) {
	params := writeFile(t, "params.yaml", "active: spi\nspi:\n  write_width: 2\n")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"rffe write", []string{"encode", "write", "0x03", "0x2A"}, "rw 0 03 2A\n"},
		{"rffe clock", []string{"encode", "clock"}, "clock 26000\nhsdr 0\n"},
		{"spi write by flag", []string{"encode", "write", "--protocol", "spi", "0x10", "255"}, "s_write 1 02 10 FF\n"},
		{"spi write from params", []string{"encode", "write", "-f", params, "0x10", "0x1234"}, "s_write 1 02 10 1234\n"},
		{"flag overrides params", []string{"encode", "write", "-f", params, "-p", "rffe", "0x03", "0x2A"}, "rw 0 03 2A\n"},
		{"i3c clock", []string{"encode", "clock", "-p", "I3C"}, "clkset 0 0\npullup 0\nerr_msg 0\n"},
		{"vio", []string{"encode", "vio", "3"}, "vio 3\n"},
		{"read", []string{"encode", "read", "0x1C"}, "RREG:0x1C\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := execute(t, tt.args...)
			if err != nil {
				t.Fatalf("execute() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncodeReportsAdjustments(t *testing.T) {
	out, diag, err := execute(t, "encode", "write", "0x05", "0x1FF")
	if err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	if out != "rw 0 05 FF\n" {
		t.Errorf("stdout = %q", out)
	}
	if !strings.Contains(diag, "adjusted data 511 -> 255") {
		t.Errorf("stderr = %q", diag)
	}
}

func TestEncodeRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad number", []string{"encode", "write", "zz", "1"}},
		{"too large", []string{"encode", "read", "0x100000000"}},
		{"unknown protocol", []string{"encode", "clock", "-p", "jtag"}},
		{"missing params file", []string{"encode", "clock", "-f", filepath.Join(t.TempDir(), "none.yaml")}},
		{"missing argument", []string{"encode", "write", "0x03"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := execute(t, tt.args...); err == nil {
				t.Error("execute() error = nil, want failure")
			}
		})
	}
}

func TestRegmapShow(t *testing.T) {
	path := writeFile(t, "map.yaml", `
registers:
  - address: 0x01
    name: MODE
    value: 0x06
    fields:
      - {name: EN, bit: 0, size: 1}
      - {name: GAIN, bit: 1, size: 3}
  - address: 0x1F
    name: ID
    readOnly: true
`)
	out, _, err := execute(t, "regmap", "show", "--file", path)
	if err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "ADDRESS") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "EN[0]=0 GAIN[3:1]=3") {
		t.Errorf("fields = %q", lines[1])
	}
	if !strings.Contains(lines[2], "ro") {
		t.Errorf("access = %q", lines[2])
	}
}

func TestRegmapExportRoundTrip(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.yaml")
	if _, _, err := execute(t, "regmap", "export", "-o", dest); err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	m, err := register.LoadFile(dest)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if diff := cmp.Diff(register.NewDefault().List(), m.List(), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("exported map mismatch (-want +got):\n%s", diff)
	}

	out, _, err := execute(t, "regmap", "export")
	if err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	if !strings.HasPrefix(out, "registers:") {
		t.Errorf("stdout export = %q", out)
	}
}

func TestRegmapRejectsMalformedFile(t *testing.T) {
	path := writeFile(t, "bad.yaml", "registers: 7\n")
	if _, _, err := execute(t, "regmap", "show", "-f", path); err == nil {
		t.Error("execute() error = nil, want parse failure")
	}
}

func TestRunSimulatedScript(t *testing.T) {
	runOpts.device, runOpts.simulate, runOpts.protocol, runOpts.logFile = "", false, "", ""
	scriptPath := writeFile(t, "bench.ics", "connect\nclock\nwrite 0x03 0x2A\n")
	logPath := filepath.Join(t.TempDir(), "bench.csv")

	if _, _, err := execute(t, "run", "--config", t.TempDir(), "--simulate", "--log", logPath, scriptPath); err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	for _, want := range []string{`"clock 26000"`, `"rw 0 03 2A"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("log missing %s:\n%s", want, data)
		}
	}
}
