package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	err := RenderTable(&buf, []string{"Name", "Score"}, [][]string{
		{"Bob-Jones", "90"},
		{"Alice-Smith", "40"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var lines []string
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) != 3 {
		t.Fatalf("expected header and two rows, got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(strings.ToUpper(lines[0]), "NAME") {
		t.Fatalf("expected header first, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "Bob-Jones") || !strings.Contains(lines[1], "90") {
		t.Fatalf("unexpected first row %q", lines[1])
	}
	if !strings.Contains(lines[2], "Alice-Smith") {
		t.Fatalf("unexpected second row %q", lines[2])
	}
}

func TestPlainOutput(t *testing.T) {
	previous := color.NoColor
	t.Cleanup(func() { color.NoColor = previous })
	Plain()

	if got := Approval("Approved"); got != "Approved" {
		t.Fatalf("expected uncolored label, got %q", got)
	}

	var buf bytes.Buffer
	Failure(&buf, "Quota exceeded. Please contact support.")
	if buf.String() != "Quota exceeded. Please contact support.\n" {
		t.Fatalf("unexpected failure line %q", buf.String())
	}

	buf.Reset()
	Success(&buf, "Config written to %s.", "/tmp/cv-screener.yaml")
	if buf.String() != "Config written to /tmp/cv-screener.yaml.\n" {
		t.Fatalf("unexpected success line %q", buf.String())
	}
}
