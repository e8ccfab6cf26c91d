package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderStatusLinePlain(t *testing.T) {
	line := renderStatusLine("Daemon", statusOK, "pid 42", false)
	if !strings.Contains(line, "Daemon:") {
		t.Fatalf("missing label: %q", line)
	}
	if !strings.Contains(line, "[OK] pid 42") {
		t.Fatalf("missing tag and message: %q", line)
	}
	if strings.Contains(line, "\x1b[") {
		t.Fatalf("plain output must not contain ANSI escapes: %q", line)
	}
}

func TestRenderStatusLineColorsOnlyTheTag(t *testing.T) {
	line := renderStatusLine("Store", statusError, "unreachable", true)
	if !strings.Contains(line, ansiRed+"[ERROR]"+ansiReset) {
		t.Fatalf("expected colored tag: %q", line)
	}
	if !strings.Contains(line, ansiReset+" unreachable") {
		t.Fatalf("message must follow the reset, not be colored: %q", line)
	}
}

func TestRenderSectionHeader(t *testing.T) {
	if got := renderSectionHeader(" Jobs ", false); got != "JOBS" {
		t.Fatalf("renderSectionHeader = %q, want JOBS", got)
	}
	colored := renderSectionHeader("Jobs", true)
	if colored != ansiCyan+"JOBS"+ansiReset {
		t.Fatalf("colored header = %q", colored)
	}
}

func TestShouldColorize(t *testing.T) {
	var buf bytes.Buffer
	if shouldColorize(&buf) {
		t.Fatal("a plain buffer is not a terminal")
	}

	t.Setenv("NO_COLOR", "1")
	if shouldColorize(&buf) {
		t.Fatal("NO_COLOR must disable colors")
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]string{"ID", "Status", "Error"},
		[][]string{
			{"job-1", "completed", ""},
			{"job-2", "error", "quota exceeded"},
		},
		[]columnAlignment{alignLeft, alignLeft, alignLeft},
	)
	for _, want := range []string{"ID", "Status", "job-1", "completed", "quota exceeded"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderTableShortRowPadsCells(t *testing.T) {
	out := renderTable(
		[]string{"ID", "Status"},
		[][]string{{"job-1"}},
		nil,
	)
	if !strings.Contains(out, "job-1") {
		t.Fatalf("table output missing row:\n%s", out)
	}
}
