package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// statusKind classifies a status line for labeling and color.
type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiCyan   = "\x1b[36m"
)

var statusKindLabels = map[statusKind]string{
	statusInfo:  "INFO",
	statusOK:    "OK",
	statusWarn:  "WARN",
	statusError: "ERROR",
}

var statusKindColors = map[statusKind]string{
	statusOK:    ansiGreen,
	statusWarn:  ansiYellow,
	statusError: ansiRed,
	statusInfo:  ansiCyan,
}

const statusLabelWidth = 18

// renderStatusLine formats one "  Label:  [OK] message" line. Only the
// status tag is colored so copied output stays readable.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	tag := "[" + statusKindLabels[kind] + "]"
	if colorize {
		if color := statusKindColors[kind]; color != "" {
			tag = color + tag + ansiReset
		}
	}
	line := fmt.Sprintf("  %-*s %s", statusLabelWidth, label+":", tag)
	if message != "" {
		line += " " + message
	}
	return line
}

// renderSectionHeader formats a section title for the status report.
func renderSectionHeader(title string, colorize bool) string {
	header := strings.ToUpper(strings.TrimSpace(title))
	if colorize {
		header = ansiCyan + header + ansiReset
	}
	return header
}

// shouldColorize reports whether writer is an interactive terminal.
// NO_COLOR disables colors unconditionally.
func shouldColorize(writer io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
