package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type checkState int

const (
	checkOK checkState = iota
	checkFailed
	checkSkipped
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const checkLabelWidth = 20

func renderCheckLine(label string, state checkState, detail string, colorize bool) string {
	status := fmt.Sprintf("[%s]", checkStateLabel(state))
	if detail != "" {
		status += " " + detail
	}
	line := fmt.Sprintf("  %-*s %s", checkLabelWidth, label+":", status)
	if colorize {
		return checkStateColor(state) + line + ansiReset
	}
	return line
}

func checkStateLabel(state checkState) string {
	switch state {
	case checkOK:
		return "OK"
	case checkFailed:
		return "FAIL"
	default:
		return "SKIP"
	}
}

func checkStateColor(state checkState) string {
	switch state {
	case checkOK:
		return ansiGreen
	case checkFailed:
		return ansiRed
	default:
		return ansiYellow
	}
}

func renderHeading(title string, colorize bool) string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	if colorize {
		return ansiBlue + line + ansiReset
	}
	return line
}

// shouldColorize reports whether writer is an interactive terminal.
func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
