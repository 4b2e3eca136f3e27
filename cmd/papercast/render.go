package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"papercast/internal/api"
)

var titleCaser = cases.Title(language.English)

// stageLabel turns a stage key like "postprocess" into a display label.
func stageLabel(key string) string {
	if key == "" {
		return "-"
	}
	return titleCaser.String(strings.ReplaceAll(key, "_", " "))
}

func formatProgress(progress float64) string {
	return fmt.Sprintf("%3.0f%%", progress*100)
}

func formatSnapshotLine(snap api.SnapshotPayload) string {
	message := snap.Message
	if snap.Status == "error" && snap.Error != "" {
		message = snap.Error
	}
	return fmt.Sprintf("[%s] %-12s %s", formatProgress(snap.Progress), stageLabel(snap.Stage), message)
}

// isTerminalWriter reports whether out is an interactive terminal, which
// enables in-place progress updates.
func isTerminalWriter(out io.Writer) bool {
	file, ok := out.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// progressPrinter renders one line per snapshot, rewriting the current line
// on interactive terminals.
type progressPrinter struct {
	out      io.Writer
	inPlace  bool
	lastLine int
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out, inPlace: isTerminalWriter(out)}
}

func (p *progressPrinter) print(snap api.SnapshotPayload) {
	line := formatSnapshotLine(snap)
	if !p.inPlace {
		fmt.Fprintln(p.out, line)
		return
	}
	padding := ""
	if pad := p.lastLine - len(line); pad > 0 {
		padding = strings.Repeat(" ", pad)
	}
	fmt.Fprintf(p.out, "\r%s%s", line, padding)
	p.lastLine = len(line)
	if snap.Status == "done" || snap.Status == "error" {
		fmt.Fprintln(p.out)
	}
}
