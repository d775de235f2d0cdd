// Package logger provides console output for the missionctl CLI: leveled,
// timestamped log lines and a boxed overview table for `missionctl overview`.
// Grounded on the teacher's internal/logger/console.go
// (ConsoleLogger, level filtering, fatih/color + go-isatty terminal
// detection, golang.org/x/term width-aware box drawing) — trimmed down from
// the teacher's task/wave/QC-specific log calls to Mission Control's
// plan/job vocabulary.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"github.com/missionctl/missionctl/internal/models"
)

const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ConsoleLogger writes timestamped, leveled, optionally colorized output to
// a writer. Safe for concurrent use.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger builds a ConsoleLogger writing to w at the given level
// ("trace".."error"; defaults to "info"). Color is enabled automatically
// when w is a TTY.
func NewConsoleLogger(w io.Writer, level string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      w,
		logLevel:    normalizeLevel(level),
		colorOutput: isTerminal(w),
	}
}

func isTerminal(w io.Writer) bool {
	if w == os.Stdout {
		return isatty.IsTerminal(os.Stdout.Fd())
	}
	if w == os.Stderr {
		return isatty.IsTerminal(os.Stderr.Fd())
	}
	return false
}

func normalizeLevel(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "error":
		return strings.ToLower(strings.TrimSpace(level))
	default:
		return "info"
	}
}

func levelRank(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

func (cl *ConsoleLogger) shouldLog(level string) bool {
	return levelRank(level) >= levelRank(cl.logLevel)
}

func (cl *ConsoleLogger) logf(level string, colorFn func(string) string, format string, args ...interface{}) {
	if cl.writer == nil || !cl.shouldLog(level) {
		return
	}
	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := time.Now().Format("15:04:05")
	msg := fmt.Sprintf(format, args...)
	label := strings.ToUpper(level)
	if cl.colorOutput && colorFn != nil {
		label = colorFn(label)
	}
	fmt.Fprintf(cl.writer, "[%s] [%s] %s\n", ts, label, msg)
}

func (cl *ConsoleLogger) Trace(format string, args ...interface{}) {
	cl.logf("trace", func(s string) string { return color.New(color.FgHiBlack).Sprint(s) }, format, args...)
}

func (cl *ConsoleLogger) Debug(format string, args ...interface{}) {
	cl.logf("debug", func(s string) string { return color.New(color.FgCyan).Sprint(s) }, format, args...)
}

func (cl *ConsoleLogger) Info(format string, args ...interface{}) {
	cl.logf("info", func(s string) string { return color.New(color.FgBlue).Sprint(s) }, format, args...)
}

func (cl *ConsoleLogger) Warn(format string, args ...interface{}) {
	cl.logf("warn", func(s string) string { return color.New(color.FgYellow).Sprint(s) }, format, args...)
}

func (cl *ConsoleLogger) Error(format string, args ...interface{}) {
	cl.logf("error", func(s string) string { return color.New(color.FgRed).Sprint(s) }, format, args...)
}

// box drawing characters, matching the teacher's overview/summary panels.
const (
	boxTopLeft     = "┌"
	boxTopRight    = "┐"
	boxBottomLeft  = "└"
	boxBottomRight = "┘"
	boxHorizontal  = "─"
	boxVertical    = "│"
	boxTeeLeft     = "├"
	boxTeeRight    = "┤"
)

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w < 60 {
		return 80
	}
	if w > 120 {
		return 120
	}
	return w
}

func boxLine(content string, width int) string {
	padding := width - 4 - len(content)
	if padding < 0 {
		content = content[:width-7] + "..."
		padding = 0
	}
	return boxVertical + " " + content + strings.Repeat(" ", padding) + " " + boxVertical
}

func statusColor(enabled bool, status string, text string) string {
	if !enabled {
		return text
	}
	switch {
	case strings.Contains(status, "failed") || strings.Contains(status, "needs_rebase"):
		return color.New(color.FgRed).Sprint(text)
	case strings.Contains(status, "merged") || strings.Contains(status, "completed"):
		return color.New(color.FgGreen).Sprint(text)
	case strings.Contains(status, "running") || strings.Contains(status, "merging"):
		return color.New(color.FgCyan).Sprint(text)
	case strings.Contains(status, "paused"):
		return color.New(color.FgYellow).Sprint(text)
	default:
		return text
	}
}

// Overview renders a boxed table of a plan's status and its jobs' statuses,
// the panel behind `missionctl overview`.
func (cl *ConsoleLogger) Overview(plan *models.Plan, jobs []models.Job) {
	if cl.writer == nil {
		return
	}
	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	w := terminalWidth()
	var out strings.Builder
	out.WriteString(boxTopLeft + strings.Repeat(boxHorizontal, w-2) + boxTopRight + "\n")

	if plan == nil {
		out.WriteString(boxLine("no active plan", w) + "\n")
	} else {
		header := fmt.Sprintf("Plan %s [%s]", plan.Name, statusColor(cl.colorOutput, string(plan.Status), string(plan.Status)))
		out.WriteString(boxLine(header, w) + "\n")
		out.WriteString(boxTeeLeft + strings.Repeat(boxHorizontal, w-2) + boxTeeRight + "\n")
		for _, j := range plan.Jobs {
			line := fmt.Sprintf("%-24s %s", j.Name, statusColor(cl.colorOutput, string(j.Status), string(j.Status)))
			out.WriteString(boxLine(line, w) + "\n")
		}
	}

	if standalone := jobsOutsidePlan(plan, jobs); len(standalone) > 0 {
		out.WriteString(boxTeeLeft + strings.Repeat(boxHorizontal, w-2) + boxTeeRight + "\n")
		out.WriteString(boxLine("Standalone jobs", w) + "\n")
		for _, j := range standalone {
			line := fmt.Sprintf("%-24s %s", j.Name, statusColor(cl.colorOutput, string(j.Status), string(j.Status)))
			out.WriteString(boxLine(line, w) + "\n")
		}
	}

	out.WriteString(boxBottomLeft + strings.Repeat(boxHorizontal, w-2) + boxBottomRight + "\n")
	cl.writer.Write([]byte(out.String()))
}

// jobsOutsidePlan returns runtime jobs launched via the standalone `launch`
// verb (spec.md §4.10), i.e. not tracked by any JobSpec on plan.
func jobsOutsidePlan(plan *models.Plan, jobs []models.Job) []models.Job {
	var out []models.Job
	for _, j := range jobs {
		if plan == nil || plan.JobByName(j.Name) == nil {
			out = append(out, j)
		}
	}
	return out
}
