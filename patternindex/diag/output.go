package diag

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// OutputFormatter renders events for human-readable display: auto-detect
// color support from the destination file, fall back to plain text
// otherwise.
type OutputFormatter struct {
	useColor bool
	writer   io.Writer
}

// NewOutputFormatter creates a formatter writing to w (os.Stdout if nil).
func NewOutputFormatter(w io.Writer) *OutputFormatter {
	if w == nil {
		w = os.Stdout
	}
	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = isTerminal(f.Fd())
	}
	return &OutputFormatter{useColor: useColor, writer: w}
}

// Handle implements Handler, printing one formatted line per event.
func (f *OutputFormatter) Handle(event Event) {
	line := f.Format(event)
	if line != "" {
		fmt.Fprintln(f.writer, line)
	}
}

// Format converts an event to a single human-readable line.
func (f *OutputFormatter) Format(event Event) string {
	latency := f.formatLatency(event)

	switch event.Name {
	case IndexLoadBegin:
		return fmt.Sprintf("%s loading pattern index", latency)
	case IndexLoadComplete:
		return fmt.Sprintf("%s %s pattern index loaded", latency, f.colorize("===", color.FgGreen))
	case ScanBegin:
		desc, _ := event.Data["descriptor"].(string)
		return fmt.Sprintf("%s %s", latency, desc)
	case ScanComplete:
		rows, _ := event.Data["rows"].(int)
		return fmt.Sprintf("%s %s%s rows", latency, f.colorize("→ ", color.FgYellow), fmt.Sprint(rows))
	case CacheHit:
		key, _ := event.Data["key"].(string)
		return fmt.Sprintf("%s %s %s", latency, f.colorize("cache hit", color.FgCyan), key)
	case CacheMiss:
		key, _ := event.Data["key"].(string)
		return fmt.Sprintf("%s %s %s", latency, f.colorize("cache miss", color.FgMagenta), key)
	case QueryTimeout:
		op, _ := event.Data["op"].(string)
		return fmt.Sprintf("%s %s %s", latency, f.colorize("timeout", color.FgRed), op)
	default:
		return fmt.Sprintf("%s %s %v", latency, event.Name, event.Data)
	}
}

func (f *OutputFormatter) formatLatency(event Event) string {
	d := event.Latency
	if d == 0 {
		return "[--]"
	}
	if d.Milliseconds() == 0 {
		return f.colorize(fmt.Sprintf("[%dµs]", d.Microseconds()), color.FgGreen)
	}
	return f.colorize(fmt.Sprintf("[%dms]", d.Milliseconds()), color.FgYellow)
}

func (f *OutputFormatter) colorize(text string, attr color.Attribute) string {
	if !f.useColor {
		return text
	}
	return color.New(attr).Sprint(text)
}

// ConsoleHandler returns a Handler that prints formatted events to stdout.
func ConsoleHandler() Handler {
	formatter := NewOutputFormatter(os.Stdout)
	return formatter.Handle
}

func isTerminal(fd uintptr) bool {
	return fd == uintptr(1) || fd == uintptr(2)
}
