// Package output provides CLI output formatting utilities
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// ColorMode represents color output mode
type ColorMode int

const (
	// ColorAuto enables colors based on environment (default)
	ColorAuto ColorMode = iota
	// ColorAlways forces colors on
	ColorAlways
	// ColorNever forces colors off
	ColorNever
)

// ParseColorMode parses a string into a ColorMode
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "", "auto":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	default:
		return ColorAuto, fmt.Errorf("invalid color mode %q: must be auto, always, or never", s)
	}
}

// ResolveColors determines whether to use colors based on mode and environment
func ResolveColors(mode ColorMode, configColors bool) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			return false
		}
		if os.Getenv("TERM") == "dumb" {
			return false
		}
		return configColors
	}
}

// Printer handles formatted output to the terminal
type Printer struct {
	out       io.Writer
	err       io.Writer
	useColors bool
}

// NewPrinter creates a printer writing to stdout and stderr
func NewPrinter(useColors bool) *Printer {
	return NewPrinterWithWriters(os.Stdout, os.Stderr, useColors)
}

// NewPrinterWithWriters creates a printer with custom writers
func NewPrinterWithWriters(out, err io.Writer, useColors bool) *Printer {
	return &Printer{out: out, err: err, useColors: useColors}
}

func (p *Printer) colored(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if p.useColors {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// Info prints an informational message
func (p *Printer) Info(format string, args ...any) {
	_, _ = p.colored(color.FgCyan).Fprintf(p.out, format+"\n", args...)
}

// Print prints a plain message
func (p *Printer) Print(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format+"\n", args...)
}

// Warning prints a warning message
func (p *Printer) Warning(format string, args ...any) {
	if p.useColors {
		_, _ = p.colored(color.FgYellow).Fprintf(p.err, "⚠ "+format+"\n", args...)
		return
	}
	_, _ = fmt.Fprintf(p.err, "[WARN] "+format+"\n", args...)
}

// Error prints an error message
func (p *Printer) Error(format string, args ...any) {
	if p.useColors {
		_, _ = p.colored(color.FgRed).Fprintf(p.err, "✗ "+format+"\n", args...)
		return
	}
	_, _ = fmt.Fprintf(p.err, "[ERROR] "+format+"\n", args...)
}

// Header prints a section header
func (p *Printer) Header(title string) {
	if p.useColors {
		_, _ = p.colored(color.FgWhite, color.Bold).Fprintf(p.out, "\n%s\n", title)
		_, _ = p.colored(color.FgWhite).Fprintf(p.out, "%s\n", repeatChar('─', len([]rune(title))))
		return
	}
	_, _ = fmt.Fprintf(p.out, "\n%s\n%s\n", title, repeatChar('-', len([]rune(title))))
}

// Bold returns text in bold
func (p *Printer) Bold(text string) string {
	return p.colored(color.Bold).Sprint(text)
}

// Dim returns dimmed text
func (p *Printer) Dim(text string) string {
	return p.colored(color.Faint).Sprint(text)
}

func repeatChar(char rune, count int) string {
	result := make([]rune, count)
	for i := range result {
		result[i] = char
	}
	return string(result)
}

// Truncate shortens a string to maxLen runes, adding "..." if truncated.
func Truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
