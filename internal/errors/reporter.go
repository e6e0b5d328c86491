package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// ErrorReporter renders CheckerErrors with Rust-compiler-style
// location context: a caret under the offending column plus any
// attached suggestions.
type ErrorReporter struct {
	filename string
	source   string
	lines    []string
}

// NewErrorReporter creates a reporter for one IR unit's source text
// (may be empty when no textual source is available, e.g. IR built
// programmatically rather than parsed).
func NewErrorReporter(filename, source string) *ErrorReporter {
	return &ErrorReporter{
		filename: filename,
		source:   source,
		lines:    strings.Split(source, "\n"),
	}
}

// FormatError formats a checker error with colorized location context
// and suggestions.
func (er *ErrorReporter) FormatError(err CheckerError) string {
	var result strings.Builder

	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	errColor := color.New(color.FgRed, color.Bold).SprintFunc()

	result.WriteString(fmt.Sprintf("%s[%s]: %s\n", errColor("error"), err.Kind.Code(), err.Message))

	if err.Location.Line > 0 {
		lineNumberWidth := er.getLineNumberWidth(err.Location.Line)
		indent := strings.Repeat(" ", lineNumberWidth)

		result.WriteString(fmt.Sprintf("%s %s %s:%d:%d\n",
			indent, dim("-->"), er.filename, err.Location.Line, err.Location.Column))
		result.WriteString(fmt.Sprintf("%s %s\n", indent, dim("│")))

		if err.Location.Line <= len(er.lines) && err.Location.Line > 0 {
			lineContent := er.lines[err.Location.Line-1]
			result.WriteString(fmt.Sprintf("%s %s %s\n",
				bold(fmt.Sprintf("%*d", lineNumberWidth, err.Location.Line)),
				dim("│"),
				lineContent))

			marker := strings.Repeat(" ", max(0, err.Location.Column-1)) + errColor("^")
			result.WriteString(fmt.Sprintf("%s %s %s\n", indent, dim("│"), marker))
		}
	}

	if len(err.Suggestions) > 0 {
		cyan := color.New(color.FgCyan).SprintFunc()
		for i, s := range err.Suggestions {
			if i == 0 {
				result.WriteString(fmt.Sprintf("  %s %s: %s\n", cyan("help"), cyan("try"), s.Message))
			} else {
				result.WriteString(fmt.Sprintf("       %s\n", s.Message))
			}
		}
	}

	for _, note := range err.Notes {
		blue := color.New(color.FgBlue).SprintFunc()
		result.WriteString(fmt.Sprintf("  %s %s\n", blue("note:"), note))
	}

	if err.HelpText != "" {
		green := color.New(color.FgGreen).SprintFunc()
		result.WriteString(fmt.Sprintf("  %s %s\n", green("help:"), err.HelpText))
	}

	result.WriteString("\n")
	return result.String()
}

func (er *ErrorReporter) getLineNumberWidth(line int) int {
	width := len(fmt.Sprintf("%d", line))
	if width < 3 {
		width = 3
	}
	return width
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
