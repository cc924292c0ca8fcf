// Package ui styles CLI output for terminals.
package ui

import "fmt"

// ANSI256 color codes.
const (
	colorAccent  = 74  // blue
	colorCmd     = 250 // light gray
	colorMuted   = 245 // medium gray
	colorSuccess = 114 // green
	colorError   = 203 // red
)

var noColor bool

func render(code int, s string) string {
	if noColor || s == "" {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent styles headers and group titles.
func RenderAccent(s string) string { return render(colorAccent, s) }

// RenderMuted styles secondary text such as totals and defaults.
func RenderMuted(s string) string { return render(colorMuted, s) }

// RenderCommand styles a command name.
func RenderCommand(s string) string { return render(colorCmd, s) }

// RenderSuccess styles a completed operation.
func RenderSuccess(s string) string { return render(colorSuccess, s) }

// RenderError styles a failed operation.
func RenderError(s string) string { return render(colorError, s) }

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
