package ui

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// DefaultWidth is used when stdout is not a terminal.
const DefaultWidth = 100

// ShouldUseColor returns true when ANSI colors should be used on stdout.
// It respects NO_COLOR, CLICOLOR_FORCE, CLICOLOR, and TTY detection.
func ShouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if strings.TrimSpace(os.Getenv("CLICOLOR_FORCE")) == "1" {
		return true
	}
	if strings.TrimSpace(os.Getenv("CLICOLOR")) == "0" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Width returns the column count of the terminal on stdout.
func Width() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return DefaultWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return DefaultWidth
	}
	return w
}

// CellWidth splits width evenly across columns, with a floor of 8.
func CellWidth(width, columns int) int {
	if columns <= 0 {
		return width
	}
	w := width/columns - 2
	if w < 8 {
		return 8
	}
	return w
}
