package logging

import (
	"io"
	"os"

	"golang.org/x/term"
)

// IsTTY reports whether w is attached to a terminal. Anything exposing
// an Fd method (os.File included) is probed; other writers never are.
func IsTTY(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

// SupportsColor reports whether ANSI escapes should be written to w.
// NO_COLOR (https://no-color.org) and TERM=dumb both disable color, and
// a writer that is not a terminal never gets it.
func SupportsColor(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return IsTTY(w)
}
