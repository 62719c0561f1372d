package internal

import (
	"fmt"
	"io"
	"strings"
)

// Logf writes one log line composed of an optional component prefix, an
// optional sync target, and the formatted message.
func Logf(w io.Writer, prefix, target string, format string, a ...any) {
	parts := []string{}
	if prefix != "" {
		parts = append(parts, prefix)
	}
	if target != "" {
		parts = append(parts, fmt.Sprintf("%s:", target))
	}
	parts = append(parts, fmt.Sprintf(format, a...))
	fmt.Fprintln(w, strings.Join(parts, " "))
}
