package syncer

import (
	"io"

	"o365sync/internal"
)

func logf(w io.Writer, target, format string, a ...any) {
	internal.Logf(w, "", target, format, a...)
}
