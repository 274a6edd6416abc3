package util

import (
	"io"
	"log/slog"
)

// CloseQuietly closes c and logs a failure instead of returning it. Used in
// defers on read paths where the close error carries no data loss.
func CloseQuietly(c io.Closer, what string) {
	if err := c.Close(); err != nil {
		slog.Warn("close failed", "what", what, "err", err)
	}
}
