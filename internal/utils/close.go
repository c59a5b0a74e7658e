package utils

import (
	"io"

	"github.com/MrSnakeDoc/navbar/internal/logger"
)

// Close closes c and ignores any error.
// Use for best-effort cleanup of read-only handles.
func Close(c io.Closer) {
	_ = c.Close()
}

// MustClose closes c and logs any error.
func MustClose(c io.Closer, log logger.Logger) {
	if err := c.Close(); err != nil {
		log.Warn("failed to close", logger.Error(err))
	}
}
