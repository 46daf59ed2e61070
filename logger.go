package main

import (
	"io"
	"log/slog"
)

// NewLogger returns a structured JSON slog.Logger writing to w.
func NewLogger(level slog.Leveler, w io.Writer) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}
