package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// setupLogging routes the standard logger to stdout, and additionally to an
// append-only file when one is configured. The file keeps the default
// timestamp prefix so entries remain ordered across restarts.
func setupLogging(file string) error {
	log.SetOutput(os.Stdout)
	if file == "" {
		return nil
	}
	if dir := filepath.Dir(file); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create log directory %q: %w", dir, err)
		}
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %q: %w", file, err)
	}
	log.SetOutput(io.MultiWriter(os.Stdout, f))
	return nil
}
