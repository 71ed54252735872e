package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"swingwatch/internal/scanner"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestJSONScanWriter(t *testing.T) {
	t.Run("writes the scan", func(t *testing.T) {
		var out, logs bytes.Buffer
		write := jsonScanWriter(&out, zerolog.New(&logs))
		write(&scanner.ScanResult{TotalScanned: 3, ReadyCount: 1})

		if !strings.Contains(out.String(), `"total_scanned": 3`) {
			t.Errorf("Expected scan JSON, got %q", out.String())
		}
		if logs.Len() != 0 {
			t.Errorf("Expected no log output, got %q", logs.String())
		}
	})

	t.Run("logs a failed write", func(t *testing.T) {
		var logs bytes.Buffer
		write := jsonScanWriter(failingWriter{}, zerolog.New(&logs))
		write(&scanner.ScanResult{TotalScanned: 3})

		got := logs.String()
		if !strings.Contains(got, `"level":"error"`) || !strings.Contains(got, "broken pipe") {
			t.Errorf("Expected error log with the write error, got %q", got)
		}
		if !strings.Contains(got, "writing scan result") {
			t.Errorf("Expected message 'writing scan result', got %q", got)
		}
	})
}
