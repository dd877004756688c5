// Testing utilities for structured logging. Tests capture log output in
// memory and assert on parsed records instead of scraping stderr.

package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
)

// CaptureLogger returns a slog logger writing JSON records to the returned
// buffer, wrapped with the same error-formatting handler used in production.
func CaptureLogger(level slog.Level) (*slog.Logger, *bytes.Buffer) {
	buffer := &bytes.Buffer{}
	handler := slog.NewJSONHandler(buffer, &slog.HandlerOptions{Level: level})
	return slog.New(WrapByErrFmtHandler(handler)), buffer
}

// ParseEntries parses captured JSON log output into one map per record.
func ParseEntries(buffer *bytes.Buffer) ([]map[string]interface{}, error) {
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buffer.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ContainsField reports whether any captured record has the given key/value.
func ContainsField(entries []map[string]interface{}, key string, value interface{}) bool {
	for _, entry := range entries {
		if fieldValue, exists := entry[key]; exists && fieldValue == value {
			return true
		}
	}
	return false
}
