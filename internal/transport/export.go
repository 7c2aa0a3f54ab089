// internal/transport/export.go
package transport

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

const csvTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// ExportLog renders the flushed log as csv or json
func (t *Transport) ExportLog(format string) ([]byte, error) {
	entries := t.Entries()
	if len(entries) == 0 {
		return nil, ErrNothingToExport
	}

	switch strings.ToLower(format) {
	case FormatCSV, "":
		var sb strings.Builder
		sb.WriteString("Timestamp,Type,Port,Data\n")
		for _, e := range entries {
			fmt.Fprintf(&sb, "%s,%s,%s,\"%s\"\n",
				e.Timestamp.Format(csvTimeLayout),
				e.Direction,
				e.Port,
				strings.ReplaceAll(e.Data, `"`, `""`))
		}
		return []byte(sb.String()), nil
	case FormatJSON:
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode log: %w", err)
		}
		return data, nil
	}
	return nil, &UnknownFormatError{Format: format}
}

// SaveLog exports the log and writes it to path. An empty path means the user
// cancelled the save.
func (t *Transport) SaveLog(path, format string) error {
	if path == "" {
		return ErrExportCancelled
	}
	data, err := t.ExportLog(format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &ExportError{Path: path, Err: err}
	}
	t.logger.Info("Log saved", zap.String("path", path), zap.Int("bytes", len(data)))
	return nil
}

// DefaultLogFilename returns serial_log_<ISO8601>.<ext> with ':' and '.'
// replaced by '-'
func DefaultLogFilename(now time.Time, format string) string {
	ext := FormatCSV
	if strings.EqualFold(format, FormatJSON) {
		ext = FormatJSON
	}
	stamp := now.UTC().Format("2006-01-02T15:04:05.000Z")
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return "serial_log_" + stamp + "." + ext
}
