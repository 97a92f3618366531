// Pressgate - Content Management Admin Core
// Copyright 2026 Pressgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pressgate/pressgate

package audit

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// ErrUnsupportedFormat is returned for unknown export formats.
var ErrUnsupportedFormat = fmt.Errorf("unsupported export format (want %s or %s)", FormatJSON, FormatCSV)

// ExportLogs serializes matching entries for compliance handoff. The
// result is capped at the configured export limit regardless of the
// filter's own limit.
func (s *Service) ExportLogs(ctx context.Context, filter Filter, format string) ([]byte, error) {
	if format != FormatJSON && format != FormatCSV {
		return nil, ErrUnsupportedFormat
	}

	if filter.Limit <= 0 || filter.Limit > s.config.ExportLimit {
		filter.Limit = s.config.ExportLimit
	}

	entries, err := s.store.Query(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("export query: %w", err)
	}

	if format == FormatJSON {
		return json.MarshalIndent(entries, "", "  ")
	}
	return exportCSV(entries)
}

// exportCSV flattens entries into comma-joined columns; free-form detail
// fields collapse into a single semicolon-joined column.
func exportCSV(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"id", "user_id", "action", "resource", "resource_id",
		"severity", "result", "reason", "ip_address", "user_agent",
		"created_at", "details",
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	for i := range entries {
		e := &entries[i]
		record := []string{
			e.ID,
			e.UserID,
			e.Action,
			e.Resource,
			e.ResourceID,
			string(e.Details.Severity),
			e.Details.Result,
			e.Details.Reason,
			e.IPAddress,
			e.UserAgent,
			e.CreatedAt.Format(time.RFC3339),
			flattenExtra(&e.Details),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func flattenExtra(d *Details) string {
	var parts []string
	if d.Error != "" {
		parts = append(parts, "error="+d.Error)
	}
	if d.Permission != "" {
		parts = append(parts, "permission="+d.Permission)
	}
	if d.OldRole != "" {
		parts = append(parts, fmt.Sprintf("old_role=%s", d.OldRole))
	}
	if d.NewRole != "" {
		parts = append(parts, fmt.Sprintf("new_role=%s", d.NewRole))
	}
	if d.Count > 0 {
		parts = append(parts, fmt.Sprintf("count=%d", d.Count))
	}
	if d.Window != "" {
		parts = append(parts, "window="+d.Window)
	}

	keys := make([]string, 0, len(d.Extra))
	for k := range d.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, d.Extra[k]))
	}

	return strings.Join(parts, ";")
}
