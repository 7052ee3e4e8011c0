// Package formatter renders prepare summaries and download reports as plain text and CSV
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/mandolin/internal/models"
	"github.com/dustin/go-humanize"
)

const rule = "═══════════════════════════════════════"

// Header renders a ruled section title.
func Header(title string) string {
	return fmt.Sprintf("%s\n%s\n%s\n", rule, styles.Title(title), rule)
}

// tracks pluralizes a track count with thousands separators.
func tracks(n int) string {
	word := "tracks"
	if n == 1 {
		word = "track"
	}
	return humanize.Comma(int64(n)) + " " + word
}

// SummaryText renders one prepared collection.
func SummaryText(s *models.CollectionSummary) []byte {
	var buf bytes.Buffer

	buf.WriteString(Header(s.Name))
	buf.WriteString(fmt.Sprintf("Tracks:      %s\n", tracks(s.TrackCount)))
	if s.Link != "" {
		buf.WriteString(fmt.Sprintf("Link:        %s\n", s.Link))
	}
	buf.WriteString(fmt.Sprintf("Download ID: %s\n", styles.OK(s.DownloadID)))

	return buf.Bytes()
}

// BatchText renders a multi-collection result, one line per collection followed by the aggregate id.
func BatchText(b *models.PreparedBatch) []byte {
	var buf bytes.Buffer

	total := 0
	for _, c := range b.Collections {
		total += c.TrackCount
	}

	buf.WriteString(Header(fmt.Sprintf("%s (%s)", b.Owner, b.Kind)))
	buf.WriteString(fmt.Sprintf("%s collections, %s\n\n", humanize.Comma(int64(len(b.Collections))), tracks(total)))

	for i, c := range b.Collections {
		buf.WriteString(fmt.Sprintf("%d. %s [%s]\n", i+1, c.Name, tracks(c.TrackCount)))
		buf.WriteString(fmt.Sprintf("   %s\n", styles.Help(c.DownloadID)))
	}

	if len(b.Collections) == 0 {
		buf.WriteString(styles.Warn("No collections found") + "\n")
	}

	buf.WriteString(fmt.Sprintf("\nDownload ID (all): %s\n", styles.OK(b.DownloadID)))
	return buf.Bytes()
}

// DescriptorText renders a decoded download id and any names that no longer resolve.
func DescriptorText(d models.JobDescriptor, missing []string) []byte {
	var buf bytes.Buffer

	absent := make(map[string]bool, len(missing))
	for _, m := range missing {
		absent[m] = true
	}

	buf.WriteString(Header(fmt.Sprintf("%s track lists", humanize.Comma(int64(len(d.FileNames))))))
	for i, name := range d.FileNames {
		mark := styles.OK("✓")
		if absent[name] {
			mark = styles.Err("✗")
		}
		buf.WriteString(fmt.Sprintf("%s %d. %s\n", mark, i+1, name))
	}

	if len(missing) > 0 {
		buf.WriteString("\n" + styles.Warn(fmt.Sprintf("%d missing", len(missing))) + "\n")
	}
	return buf.Bytes()
}

// ReportText renders a download report: totals, then every failure.
func ReportText(r *models.FetchReport) []byte {
	var buf bytes.Buffer

	buf.WriteString(Header("Download " + r.ID))
	buf.WriteString(fmt.Sprintf("Lists:     %s\n", humanize.Comma(int64(len(r.Lists)))))
	buf.WriteString(fmt.Sprintf("Tracks:    %s\n", humanize.Comma(int64(r.Total))))
	buf.WriteString(fmt.Sprintf("Succeeded: %s\n", styles.OK(humanize.Comma(int64(r.Succeeded)))))

	failed := humanize.Comma(int64(r.Failed))
	if r.Failed > 0 {
		failed = styles.Err(failed)
	}
	buf.WriteString(fmt.Sprintf("Failed:    %s\n", failed))

	if failures := r.Failures(); len(failures) > 0 {
		buf.WriteString("\nFailures:\n")
		for _, f := range failures {
			buf.WriteString(fmt.Sprintf("  ✗ %s: %s\n", f.Reference, f.Error))
		}
	}

	return buf.Bytes()
}

// ReportToCSV converts a FetchReport to CSV format with columns: List, Link, Query, Status, Error
func ReportToCSV(r *models.FetchReport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"List", "Link", "Query", "Status", "Error"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, list := range r.Lists {
		for _, t := range list.Tracks {
			status := "ok"
			if !t.OK() {
				status = "failed"
			}
			record := []string{list.FileName, t.Reference.Link, t.Reference.Query, status, t.Error}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteCSVReport writes the report CSV to path, creating parent directories.
// A path without an extension gets ".csv" appended. Returns the written path.
func WriteCSVReport(r *models.FetchReport, path string) (string, error) {
	data, err := ReportToCSV(r)
	if err != nil {
		return "", err
	}

	if filepath.Ext(path) == "" {
		path += ".csv"
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}

	return path, nil
}
