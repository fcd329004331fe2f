// package formatter provides functions to export sync reports to various formats (JSON, Markdown, CSV, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ryecroft/amsync/internal/library"
	"github.com/ryecroft/amsync/internal/shared"
)

// ReportToJSON generates a JSON representation of a sync report
func ReportToJSON(report library.Report) ([]byte, error) {
	return shared.MarshalJSON(report, true)
}

// ReportToCSV converts a sync report to CSV with columns: Outcome, Title, Artist, Album, CatalogID, Score, Reason
func ReportToCSV(report library.Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Outcome", "Title", "Artist", "Album", "CatalogID", "Score", "Reason"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	write := func(record []string) error {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
		return nil
	}

	for _, r := range report.Added {
		record := []string{"added", r.Track.Title, r.Track.Artist, r.Track.Album, r.Song.ID, strconv.FormatFloat(r.Score, 'f', 2, 64), ""}
		if err := write(record); err != nil {
			return nil, err
		}
	}

	for _, track := range report.NotFound {
		record := []string{"not_found", track.Title, track.Artist, track.Album, "", "", ""}
		if err := write(record); err != nil {
			return nil, err
		}
	}

	for _, f := range report.FailedSync {
		record := []string{"failed_sync", f.Track.Title, f.Track.Artist, f.Track.Album, f.Song.ID, "", f.Reason}
		if err := write(record); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ReportToMarkdown converts a sync report to Markdown
func ReportToMarkdown(report library.Report) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Sync: %s\n\n", report.Playlist))
	buf.WriteString(fmt.Sprintf("**Requested**: %d\n", report.Requested))
	buf.WriteString(fmt.Sprintf("**Added**: %d\n", len(report.Added)))
	buf.WriteString(fmt.Sprintf("**Not found**: %d\n", len(report.NotFound)))
	buf.WriteString(fmt.Sprintf("**Failed**: %d\n\n", len(report.FailedSync)))

	if len(report.Added) > 0 {
		buf.WriteString("## Added\n\n")
		for i, r := range report.Added {
			albumPart := ""
			if r.Track.Album != "" {
				albumPart = fmt.Sprintf(" (%s)", r.Track.Album)
			}
			buf.WriteString(fmt.Sprintf("%d. %s - %s%s [%.2f]\n", i+1, r.Track.Artist, r.Track.Title, albumPart, r.Score))
		}
		buf.WriteString("\n")
	}

	if len(report.NotFound) > 0 {
		buf.WriteString("## Not Found\n\n")
		for i, track := range report.NotFound {
			buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, track.Artist, track.Title))
		}
		buf.WriteString("\n")
	}

	if len(report.FailedSync) > 0 {
		buf.WriteString("## Failed\n\n")
		for i, f := range report.FailedSync {
			buf.WriteString(fmt.Sprintf("%d. %s - %s: %s\n", i+1, f.Track.Artist, f.Track.Title, f.Reason))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ReportToText converts a sync report to plain text
func ReportToText(report library.Report) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", report.Playlist))
	buf.WriteString(fmt.Sprintf("Requested: %d, added: %d, not found: %d, failed: %d\n\n",
		report.Requested, len(report.Added), len(report.NotFound), len(report.FailedSync)))

	for _, r := range report.Added {
		buf.WriteString(fmt.Sprintf("  + %s\n", r.Track))
	}
	for _, track := range report.NotFound {
		buf.WriteString(fmt.Sprintf("  ? %s\n", track))
	}
	for _, f := range report.FailedSync {
		buf.WriteString(fmt.Sprintf("  ! %s (%s)\n", f.Track, f.Reason))
	}

	return buf.Bytes(), nil
}

// WriteReport writes a sync report to a file, picking the format from
// the file extension (.json, .md, .csv, anything else plain text).
func WriteReport(report library.Report, path string) error {
	var (
		data []byte
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = ReportToJSON(report)
	case ".md":
		data, err = ReportToMarkdown(report)
	case ".csv":
		data, err = ReportToCSV(report)
	default:
		data, err = ReportToText(report)
	}

	if err != nil {
		return fmt.Errorf("failed to format report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}

	return nil
}
