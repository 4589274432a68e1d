// Package export writes task snapshots as JSON, CSV or PDF.
// Only the JSON form can be imported again.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/nibzard/taskboard/internal/store"
	"github.com/nibzard/taskboard/internal/task"
)

// Format is an export file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
)

// Formats returns the supported formats.
func Formats() []Format {
	return []Format{FormatJSON, FormatCSV, FormatPDF}
}

// ParseFormat maps a user string to a format. The empty string is JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatCSV, FormatPDF:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want json, csv or pdf)", s)
	}
}

// DefaultFilename returns the download name for an export taken at now,
// e.g. "tasks-export-2024-10-18.json".
func DefaultFilename(f Format, now time.Time) string {
	return fmt.Sprintf("tasks-export-%s.%s", now.Format("2006-01-02"), f)
}

// Write encodes snap to w in format f.
func Write(w io.Writer, f Format, snap store.Snapshot) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, snap)
	case FormatCSV:
		return writeCSV(w, snap)
	case FormatPDF:
		return writePDF(w, snap)
	default:
		return fmt.Errorf("unknown export format %q", f)
	}
}

func writeJSON(w io.Writer, snap store.Snapshot) error {
	if snap.Tasks == nil {
		snap.Tasks = []task.Task{}
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

var csvHeader = []string{"id", "title", "description", "deadline", "priority", "category", "completed", "createdAt", "updatedAt"}

func writeCSV(w io.Writer, snap store.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, t := range snap.Tasks {
		deadline := ""
		if t.Deadline != nil {
			deadline = t.Deadline.Format(time.RFC3339)
		}
		row := []string{
			string(t.ID),
			t.Title,
			t.Description,
			deadline,
			string(t.Priority),
			string(t.Category),
			fmt.Sprint(t.Completed),
			t.CreatedAt.UTC().Format(time.RFC3339),
			t.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writePDF(w io.Writer, snap store.Snapshot) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Task export", true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(40, 10, "Task Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(40, 6, fmt.Sprintf("Exported %s, %d tasks", task.FormatDate(snap.ExportedAt), snap.TotalTasks))
	pdf.Ln(10)

	for _, t := range snap.Tasks {
		mark := "[ ]"
		if t.Completed {
			mark = "[x]"
		}
		due := "no deadline"
		if t.Deadline != nil {
			due = "due " + task.FormatDate(*t.Deadline)
		}

		pdf.SetFont("Arial", "B", 11)
		pdf.MultiCell(0, 6, tr(fmt.Sprintf("%s %s", mark, t.Title)), "0", "L", false)
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(0, 5, tr(fmt.Sprintf("%s priority, %s, %s", t.Priority, t.Category, due)), "0", "L", false)
		if t.Description != "" {
			pdf.MultiCell(0, 5, tr(t.Description), "0", "L", false)
		}
		pdf.Ln(3)
	}
	return pdf.Output(w)
}
