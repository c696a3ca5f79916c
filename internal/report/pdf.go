// Package report renders completion history as a printable PDF.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"campus/companion/internal/model"
	"campus/companion/internal/timer"
)

type HistoryReport struct {
	UserEmail   string
	GeneratedAt time.Time
	Stats       model.TimerStats
	Records     []model.SessionRecord
}

func (r HistoryReport) Write(w io.Writer) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Focus Report")
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 11)
	if r.UserEmail != "" {
		pdf.Cell(0, 8, r.UserEmail)
		pdf.Ln(6)
	}
	pdf.Cell(0, 8, fmt.Sprintf("Generated %s", r.GeneratedAt.Format("2006-01-02 15:04 MST")))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Completed Pomodoros: %d", r.Stats.RecordedFocusCount))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Focus time: %s", formatMinutes(r.Stats.FocusSeconds)))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Break time: %s", formatMinutes(r.Stats.BreakSeconds)))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Sessions")
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(50, 7, "Completed", "1", 0, "", false, 0, "")
	pdf.CellFormat(40, 7, "Mode", "1", 0, "", false, 0, "")
	pdf.CellFormat(30, 7, "Length", "1", 0, "", false, 0, "")
	pdf.CellFormat(40, 7, "Then", "1", 1, "", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	if len(r.Records) == 0 {
		pdf.CellFormat(160, 7, "No sessions completed yet.", "1", 1, "", false, 0, "")
	}
	for _, record := range r.Records {
		pdf.CellFormat(50, 7, record.CompletedAt.Format("2006-01-02 15:04"), "1", 0, "", false, 0, "")
		pdf.CellFormat(40, 7, record.Mode.Label(), "1", 0, "", false, 0, "")
		pdf.CellFormat(30, 7, timer.FormatClock(record.PlannedDurationSeconds), "1", 0, "", false, 0, "")
		pdf.CellFormat(40, 7, record.NextMode.Label(), "1", 1, "", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

func formatMinutes(seconds int) string {
	return fmt.Sprintf("%dh %02dm", seconds/3600, (seconds%3600)/60)
}
