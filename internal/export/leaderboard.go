package export

import (
	"fmt"
	"io"

	"quiz-competition-service/internal/domain"

	"github.com/xuri/excelize/v2"
)

// LeaderboardSheet is the sheet name of exported workbooks.
const LeaderboardSheet = "Leaderboard"

var leaderboardHeader = []interface{}{"Rank", "Name", "Matric", "Department", "Score", "Total", "Percentage", "Date"}

// WriteLeaderboard streams entries into an XLSX workbook written to w.
func WriteLeaderboard(w io.Writer, entries []domain.LeaderboardEntry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", LeaderboardSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(LeaderboardSheet)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}
	if err := sw.SetRow("A1", leaderboardHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		date := ""
		if !e.CreatedAt.IsZero() {
			date = e.CreatedAt.Format(domain.LeaderboardDateLayout)
		}
		row := []interface{}{
			i + 1,
			sanitizeCell(e.Name),
			sanitizeCell(e.Matric),
			sanitizeCell(e.Department),
			e.Score,
			e.Total,
			e.Percentage,
			date,
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return f.Write(w)
}

// sanitizeCell neutralizes values a spreadsheet would evaluate as a formula.
func sanitizeCell(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}
