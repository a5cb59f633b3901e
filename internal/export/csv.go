// Package export writes the session history to CSV or JSON files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/sadopc/studyr/internal/history"
)

var csvHeader = []string{"Date", "Time", "Type", "Folder", "Minutes", "Duration"}

func ToCSV(entries []history.Entry, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	return WriteCSV(f, entries)
}

func WriteCSV(out io.Writer, entries []history.Entry) error {
	w := csv.NewWriter(out)

	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, e := range entries {
		row := []string{
			e.Date,
			e.Time,
			string(e.SessionType),
			e.Folder,
			strconv.FormatFloat(e.Minutes, 'f', -1, 64),
			formatDuration(e.Minutes),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// formatDuration renders minutes as HH:MM:SS, rounded to the second.
func formatDuration(minutes float64) string {
	secs := int64(minutes*60 + 0.5)
	if secs < 0 {
		secs = 0
	}
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
