package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/studyr/internal/history"
)

type jsonExport struct {
	ExportedAt   string      `json:"exported_at"`
	Count        int         `json:"count"`
	FocusMinutes float64     `json:"focus_minutes"`
	Folders      []string    `json:"folders"`
	Entries      []jsonEntry `json:"entries"`
}

type jsonEntry struct {
	Date     string  `json:"date"`
	Time     string  `json:"time"`
	Type     string  `json:"type"`
	Folder   string  `json:"folder"`
	Minutes  float64 `json:"minutes"`
	Duration string  `json:"duration"`
}

func ToJSON(entries []history.Entry, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create json file: %w", err)
	}
	defer f.Close()

	if err := WriteJSON(f, entries); err != nil {
		return err
	}
	return f.Close()
}

func WriteJSON(w io.Writer, entries []history.Entry) error {
	export := jsonExport{
		ExportedAt:   time.Now().UTC().Format(time.RFC3339),
		Count:        len(entries),
		FocusMinutes: history.FocusMinutes(entries),
		Folders:      history.Folders(history.GroupByFolder(entries)),
	}

	for _, e := range entries {
		export.Entries = append(export.Entries, jsonEntry{
			Date:     e.Date,
			Time:     e.Time,
			Type:     string(e.SessionType),
			Folder:   e.Folder,
			Minutes:  e.Minutes,
			Duration: formatDuration(e.Minutes),
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	data = append(data, '\n')

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}
