package storage

import (
	"encoding/json"
	"io"
)

type ExportData struct {
	Run   RunMetadata `json:"run"`
	Ticks []Tick      `json:"ticks"`
}

// ExportJSON writes a run and its ticks as indented JSON.
func ExportJSON(w io.Writer, meta RunMetadata, ticks []Tick) error {
	if ticks == nil {
		ticks = []Tick{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{Run: meta, Ticks: ticks})
}

// Export loads a stored run and writes it with ExportJSON.
func (s *Store) Export(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	ticks, err := s.LoadTicks(runID)
	if err != nil {
		return err
	}
	return ExportJSON(w, *meta, ticks)
}
