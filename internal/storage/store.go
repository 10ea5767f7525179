package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

var ErrBadRecord = errors.New("storage: malformed tick record")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Width     int                `json:"width"`
	Height    int                `json:"height"`
	Palettes  []string           `json:"palettes"`
	Ticks     int                `json:"ticks"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Tick is one recorded frame: the pointer event and per-system counts.
type Tick struct {
	Tick      uint64  `json:"tick"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Pressed   bool    `json:"pressed"`
	Button    string  `json:"button"`
	Particles []int   `json:"particles"`
	Trail     []int   `json:"trail"`
}

// Save writes metadata.json and ticks.csv into a new run directory and
// returns its id.
func (s *Store) Save(meta RunMetadata, ticks []Tick) (string, error) {
	name := meta.Name
	if name == "" {
		name = "run"
	}
	runID := fmt.Sprintf("%s_%d", slug(name), time.Now().UnixMilli())
	runDir := filepath.Join(s.baseDir, runID)
	for i := 1; ; i++ {
		if _, err := os.Stat(runDir); os.IsNotExist(err) {
			break
		}
		runDir = filepath.Join(s.baseDir, fmt.Sprintf("%s-%d", runID, i))
	}
	runID = filepath.Base(runDir)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Ticks = len(ticks)
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "ticks.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	systems := len(meta.Palettes)
	if len(ticks) > 0 {
		systems = len(ticks[0].Particles)
	}

	header := []string{"tick", "x", "y", "pressed", "button"}
	for i := 0; i < systems; i++ {
		header = append(header, fmt.Sprintf("particles%d", i), fmt.Sprintf("trail%d", i))
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for _, t := range ticks {
		row := []string{
			strconv.FormatUint(t.Tick, 10),
			strconv.FormatFloat(t.X, 'f', 3, 64),
			strconv.FormatFloat(t.Y, 'f', 3, 64),
			strconv.FormatBool(t.Pressed),
			t.Button,
		}
		for i := 0; i < systems; i++ {
			p, tr := 0, 0
			if i < len(t.Particles) {
				p = t.Particles[i]
			}
			if i < len(t.Trail) {
				tr = t.Trail[i]
			}
			row = append(row, strconv.Itoa(p), strconv.Itoa(tr))
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return runID, nil
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadTicks(runID string) ([]Tick, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "ticks.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []Tick{}, nil
	}

	ticks := make([]Tick, 0, len(records)-1)
	for line, rec := range records[1:] {
		t, err := parseTick(rec)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", runID, line+2, err)
		}
		ticks = append(ticks, t)
	}
	return ticks, nil
}

func parseTick(rec []string) (Tick, error) {
	if len(rec) < 5 || (len(rec)-5)%2 != 0 {
		return Tick{}, ErrBadRecord
	}
	var (
		t   Tick
		err error
	)
	if t.Tick, err = strconv.ParseUint(rec[0], 10, 64); err != nil {
		return Tick{}, fmt.Errorf("%w: %v", ErrBadRecord, err)
	}
	if t.X, err = strconv.ParseFloat(rec[1], 64); err != nil {
		return Tick{}, fmt.Errorf("%w: %v", ErrBadRecord, err)
	}
	if t.Y, err = strconv.ParseFloat(rec[2], 64); err != nil {
		return Tick{}, fmt.Errorf("%w: %v", ErrBadRecord, err)
	}
	if t.Pressed, err = strconv.ParseBool(rec[3]); err != nil {
		return Tick{}, fmt.Errorf("%w: %v", ErrBadRecord, err)
	}
	t.Button = rec[4]
	for i := 5; i < len(rec); i += 2 {
		p, err := strconv.Atoi(rec[i])
		if err != nil {
			return Tick{}, fmt.Errorf("%w: %v", ErrBadRecord, err)
		}
		tr, err := strconv.Atoi(rec[i+1])
		if err != nil {
			return Tick{}, fmt.Errorf("%w: %v", ErrBadRecord, err)
		}
		t.Particles = append(t.Particles, p)
		t.Trail = append(t.Trail, tr)
	}
	return t, nil
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, s)
}
