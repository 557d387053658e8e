// Package history keeps the append-only CSV log of past predictions.
package history

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/kau-z/heart-disease/internal/features"
)

// DateLayout is how prediction dates are written.
const DateLayout = "2006-01-02"

var (
	// ErrStaleView means the table changed since the view used to pick rows
	// was rendered.
	ErrStaleView = errors.New("history: view is out of date")
	// ErrPosition means a selected position does not exist.
	ErrPosition = errors.New("history: position out of range")
)

// Header is the column order of the history file.
var Header = append([]string{"date", "probability"}, features.Fields...)

// Row is one logged prediction.
type Row struct {
	Date        string          `json:"date"`
	Probability float64         `json:"probability"`
	Record      features.Record `json:"record"`
}

// NewRow stamps a prediction with the date of now.
func NewRow(now time.Time, prob float64, r features.Record) Row {
	return Row{Date: now.Format(DateLayout), Probability: prob, Record: r}
}

// Table is the full history as currently stored.
type Table struct {
	Exists bool  `json:"exists"`
	Rows   []Row `json:"rows"`
}

// Empty reports whether there is nothing to show.
func (t Table) Empty() bool { return len(t.Rows) == 0 }

// Store reads and writes the history file. Each call opens, fully reads or
// writes, and closes the file.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore returns a Store backed by path. The file is created lazily.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Append adds one row, writing the header first if the file is absent or
// empty.
func (s *Store) Append(row Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	needHeader := true
	if info, err := os.Stat(s.path); err == nil && info.Size() > 0 {
		needHeader = false
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("history: open: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if needHeader {
		if err := w.Write(Header); err != nil {
			return fmt.Errorf("history: write header: %w", err)
		}
	}
	if err := w.Write(row.fields()); err != nil {
		return fmt.Errorf("history: write row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("history: flush: %w", err)
	}
	return f.Close()
}

// Load reads the whole table. A missing file is not an error.
func (s *Store) Load() (Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() (Table, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Table{}, nil
	}
	if err != nil {
		return Table{}, fmt.Errorf("history: open: %w", err)
	}
	defer f.Close()

	rows, err := readRows(f)
	if err != nil {
		return Table{}, fmt.Errorf("history: %s: %w", s.path, err)
	}
	return Table{Exists: true, Rows: rows}, nil
}

// Delete removes the given zero-based positions and rewrites the file.
// viewLen is the number of rows the caller's view showed; if the table has
// since changed size nothing is deleted and ErrStaleView is returned.
// It returns the number of rows removed.
func (s *Store) Delete(positions []int, viewLen int) (int, error) {
	if len(positions) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	table, err := s.load()
	if err != nil {
		return 0, err
	}
	if !table.Exists || len(table.Rows) != viewLen {
		return 0, fmt.Errorf("%w: showed %d rows, store has %d", ErrStaleView, viewLen, len(table.Rows))
	}

	drop := make(map[int]bool, len(positions))
	for _, p := range positions {
		if p < 0 || p >= len(table.Rows) {
			return 0, fmt.Errorf("%w: %d", ErrPosition, p)
		}
		drop[p] = true
	}

	remaining := make([]Row, 0, len(table.Rows)-len(drop))
	for i, row := range table.Rows {
		if !drop[i] {
			remaining = append(remaining, row)
		}
	}
	if err := s.rewrite(remaining); err != nil {
		return 0, err
	}
	return len(drop), nil
}

// rewrite replaces the file with header + rows via a temp file in the same
// directory.
func (s *Store) rewrite(rows []Row) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("history: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	records := make([][]string, 0, len(rows)+1)
	records = append(records, Header)
	for _, row := range rows {
		records = append(records, row.fields())
	}
	if err := w.WriteAll(records); err != nil {
		tmp.Close()
		return fmt.Errorf("history: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("history: close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("history: replace: %w", err)
	}
	return nil
}

func (r Row) fields() []string {
	rec := r.Record
	return []string{
		r.Date,
		strconv.FormatFloat(r.Probability, 'g', -1, 64),
		strconv.Itoa(rec.Age),
		rec.Sex,
		rec.ChestPainType,
		strconv.Itoa(rec.RestingBloodPressure),
		strconv.Itoa(rec.Cholesterol),
		rec.FastingBloodSugar,
		rec.RestECG,
		strconv.Itoa(rec.MaxHeartRate),
		rec.ExerciseInducedAngina,
		strconv.FormatFloat(rec.Oldpeak, 'g', -1, 64),
		rec.Slope,
	}
}

func readRows(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if !slices.Equal(header, Header) {
		return nil, fmt.Errorf("unexpected header %v", header)
	}

	var rows []Row
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		row, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
}

func parseRow(rec []string) (Row, error) {
	var (
		row  Row
		errs []error
	)
	atoi := func(s string) int {
		v, err := strconv.Atoi(s)
		errs = append(errs, err)
		return v
	}
	atof := func(s string) float64 {
		v, err := strconv.ParseFloat(s, 64)
		errs = append(errs, err)
		return v
	}

	row.Date = rec[0]
	row.Probability = atof(rec[1])
	row.Record = features.Record{
		Age:                   atoi(rec[2]),
		Sex:                   rec[3],
		ChestPainType:         rec[4],
		RestingBloodPressure:  atoi(rec[5]),
		Cholesterol:           atoi(rec[6]),
		FastingBloodSugar:     rec[7],
		RestECG:               rec[8],
		MaxHeartRate:          atoi(rec[9]),
		ExerciseInducedAngina: rec[10],
		Oldpeak:               atof(rec[11]),
		Slope:                 rec[12],
	}
	if err := errors.Join(errs...); err != nil {
		return Row{}, err
	}
	return row, nil
}
