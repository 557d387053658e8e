package artifact

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Reference is the cleaned training dataset, kept for population
// comparisons. Only numeric cells are retained.
type Reference struct {
	Rows    int
	columns map[string][]float64
}

// LoadReference reads a CSV with a header row.
func LoadReference(path string) (*Reference, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrInvalid, path, err)
	}
	defer f.Close()

	ref, err := ReadReference(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}
	return ref, nil
}

// ReadReference parses CSV data. Empty or non-numeric cells are skipped,
// the way a column mean skips missing values.
func ReadReference(r io.Reader) (*Reference, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	ref := &Reference{columns: make(map[string][]float64, len(header))}
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		ref.Rows++
		for i, cell := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil || math.IsNaN(v) {
				continue
			}
			ref.columns[header[i]] = append(ref.columns[header[i]], v)
		}
	}
	return ref, nil
}

// Mean returns the average of a numeric column and whether it had any values.
func (r *Reference) Mean(column string) (float64, bool) {
	vals := r.columns[column]
	if len(vals) == 0 {
		return 0, false
	}
	return stat.Mean(vals, nil), true
}
