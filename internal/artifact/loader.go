// Package artifact loads the pre-trained model bundle produced by the
// training notebook.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kau-z/heart-disease/internal/features"
	"github.com/kau-z/heart-disease/internal/model"
)

// ErrInvalid wraps every reason a bundle fails to load.
var ErrInvalid = errors.New("artifact: invalid bundle")

// Paths relative to the project root.
var (
	ClassifierPath = filepath.Join("notebooks", "outputs", "rf_model.json")
	ScalerPath     = filepath.Join("notebooks", "outputs", "scaler.json")
	ColumnsPath    = filepath.Join("notebooks", "outputs", "columns.json")
	ReferencePath  = filepath.Join("notebooks", "outputs", "cleaned_heart.csv")
)

// Bundle holds the read-only artifacts for the lifetime of the process.
type Bundle struct {
	Columns    features.Schema
	Scaler     *model.StandardScaler
	Classifier *model.Forest
	Reference  *Reference
}

// Load reads and cross-checks every artifact under root.
func Load(root string) (*Bundle, error) {
	var columns []string
	if err := readJSON(filepath.Join(root, ColumnsPath), &columns); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: empty column list", ErrInvalid)
	}

	scaler := &model.StandardScaler{}
	if err := readJSON(filepath.Join(root, ScalerPath), scaler); err != nil {
		return nil, err
	}
	if err := scaler.Validate(len(columns)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	forest := &model.Forest{}
	if err := readJSON(filepath.Join(root, ClassifierPath), forest); err != nil {
		return nil, err
	}
	if err := forest.Validate(len(columns)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	ref, err := LoadReference(filepath.Join(root, ReferencePath))
	if err != nil {
		return nil, err
	}

	return &Bundle{
		Columns:    features.Schema(columns),
		Scaler:     scaler,
		Classifier: forest,
		Reference:  ref,
	}, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrInvalid, path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrInvalid, path, err)
	}
	return nil
}
