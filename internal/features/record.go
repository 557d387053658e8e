package features

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidRecord is returned when a Record falls outside the form bounds.
var ErrInvalidRecord = errors.New("features: invalid record")

// Column names, spelled as in the training CSV.
const (
	ColAge                   = "age"
	ColSex                   = "sex"
	ColChestPainType         = "chest_pain_type"
	ColRestingBloodPressure  = "resting_blood_pressure"
	ColCholesterol           = "cholestoral"
	ColFastingBloodSugar     = "fasting_blood_sugar"
	ColRestECG               = "rest_ecg"
	ColMaxHeartRate          = "Max_heart_rate"
	ColExerciseInducedAngina = "exercise_induced_angina"
	ColOldpeak               = "oldpeak"
	ColSlope                 = "slope"
)

// Fields lists the record columns in form and history order.
var Fields = []string{
	ColAge,
	ColSex,
	ColChestPainType,
	ColRestingBloodPressure,
	ColCholesterol,
	ColFastingBloodSugar,
	ColRestECG,
	ColMaxHeartRate,
	ColExerciseInducedAngina,
	ColOldpeak,
	ColSlope,
}

var (
	SexOptions       = []string{"Female", "Male"}
	ChestPainOptions = []string{"Typical Angina", "Atypical Angina", "Non-Anginal Pain", "Asymptomatic"}
	YesNoOptions     = []string{"No", "Yes"}
	RestECGOptions   = []string{"Normal", "ST-T abnormality", "Left Ventricular Hypertrophy"}
	SlopeOptions     = []string{"Up", "Flat", "Down"}
)

// Bounds describes one numeric form widget.
type Bounds struct {
	Min, Max, Default, Step float64
}

// Contains reports whether v lies in [Min, Max].
func (b Bounds) Contains(v float64) bool { return v >= b.Min && v <= b.Max }

// Clamp pins v into [Min, Max].
func (b Bounds) Clamp(v float64) float64 {
	if v < b.Min {
		return b.Min
	}
	if v > b.Max {
		return b.Max
	}
	return v
}

var (
	AgeBounds          = Bounds{Min: 20, Max: 100, Default: 50, Step: 1}
	RestingBPBounds    = Bounds{Min: 80, Max: 200, Default: 120, Step: 1}
	CholesterolBounds  = Bounds{Min: 100, Max: 600, Default: 200, Step: 1}
	MaxHeartRateBounds = Bounds{Min: 60, Max: 210, Default: 150, Step: 1}
	OldpeakBounds      = Bounds{Min: 0, Max: 6, Default: 1, Step: 0.1}
)

// Record is one submission of the input form.
type Record struct {
	Age                   int     `json:"age" form:"age" binding:"required,min=20,max=100"`
	Sex                   string  `json:"sex" form:"sex" binding:"required"`
	ChestPainType         string  `json:"chest_pain_type" form:"chest_pain_type" binding:"required"`
	RestingBloodPressure  int     `json:"resting_blood_pressure" form:"resting_blood_pressure" binding:"required,min=80,max=200"`
	Cholesterol           int     `json:"cholestoral" form:"cholestoral" binding:"required,min=100,max=600"`
	FastingBloodSugar     string  `json:"fasting_blood_sugar" form:"fasting_blood_sugar" binding:"required"`
	RestECG               string  `json:"rest_ecg" form:"rest_ecg" binding:"required"`
	MaxHeartRate          int     `json:"Max_heart_rate" form:"Max_heart_rate" binding:"required,min=60,max=210"`
	ExerciseInducedAngina string  `json:"exercise_induced_angina" form:"exercise_induced_angina" binding:"required"`
	Oldpeak               float64 `json:"oldpeak" form:"oldpeak" binding:"min=0,max=6"`
	Slope                 string  `json:"slope" form:"slope" binding:"required"`
}

// DefaultRecord returns the values the form starts with.
func DefaultRecord() Record {
	return Record{
		Age:                   int(AgeBounds.Default),
		Sex:                   SexOptions[0],
		ChestPainType:         ChestPainOptions[0],
		RestingBloodPressure:  int(RestingBPBounds.Default),
		Cholesterol:           int(CholesterolBounds.Default),
		FastingBloodSugar:     YesNoOptions[0],
		RestECG:               RestECGOptions[0],
		MaxHeartRate:          int(MaxHeartRateBounds.Default),
		ExerciseInducedAngina: YesNoOptions[0],
		Oldpeak:               OldpeakBounds.Default,
		Slope:                 SlopeOptions[0],
	}
}

// Validate checks the record against the form widget ranges and options.
func (r Record) Validate() error {
	numeric := []struct {
		name string
		v    float64
		b    Bounds
	}{
		{ColAge, float64(r.Age), AgeBounds},
		{ColRestingBloodPressure, float64(r.RestingBloodPressure), RestingBPBounds},
		{ColCholesterol, float64(r.Cholesterol), CholesterolBounds},
		{ColMaxHeartRate, float64(r.MaxHeartRate), MaxHeartRateBounds},
		{ColOldpeak, r.Oldpeak, OldpeakBounds},
	}
	for _, n := range numeric {
		if !n.b.Contains(n.v) {
			return fmt.Errorf("%w: %s=%v outside [%v, %v]", ErrInvalidRecord, n.name, n.v, n.b.Min, n.b.Max)
		}
	}

	categorical := []struct {
		name    string
		v       string
		options []string
	}{
		{ColSex, r.Sex, SexOptions},
		{ColChestPainType, r.ChestPainType, ChestPainOptions},
		{ColFastingBloodSugar, r.FastingBloodSugar, YesNoOptions},
		{ColRestECG, r.RestECG, RestECGOptions},
		{ColExerciseInducedAngina, r.ExerciseInducedAngina, YesNoOptions},
		{ColSlope, r.Slope, SlopeOptions},
	}
	for _, c := range categorical {
		if !slices.Contains(c.options, c.v) {
			return fmt.Errorf("%w: %s=%q is not one of %v", ErrInvalidRecord, c.name, c.v, c.options)
		}
	}
	return nil
}

// WithWhatIf returns a copy of r with cholesterol and resting blood pressure
// replaced, each clamped to its form range.
func (r Record) WithWhatIf(cholesterol, restingBP int) Record {
	r.Cholesterol = int(CholesterolBounds.Clamp(float64(cholesterol)))
	r.RestingBloodPressure = int(RestingBPBounds.Clamp(float64(restingBP)))
	return r
}
