package features_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kau-z/heart-disease/internal/features"
)

func sampleRecord() features.Record {
	return features.Record{
		Age:                   50,
		Sex:                   "Male",
		ChestPainType:         "Asymptomatic",
		RestingBloodPressure:  135,
		Cholesterol:           260,
		FastingBloodSugar:     "No",
		RestECG:               "Normal",
		MaxHeartRate:          150,
		ExerciseInducedAngina: "Yes",
		Oldpeak:               2.5,
		Slope:                 "Flat",
	}
}

func TestOneHot(t *testing.T) {
	enc := features.OneHot(sampleRecord())

	assert.Equal(t, 50.0, enc["age"])
	assert.Equal(t, 260.0, enc["cholestoral"])
	assert.Equal(t, 2.5, enc["oldpeak"])
	assert.Equal(t, 1.0, enc["sex_Male"])
	assert.Equal(t, 1.0, enc["chest_pain_type_Asymptomatic"])
	assert.Equal(t, 1.0, enc["slope_Flat"])
	assert.NotContains(t, enc, "sex_Female")
	assert.Len(t, enc, 11)
}

func TestReindexKeepsSchemaOrder(t *testing.T) {
	schema := features.Schema{"slope_Flat", "age", "sex_Female", "cholestoral", "rest_ecg_Normal"}

	vec := schema.Encode(sampleRecord())

	require.Len(t, vec, len(schema))
	assert.Equal(t, []float64{1, 50, 0, 260, 1}, vec)
}

func TestReindexDropsUnknownColumns(t *testing.T) {
	schema := features.Schema{"age", "sex_Male"}
	vec := schema.Reindex(map[string]float64{
		"age":               61,
		"sex_Male":          1,
		"chest_pain_type_X": 1,
		"unseen":            5,
	})

	assert.Equal(t, []float64{61, 1}, vec)
}

func TestReindexEmptySchema(t *testing.T) {
	vec := features.Schema{}.Encode(sampleRecord())
	assert.Empty(t, vec)
}

func TestEncodeDeterministic(t *testing.T) {
	schema := features.Schema{"age", "sex_Male", "slope_Up", "oldpeak", "Max_heart_rate"}
	first := schema.Encode(sampleRecord())
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, schema.Encode(sampleRecord()))
	}
}

func TestSchemaIndex(t *testing.T) {
	schema := features.Schema{"age", "sex_Male"}
	assert.Equal(t, 1, schema.Index("sex_Male"))
	assert.Equal(t, -1, schema.Index("sex_Female"))
}

func TestValidate(t *testing.T) {
	require.NoError(t, sampleRecord().Validate())
	require.NoError(t, features.DefaultRecord().Validate())

	tests := []struct {
		name   string
		mutate func(*features.Record)
	}{
		{"age too low", func(r *features.Record) { r.Age = 19 }},
		{"cholesterol too high", func(r *features.Record) { r.Cholesterol = 601 }},
		{"oldpeak negative", func(r *features.Record) { r.Oldpeak = -0.1 }},
		{"unknown sex", func(r *features.Record) { r.Sex = "Other" }},
		{"unknown slope", func(r *features.Record) { r.Slope = "Sideways" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := sampleRecord()
			tt.mutate(&r)
			err := r.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, features.ErrInvalidRecord))
		})
	}
}

func TestWithWhatIfClamps(t *testing.T) {
	r := sampleRecord()

	wi := r.WithWhatIf(180, 110)
	assert.Equal(t, 180, wi.Cholesterol)
	assert.Equal(t, 110, wi.RestingBloodPressure)
	assert.Equal(t, r.Age, wi.Age)
	assert.Equal(t, 260, r.Cholesterol, "receiver must not change")

	wi = r.WithWhatIf(5000, 10)
	assert.Equal(t, 600, wi.Cholesterol)
	assert.Equal(t, 80, wi.RestingBloodPressure)
}
