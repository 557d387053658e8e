package advice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kau-z/heart-disease/internal/advice"
	"github.com/kau-z/heart-disease/internal/features"
	"github.com/kau-z/heart-disease/internal/predict"
)

func baseline() features.Record {
	r := features.DefaultRecord()
	r.Sex = "Female"
	return r
}

func TestTipsThresholds(t *testing.T) {
	r := baseline()
	r.Age = 50
	r.Sex = "Male"
	r.Cholesterol = 260
	r.RestingBloodPressure = 135
	r.Oldpeak = 2.5

	top := []predict.Attribution{
		{Feature: "cholestoral", Value: 0.12},
		{Feature: "resting_blood_pressure", Value: -0.08},
		{Feature: "sex_Male", Value: 0.05},
	}
	tips := advice.Tips(r, top)

	assert.Equal(t, []string{
		advice.CholesterolTip,
		advice.BloodPressureTip,
		advice.ConsultTip,
		advice.SexRiskTip,
	}, tips, "emphasis tips are suppressed when the topic is already covered")
}

func TestTipsFromFactorsOnly(t *testing.T) {
	top := []predict.Attribution{
		{Feature: "cholestoral", Value: -0.2},
		{Feature: "age", Value: 0.1},
		{Feature: "resting_blood_pressure", Value: 0.05},
	}

	tips := advice.Tips(baseline(), top)
	assert.Equal(t, []string{advice.CholesterolFactorTip, advice.BloodPressureFactorTip}, tips)
}

func TestTipsIgnoreZeroFactors(t *testing.T) {
	top := []predict.Attribution{{Feature: "cholestoral", Value: 0}}
	assert.Equal(t, []string{advice.NoTips}, advice.Tips(baseline(), top))
}

func TestTipsExercise(t *testing.T) {
	r := baseline()
	r.MaxHeartRate = 90
	r.Age = 45
	assert.Equal(t, []string{advice.ExerciseTip}, advice.Tips(r, nil))

	r.Age = 60
	assert.Equal(t, []string{advice.NoTips}, advice.Tips(r, nil))
}

func TestTipsBoundariesAreExclusive(t *testing.T) {
	r := baseline()
	r.Cholesterol = 240
	r.RestingBloodPressure = 130
	r.Oldpeak = 2
	r.MaxHeartRate = 100
	assert.Equal(t, []string{advice.NoTips}, advice.Tips(r, nil))
}

func TestTipsDeterministic(t *testing.T) {
	r := baseline()
	r.Sex = "Male"
	r.Cholesterol = 300
	top := []predict.Attribution{{Feature: "resting_blood_pressure", Value: 0.3}, {Feature: "cholestoral", Value: 0.2}}

	first := advice.Tips(r, top)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, advice.Tips(r, top))
	}
	assert.Equal(t, []string{advice.CholesterolTip, advice.SexRiskTip, advice.BloodPressureFactorTip}, first)
}
