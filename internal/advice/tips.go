// Package advice derives canned lifestyle suggestions from a record and the
// features that drove its prediction.
package advice

import (
	"strings"

	"github.com/kau-z/heart-disease/internal/features"
	"github.com/kau-z/heart-disease/internal/predict"
)

const (
	CholesterolTip         = "Reduce saturated fats and added sugars to help lower cholesterol."
	BloodPressureTip       = "Lower salt intake and keep regular physical activity to help manage blood pressure."
	ExerciseTip            = "Moderate aerobic exercise can help improve cardiovascular fitness."
	ConsultTip             = "Discuss your stress-test or ECG results with a healthcare provider."
	SexRiskTip             = "Men have slightly higher heart-disease risk; regular check-ups are important."
	CholesterolFactorTip   = "High cholesterol strongly influenced the prediction; consider a heart-healthy diet."
	BloodPressureFactorTip = "Blood pressure was a key factor; monitor and maintain it within a healthy range."

	// NoTips is shown alone when no rule fires.
	NoTips = "Great job! No extra suggestions beyond maintaining a balanced lifestyle."
)

type rule struct {
	tip   string
	match func(features.Record) bool
}

var rules = []rule{
	{CholesterolTip, func(r features.Record) bool { return r.Cholesterol > 240 }},
	{BloodPressureTip, func(r features.Record) bool { return r.RestingBloodPressure > 130 }},
	{ExerciseTip, func(r features.Record) bool { return r.MaxHeartRate < 100 && r.Age < 60 }},
	{ConsultTip, func(r features.Record) bool { return r.Oldpeak > 2 }},
	{SexRiskTip, func(r features.Record) bool { return r.Sex == "Male" }},
}

// factorRule adds tip when a top feature contains column and no tip collected
// so far mentions topic.
type factorRule struct {
	column string
	topic  string
	tip    string
}

var factorRules = []factorRule{
	{features.ColCholesterol, "cholesterol", CholesterolFactorTip},
	{features.ColRestingBloodPressure, "blood pressure", BloodPressureFactorTip},
}

// Tips applies the rule table in declaration order. top should be the
// top-ranked attributions; only those with a non-zero magnitude count. The
// result is never empty.
func Tips(r features.Record, top []predict.Attribution) []string {
	var tips []string
	for _, rl := range rules {
		if rl.match(r) {
			tips = append(tips, rl.tip)
		}
	}

	for _, a := range top {
		if a.Magnitude() == 0 {
			continue
		}
		for _, fr := range factorRules {
			if strings.Contains(a.Feature, fr.column) && !mentions(tips, fr.topic) {
				tips = append(tips, fr.tip)
			}
		}
	}

	if len(tips) == 0 {
		return []string{NoTips}
	}
	return tips
}

func mentions(tips []string, topic string) bool {
	for _, t := range tips {
		if strings.Contains(strings.ToLower(t), topic) {
			return true
		}
	}
	return false
}
