package features

// OneHot expands a record the way get_dummies does for a single row: numeric
// fields keep their column name, each categorical field becomes a
// "<field>_<value>" indicator set to 1.
func OneHot(r Record) map[string]float64 {
	out := map[string]float64{
		ColAge:                  float64(r.Age),
		ColRestingBloodPressure: float64(r.RestingBloodPressure),
		ColCholesterol:          float64(r.Cholesterol),
		ColMaxHeartRate:         float64(r.MaxHeartRate),
		ColOldpeak:              r.Oldpeak,
	}
	for _, c := range []struct{ name, value string }{
		{ColSex, r.Sex},
		{ColChestPainType, r.ChestPainType},
		{ColFastingBloodSugar, r.FastingBloodSugar},
		{ColRestECG, r.RestECG},
		{ColExerciseInducedAngina, r.ExerciseInducedAngina},
		{ColSlope, r.Slope},
	} {
		out[c.name+"_"+c.value] = 1
	}
	return out
}

// Schema is the ordered list of encoded columns fixed at training time.
type Schema []string

// Reindex aligns an encoded mapping to the schema. Columns missing from the
// mapping are 0; mapping entries absent from the schema are dropped.
func (s Schema) Reindex(encoded map[string]float64) []float64 {
	vec := make([]float64, len(s))
	for i, col := range s {
		vec[i] = encoded[col]
	}
	return vec
}

// Encode one-hot encodes r and reindexes it against the schema.
func (s Schema) Encode(r Record) []float64 {
	return s.Reindex(OneHot(r))
}

// Index returns the position of col in the schema, or -1.
func (s Schema) Index(col string) int {
	for i, c := range s {
		if c == col {
			return i
		}
	}
	return -1
}
