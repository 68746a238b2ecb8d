package model

// RequiredColumns lists the feature columns in canonical order.
var RequiredColumns = []string{"amount", "time", "v1", "v2", "v3"}

// FeatureCount is the dimensionality of a FeatureVector.
const FeatureCount = 5

// FeatureVector is the fixed five-dimensional input of both score providers.
// It is a value type; copies never share state.
type FeatureVector struct {
	Amount float64
	Time   float64
	V1     float64
	V2     float64
	V3     float64
}

// NewFeatureVector builds a vector from its fields in canonical order.
func NewFeatureVector(amount, time, v1, v2, v3 float64) FeatureVector {
	return FeatureVector{Amount: amount, Time: time, V1: v1, V2: v2, V3: v3}
}

// FeatureVectorFromValues builds a vector from values in canonical order.
func FeatureVectorFromValues(values [FeatureCount]float64) FeatureVector {
	return NewFeatureVector(values[0], values[1], values[2], values[3], values[4])
}

// Values returns the fields in canonical order.
func (v FeatureVector) Values() [FeatureCount]float64 {
	return [FeatureCount]float64{v.Amount, v.Time, v.V1, v.V2, v.V3}
}

// IndexedVector is a FeatureVector tagged with its 1-based row number.
type IndexedVector struct {
	Vector   FeatureVector
	RowIndex int
}
