package valueobject

import "fmt"

// Prediction is an immutable value object representing the discrete verdict of an assessment.
type Prediction struct {
	value string
}

var (
	PredictionReal = Prediction{value: "REAL"}
	PredictionFake = Prediction{value: "FAKE"}
)

// PredictionFromString reconstructs a Prediction from its string representation.
func PredictionFromString(s string) (Prediction, error) {
	switch s {
	case "REAL":
		return PredictionReal, nil
	case "FAKE":
		return PredictionFake, nil
	default:
		return Prediction{}, fmt.Errorf("invalid prediction: %s", s)
	}
}

// PredictionFromScore maps a combined score to a verdict. A score equal to the
// threshold is FAKE.
func PredictionFromScore(score, threshold float64) Prediction {
	if score >= threshold {
		return PredictionFake
	}
	return PredictionReal
}

// String returns the string representation.
func (p Prediction) String() string {
	return p.value
}

// Label returns the display label used in the external response contract.
func (p Prediction) Label() string {
	switch p.value {
	case "FAKE":
		return "Fake Account"
	case "REAL":
		return "Real Account"
	default:
		return ""
	}
}

// IsZero returns true if the prediction has not been set.
func (p Prediction) IsZero() bool {
	return p.value == ""
}

// Equal checks equality with another Prediction.
func (p Prediction) Equal(other Prediction) bool {
	return p.value == other.value
}

// IsFake returns true if the prediction is FAKE.
func (p Prediction) IsFake() bool {
	return p.value == "FAKE"
}
