package valueobject

import "fmt"

// ConfidenceBand is an immutable value object describing how far a combined
// score sits from the decision boundary.
type ConfidenceBand struct {
	value string
}

var (
	ConfidenceLow    = ConfidenceBand{value: "LOW"}
	ConfidenceMedium = ConfidenceBand{value: "MEDIUM"}
	ConfidenceHigh   = ConfidenceBand{value: "HIGH"}
)

// ConfidenceBandFromString reconstructs a ConfidenceBand from its string representation.
func ConfidenceBandFromString(s string) (ConfidenceBand, error) {
	switch s {
	case "LOW":
		return ConfidenceLow, nil
	case "MEDIUM":
		return ConfidenceMedium, nil
	case "HIGH":
		return ConfidenceHigh, nil
	default:
		return ConfidenceBand{}, fmt.Errorf("invalid confidence band: %s", s)
	}
}

// String returns the string representation.
func (c ConfidenceBand) String() string {
	return c.value
}

// Label returns the display label used in the external response contract.
func (c ConfidenceBand) Label() string {
	switch c.value {
	case "LOW":
		return "Low"
	case "MEDIUM":
		return "Medium"
	case "HIGH":
		return "High"
	default:
		return ""
	}
}

// IsZero returns true if the band has not been set.
func (c ConfidenceBand) IsZero() bool {
	return c.value == ""
}

// Equal checks equality with another ConfidenceBand.
func (c ConfidenceBand) Equal(other ConfidenceBand) bool {
	return c.value == other.value
}
