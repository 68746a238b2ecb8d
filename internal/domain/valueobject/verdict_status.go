package valueobject

import "fmt"

// VerdictStatus is the user-facing label of a verdict.
type VerdictStatus struct {
	value string
}

var (
	StatusSafe    = VerdictStatus{value: "SAFE"}
	StatusFraud   = VerdictStatus{value: "FRAUD"}
	StatusAnomaly = VerdictStatus{value: "ANOMALY"}
)

// VerdictStatusFromString reconstructs a status from its string representation.
func VerdictStatusFromString(s string) (VerdictStatus, error) {
	switch s {
	case "SAFE":
		return StatusSafe, nil
	case "FRAUD":
		return StatusFraud, nil
	case "ANOMALY":
		return StatusAnomaly, nil
	default:
		return VerdictStatus{}, fmt.Errorf("invalid verdict status: %s", s)
	}
}

// StatusFromFlags labels a verdict. Anomalies take precedence over plain
// classifier detections so that the red flag stays visible.
func StatusFromFlags(isFraud, redFlag bool) VerdictStatus {
	switch {
	case !isFraud:
		return StatusSafe
	case redFlag:
		return StatusAnomaly
	default:
		return StatusFraud
	}
}

// String returns the string representation.
func (s VerdictStatus) String() string {
	return s.value
}

// IsZero returns true if the status has not been set.
func (s VerdictStatus) IsZero() bool {
	return s.value == ""
}

// Equal checks equality with another VerdictStatus.
func (s VerdictStatus) Equal(other VerdictStatus) bool {
	return s.value == other.value
}

// IsSafe returns true if the status is SAFE.
func (s VerdictStatus) IsSafe() bool {
	return s.value == "SAFE"
}
