package valueobject

import "strings"

// DetectorFlag identifies which detector raised a verdict.
type DetectorFlag uint8

const (
	// FlagClassifier is raised when the fraud probability exceeds the threshold.
	FlagClassifier DetectorFlag = 1 << iota
	// FlagAnomaly is raised when the anomaly score is negative.
	FlagAnomaly
)

// NoneLabel is rendered when no detector fired.
const NoneLabel = "None"

// DetectorLabels names the two detectors for human-readable attribution.
type DetectorLabels struct {
	Classifier string
	Anomaly    string
}

// DefaultDetectorLabels returns the labels of the bundled models.
func DefaultDetectorLabels() DetectorLabels {
	return DetectorLabels{
		Classifier: "Random Forest",
		Anomaly:    "Isolation Forest",
	}
}

// FlagSet is an immutable set of detector flags.
type FlagSet struct {
	bits DetectorFlag
}

// NewFlagSet builds a set from the individual detector outcomes.
func NewFlagSet(classifier, anomaly bool) FlagSet {
	var bits DetectorFlag
	if classifier {
		bits |= FlagClassifier
	}
	if anomaly {
		bits |= FlagAnomaly
	}
	return FlagSet{bits: bits}
}

// Has reports whether the flag is part of the set.
func (s FlagSet) Has(flag DetectorFlag) bool {
	return s.bits&flag != 0
}

// IsEmpty reports whether no detector fired.
func (s FlagSet) IsEmpty() bool {
	return s.bits == 0
}

// Flags returns the members in attribution order, classifier first.
func (s FlagSet) Flags() []DetectorFlag {
	flags := make([]DetectorFlag, 0, 2)
	for _, f := range []DetectorFlag{FlagClassifier, FlagAnomaly} {
		if s.Has(f) {
			flags = append(flags, f)
		}
	}
	return flags
}

// Render joins the labels of the members with ", " or returns NoneLabel.
func (s FlagSet) Render(labels DetectorLabels) string {
	if s.IsEmpty() {
		return NoneLabel
	}
	names := make([]string, 0, 2)
	for _, f := range s.Flags() {
		switch f {
		case FlagClassifier:
			names = append(names, labels.Classifier)
		case FlagAnomaly:
			names = append(names, labels.Anomaly)
		}
	}
	return strings.Join(names, ", ")
}

// String renders the set with the default labels.
func (s FlagSet) String() string {
	return s.Render(DefaultDetectorLabels())
}
