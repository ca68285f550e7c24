package breach

// Status is the compromise verdict for a password.
type Status string

const (
	StatusCompromised Status = "Password Compromised"
	StatusSafe        Status = "Password Safe"
)

// DefaultCompromiseThreshold is the normalized distance below which a
// password counts as compromised.
const DefaultCompromiseThreshold = 0.7

// Classifier turns the refined distance into a verdict.
type Classifier struct {
	Threshold float64
}

// NewClassifier returns a classifier using threshold, or the default when
// threshold is not in (0,1].
func NewClassifier(threshold float64) Classifier {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultCompromiseThreshold
	}
	return Classifier{Threshold: threshold}
}

// Classify reports Compromised iff distance < Threshold. A distance equal to
// the threshold is Safe.
func (c Classifier) Classify(distance float64) Status {
	if distance < c.Threshold {
		return StatusCompromised
	}
	return StatusSafe
}

// SimilarityPercentage converts a normalized distance into the display score
// (1-distance)*100. It plays no part in the verdict.
func SimilarityPercentage(distance float64) float64 {
	return (1 - distance) * 100
}
