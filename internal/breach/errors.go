package breach

import "errors"

// Errors returned by the breach engine. Callers match them with errors.Is;
// returned errors usually wrap one of these with additional context.
var (
	ErrInvalidDimension  = errors.New("invalid vector dimension")
	ErrEmptyCorpus       = errors.New("empty corpus")
	ErrNoCandidates      = errors.New("no candidates to refine")
	ErrInvalidCount      = errors.New("invalid count")
	ErrOracleUnavailable = errors.New("oracle unavailable")
	ErrGenerationTimeout = errors.New("suggestion generation exceeded its budget")
)
