package oracle

import (
	"context"

	"github.com/nbutton23/zxcvbn-go"

	"github.com/agent-smit/passguard/internal/breach"
)

// ZxcvbnStrength labels passwords with the zxcvbn estimator. Scores 0-1 are
// Weak, 2 is Moderate and 3-4 are Strong.
type ZxcvbnStrength struct {
	// UserInputs are extra dictionary words (site name, product terms) that
	// zxcvbn should penalise.
	UserInputs []string
}

// NewZxcvbnStrength returns a strength classifier penalising userInputs.
func NewZxcvbnStrength(userInputs ...string) *ZxcvbnStrength {
	return &ZxcvbnStrength{UserInputs: userInputs}
}

func (z *ZxcvbnStrength) Classify(ctx context.Context, text string) (breach.Strength, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if text == "" {
		return breach.StrengthWeak, nil
	}
	return StrengthFromScore(zxcvbn.PasswordStrength(text, z.UserInputs).Score), nil
}

// StrengthFromScore maps a zxcvbn score to the three-level label.
func StrengthFromScore(score int) breach.Strength {
	switch {
	case score <= 1:
		return breach.StrengthWeak
	case score == 2:
		return breach.StrengthModerate
	default:
		return breach.StrengthStrong
	}
}
