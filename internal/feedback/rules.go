// Package feedback produces advisory, rule-based text about a password's
// composition. It has no influence on the compromise verdict.
package feedback

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// SafeMessage is returned for passwords that were classified safe.
const SafeMessage = "Your password is strong and safe to use. No changes required!"

// Rule messages.
const (
	MsgTooShort   = "Your password is too short. Use at least %d characters."
	MsgNoUpper    = "Add at least one uppercase letter."
	MsgNoLower    = "Add at least one lowercase letter."
	MsgNoDigit    = "Include at least one number."
	MsgNoSpecial  = "Add at least one special character (e.g., !, @, #, $)."
	MsgCommon     = "Avoid using common patterns or dictionary words like 'password', '1234', or 'qwerty'."
	MsgRepetitive = "Avoid repetitive characters like 'aaa' or '111'."
)

// Rules configures the checks. The zero value is not useful; start from
// DefaultRules or LoadRules.
type Rules struct {
	MinLength int      `yaml:"min_length"`
	Specials  string   `yaml:"specials"`
	Patterns  []string `yaml:"patterns"`
	// MaxRepeat is the longest allowed run of one character.
	MaxRepeat int `yaml:"max_repeat"`

	pattern *regexp.Regexp
}

// DefaultRules returns the stock rule set.
func DefaultRules() *Rules {
	r := &Rules{
		MinLength: 8,
		Specials:  "!@#$%^&*()_+[]{}|;:,.<>?/`~",
		Patterns:  []string{"password", "1234", "abcd", "qwerty", "admin"},
		MaxRepeat: 2,
	}
	r.compile()
	return r
}

// LoadRules reads a YAML rule file. Fields left out keep their defaults.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading feedback rules: %w", err)
	}

	r := DefaultRules()
	if err := yaml.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("parsing feedback rules %s: %w", path, err)
	}
	if r.MinLength < 0 || r.MaxRepeat < 1 {
		return nil, fmt.Errorf("feedback rules %s: min_length must be >= 0 and max_repeat >= 1", path)
	}
	r.compile()
	return r, nil
}

func (r *Rules) compile() {
	if len(r.Patterns) == 0 {
		r.pattern = nil
		return
	}
	quoted := make([]string, len(r.Patterns))
	for i, p := range r.Patterns {
		quoted[i] = regexp.QuoteMeta(p)
	}
	r.pattern = regexp.MustCompile("(?i)(" + strings.Join(quoted, "|") + ")")
}

// Check returns the advice that applies to password, in a fixed order. A safe
// password yields only SafeMessage.
func (r *Rules) Check(password string, safe bool) []string {
	if safe {
		return []string{SafeMessage}
	}

	var out []string
	if len([]rune(password)) < r.MinLength {
		out = append(out, fmt.Sprintf(MsgTooShort, r.MinLength))
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, c := range password {
		switch {
		case unicode.IsUpper(c):
			hasUpper = true
		case unicode.IsLower(c):
			hasLower = true
		case unicode.IsDigit(c):
			hasDigit = true
		}
		if strings.ContainsRune(r.Specials, c) {
			hasSpecial = true
		}
	}
	if !hasUpper {
		out = append(out, MsgNoUpper)
	}
	if !hasLower {
		out = append(out, MsgNoLower)
	}
	if !hasDigit {
		out = append(out, MsgNoDigit)
	}
	if !hasSpecial {
		out = append(out, MsgNoSpecial)
	}

	if r.pattern != nil && r.pattern.MatchString(password) {
		out = append(out, MsgCommon)
	}
	if longestRun(password) > r.MaxRepeat {
		out = append(out, MsgRepetitive)
	}
	return out
}

// Text joins the advice for password into one sentence block.
func (r *Rules) Text(password string, safe bool) string {
	return strings.Join(r.Check(password, safe), " ")
}

// longestRun returns the length of the longest run of one repeated rune.
// RE2 has no backreferences, so this is done by hand.
func longestRun(s string) int {
	var best, run int
	var prev rune = -1
	for _, c := range s {
		if c == prev {
			run++
		} else {
			run = 1
			prev = c
		}
		best = max(best, run)
	}
	return best
}
