package breach

// Refined is the closest shortlisted candidate by normalized edit distance.
type Refined struct {
	Password string
	// Position is the candidate's position in the slice passed to Refine.
	Position int
	Distance float64
}

// Refine returns the candidate with the lowest normalized edit distance to
// password. The first candidate sets the running minimum and later ones only
// replace it on strict improvement, so earlier candidates win ties.
func Refine(password string, candidates []string) (Refined, error) {
	if len(candidates) == 0 {
		return Refined{}, ErrNoCandidates
	}

	pl := runeLen(password)
	best := Refined{
		Password: candidates[0],
		Position: 0,
		Distance: normalizedDistance(password, candidates[0], pl, runeLen(candidates[0])),
	}
	for i := 1; i < len(candidates); i++ {
		if best.Distance == 0 {
			break
		}
		cl := runeLen(candidates[i])
		if distanceLowerBound(pl, cl) >= best.Distance {
			continue
		}
		if d := normalizedDistance(password, candidates[i], pl, cl); d < best.Distance {
			best = Refined{Password: candidates[i], Position: i, Distance: d}
		}
	}
	return best, nil
}
