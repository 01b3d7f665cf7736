package quizimages

import "sort"

// MinScore returns the acceptance threshold for an intent within a subject:
// subject override, then the intent default, then DefaultMinScore
func MinScore(subject string, intent ImageIntent) int {
	if overrides, ok := SubjectMinScores[normalizeSubject(subject)]; ok {
		if v, ok := overrides[intent]; ok {
			return v
		}
	}
	if v, ok := IntentMinScores[intent]; ok {
		return v
	}
	return DefaultMinScore
}

// RankCandidates scores every candidate and returns copies sorted best first.
// Ties fall back to title then URL so the order is stable across runs.
func RankCandidates(cands []Candidate, b SearchBrief, scorer *Scorer, used *UsedImageSet) []Candidate {
	ranked := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		score := scorer.Score(c, b, used)
		c.Score = &score
		ranked = append(ranked, c)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := *ranked[i].Score, *ranked[j].Score
		if si != sj {
			return si > sj
		}
		if ranked[i].Title != ranked[j].Title {
			return ranked[i].Title < ranked[j].Title
		}
		return ranked[i].ImageURL < ranked[j].ImageURL
	})
	return ranked
}

// Select returns the top-ranked candidate if it clears the subject/intent threshold.
// The second return value is the best candidate seen even when it was rejected.
func Select(cands []Candidate, b SearchBrief, subject string, scorer *Scorer, used *UsedImageSet) (accepted *Candidate, best *Candidate) {
	ranked := RankCandidates(cands, b, scorer, used)
	if len(ranked) == 0 {
		return nil, nil
	}
	top := ranked[0]
	if *top.Score >= MinScore(subject, b.ImageIntent) {
		return &top, &top
	}
	return nil, &top
}
