package quizimages

import "testing"

func fixedScorer(scores map[string]int) *Scorer {
	return &Scorer{Rules: []ScoreRule{{
		Name: "fixed",
		Apply: func(in ScoreInput) int {
			return scores[in.Candidate.ImageURL]
		},
	}}}
}

func pngCandidate(url string) Candidate {
	return Candidate{Title: "File:" + url + ".png", ImageURL: url, MIME: "image/png"}
}

func TestMinScore(t *testing.T) {
	tests := []struct {
		subject string
		intent  ImageIntent
		want    int
	}{
		{"biologie", IntentLabeledDiagram, 100},
		{"Biologie ", IntentLabeledDiagram, 100},
		{"biologie", IntentPhoto, IntentMinScores[IntentPhoto]},
		{"wiskunde", IntentLabeledDiagram, IntentMinScores[IntentLabeledDiagram]},
		{"wiskunde", ImageIntent("unknown"), DefaultMinScore},
	}
	for _, tt := range tests {
		if got := MinScore(tt.subject, tt.intent); got != tt.want {
			t.Errorf("MinScore(%q, %s) = %d, want %d", tt.subject, tt.intent, got, tt.want)
		}
	}
}

func TestSelectThresholdBoundary(t *testing.T) {
	b := SearchBrief{ImageIntent: IntentLabeledDiagram}

	accepted, best := Select([]Candidate{pngCandidate("a")}, b, "biologie", fixedScorer(map[string]int{"a": 100}), nil)
	if accepted == nil {
		t.Fatal("score equal to the threshold should be accepted")
	}
	if best == nil || *best.Score != 100 {
		t.Errorf("best = %+v", best)
	}

	accepted, best = Select([]Candidate{pngCandidate("a")}, b, "biologie", fixedScorer(map[string]int{"a": 99}), nil)
	if accepted != nil {
		t.Error("score below the threshold should be rejected")
	}
	if best == nil || *best.Score != 99 {
		t.Errorf("best should still report the rejected candidate, got %+v", best)
	}
}

func TestSelectPicksHighest(t *testing.T) {
	b := SearchBrief{ImageIntent: IntentPhoto}
	scorer := fixedScorer(map[string]int{"a": 60, "b": 90, "c": 75})
	cands := []Candidate{pngCandidate("a"), pngCandidate("b"), pngCandidate("c")}

	accepted, _ := Select(cands, b, "", scorer, nil)
	if accepted == nil || accepted.ImageURL != "b" {
		t.Fatalf("accepted = %+v, want b", accepted)
	}

	// raising a score never turns an accept into a reject
	scorer = fixedScorer(map[string]int{"a": 60, "b": 95, "c": 75})
	if accepted, _ := Select(cands, b, "", scorer, nil); accepted == nil || accepted.ImageURL != "b" {
		t.Errorf("after raising b, accepted = %+v", accepted)
	}
}

func TestSelectSkipsUsed(t *testing.T) {
	b := SearchBrief{ImageIntent: IntentPhoto}
	scorer := fixedScorer(map[string]int{"a": 90, "b": 70})
	used := NewUsedImageSet("a")

	accepted, _ := Select([]Candidate{pngCandidate("a"), pngCandidate("b")}, b, "", scorer, used)
	if accepted == nil || accepted.ImageURL != "b" {
		t.Errorf("accepted = %+v, want b", accepted)
	}
}

func TestSelectEmpty(t *testing.T) {
	accepted, best := Select(nil, SearchBrief{}, "", NewScorer(), nil)
	if accepted != nil || best != nil {
		t.Error("no candidates should select nothing")
	}
}

func TestRankCandidatesTieBreak(t *testing.T) {
	scorer := fixedScorer(map[string]int{"x": 50, "y": 50})
	ranked := RankCandidates([]Candidate{pngCandidate("y"), pngCandidate("x")}, SearchBrief{}, scorer, nil)
	if ranked[0].ImageURL != "x" {
		t.Errorf("ties should order by title, got %s first", ranked[0].ImageURL)
	}
}
