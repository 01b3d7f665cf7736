package quizimages

import (
	"context"
	"errors"
	"testing"
)

func TestPreviewBriefs(t *testing.T) {
	doc, err := ParseQuiz([]byte(`{"questions": [
		{"id": "q1", "type": "multiple_choice", "q": "Welk bot beschermt de hersenen?"},
		{"id": "q2", "type": "matching", "q": "Koppel de botten"},
		{"id": "q3", "type": "open", "q": "Beschrijf het scheletsysteem"}
	]}`))
	if err != nil {
		t.Fatal(err)
	}
	gen := &fakeGenerator{respond: func(string) (string, error) {
		return `[{"questionId": "q1", "imageIntent": "labeled_diagram", "commonsQueries": ["human skull"], "riskProfile": "human_vs_animal"}]`, nil
	}}

	previews := PreviewBriefs(context.Background(), newTestAI(gen), doc, "biologie", "", 8)
	if len(previews) != 3 {
		t.Fatalf("previews = %d", len(previews))
	}
	if p := previews[0]; p.Brief == nil || p.Brief.Repaired || p.Threshold != 100 {
		t.Errorf("q1 preview = %+v", p)
	}
	if p := previews[1]; p.Policy != PolicyNone || p.Brief != nil {
		t.Errorf("q2 preview = %+v", p)
	}
	if p := previews[2]; p.Policy != PolicyOptional || p.Brief == nil || !p.Brief.Repaired {
		t.Errorf("q3 preview = %+v", p)
	}
	if gen.callsWith("Koppel de botten") != 0 {
		t.Error("policy none question reached the AI")
	}
}

func TestPreviewBriefsError(t *testing.T) {
	doc, _ := ParseQuiz([]byte(`{"questions": [{"id": "q1", "q": "Welk bot?"}]}`))
	gen := &fakeGenerator{respond: func(string) (string, error) { return "", errors.New("quota") }}

	previews := PreviewBriefs(context.Background(), newTestAI(gen), doc, "biologie", "", 8)
	if previews[0].Error == "" || previews[0].Brief != nil {
		t.Errorf("preview = %+v", previews[0])
	}
}
