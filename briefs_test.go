package quizimages

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func biologyBatch() []Question {
	return []Question{
		{ID: "q1", Type: "multiple_choice", Text: "Welk bot beschermt de hersenen?"},
		{ID: "q2", Type: "multiple_choice", Text: "Wat is de functie van het kraakbeen?"},
		{ID: "q3", Type: "open", Text: "Wat is het antwoord op de vraag over het scheletsysteem?"},
	}
}

func TestGenerateBriefsCoversBatch(t *testing.T) {
	gen := &fakeGenerator{respond: func(string) (string, error) {
		return "Here are the briefs:\n```json\n" + `[
			{"questionId": "q1", "imageIntent": "labeled_diagram", "commonsQueries": ["human skull labeled", "skull diagram"],
			 "categoryHints": ["Category:Human skull"], "topicKeywords": ["skull"], "riskProfile": "human_vs_animal"},
			{"questionId": "q2", "imageIntent": "sculpture", "commonsQueries": ["cartilage histology"], "riskProfile": "??"},
			{"questionId": "q99", "imageIntent": "photo", "commonsQueries": ["stray"]},
			{"questionId": "q1", "imageIntent": "photo", "commonsQueries": ["duplicate"]}
		]` + "\n```", nil
	}}
	bg := NewBriefGenerator(newTestAI(gen))

	briefs, err := bg.GenerateBriefs(context.Background(), biologyBatch(), "biologie", "Stevigheid en beweging")
	if err != nil {
		t.Fatalf("GenerateBriefs: %v", err)
	}
	if len(briefs) != 3 {
		t.Fatalf("got %d briefs, want exactly one per question", len(briefs))
	}
	if _, ok := briefs["q99"]; ok {
		t.Error("brief for a question outside the batch should be dropped")
	}
	if gen.calls() != 1 {
		t.Errorf("AI calls = %d, want 1 per batch", gen.calls())
	}

	q1 := briefs["q1"]
	if q1.Repaired || q1.ImageIntent != IntentLabeledDiagram {
		t.Errorf("q1 = %+v", q1)
	}
	if !reflect.DeepEqual(q1.CommonsQueries, []string{"human skull labeled", "skull diagram"}) {
		t.Errorf("first brief for q1 should win, got %v", q1.CommonsQueries)
	}
	if !reflect.DeepEqual(q1.CategoryHints, []string{"Human skull"}) {
		t.Errorf("category prefix should be trimmed, got %v", q1.CategoryHints)
	}

	q2 := briefs["q2"]
	if q2.ImageIntent != IntentLabeledDiagram || q2.RiskProfile != RiskHumanVsAnimal {
		t.Errorf("unknown enums should fall back to the subject profile, got %s/%s", q2.ImageIntent, q2.RiskProfile)
	}

	if !briefs["q3"].Repaired {
		t.Error("omitted question should get a repair brief")
	}
}

func TestGenerateBriefsUnparseable(t *testing.T) {
	gen := &fakeGenerator{respond: func(string) (string, error) {
		return "Sorry, I cannot help with that.", nil
	}}
	bg := NewBriefGenerator(newTestAI(gen))

	briefs, err := bg.GenerateBriefs(context.Background(), biologyBatch(), "biologie", "")
	if err != nil {
		t.Fatalf("unparseable response should be repaired, not failed: %v", err)
	}
	for id, b := range briefs {
		if !b.Repaired {
			t.Errorf("%s should be repaired", id)
		}
		if len(b.CommonsQueries) == 0 {
			t.Errorf("%s repair brief has no queries", id)
		}
	}
}

func TestGenerateBriefsWrappedAndNumericIDs(t *testing.T) {
	gen := &fakeGenerator{respond: func(string) (string, error) {
		return `{"briefs": [{"id": 7, "imageIntent": "map", "commonsQueries": ["Roman empire map"], "riskProfile": "none"}]}`, nil
	}}
	bg := NewBriefGenerator(newTestAI(gen))

	briefs, err := bg.GenerateBriefs(context.Background(), []Question{{ID: "7", Text: "Hoe groot was het Romeinse rijk?"}}, "geschiedenis", "")
	if err != nil {
		t.Fatal(err)
	}
	if b := briefs["7"]; b.Repaired || b.ImageIntent != IntentMap {
		t.Errorf("brief = %+v", b)
	}
}

func TestGenerateBriefsEmptyQueriesRepaired(t *testing.T) {
	gen := &fakeGenerator{respond: func(string) (string, error) {
		return `[{"questionId": "q1", "imageIntent": "photo", "commonsQueries": ["", "  "]}]`, nil
	}}
	bg := NewBriefGenerator(newTestAI(gen))

	briefs, err := bg.GenerateBriefs(context.Background(), biologyBatch()[:1], "biologie", "")
	if err != nil {
		t.Fatal(err)
	}
	if !briefs["q1"].Repaired {
		t.Error("a brief without queries should be replaced by a repair brief")
	}
}

func TestGenerateBriefsCallFailure(t *testing.T) {
	gen := &fakeGenerator{respond: func(string) (string, error) {
		return "", errors.New("invalid api key")
	}}
	bg := NewBriefGenerator(newTestAI(gen))

	if _, err := bg.GenerateBriefs(context.Background(), biologyBatch(), "biologie", ""); err == nil {
		t.Fatal("a failed AI call should be returned as an error")
	}
}

func TestGenerateBriefsEmptyBatch(t *testing.T) {
	gen := &fakeGenerator{}
	briefs, err := NewBriefGenerator(newTestAI(gen)).GenerateBriefs(context.Background(), nil, "biologie", "")
	if err != nil || len(briefs) != 0 {
		t.Errorf("empty batch = %v, %v", briefs, err)
	}
	if gen.calls() != 0 {
		t.Error("empty batch should not call the AI")
	}
}

func TestRepairBriefSkeleton(t *testing.T) {
	q := Question{ID: "q3", Text: "Wat is het antwoord op de vraag over het scheletsysteem?"}
	b := RepairBrief(q, "biologie")

	if b.ImageIntent != IntentLabeledDiagram {
		t.Errorf("intent = %s, want labeled_diagram", b.ImageIntent)
	}
	want := []string{"scheletsysteem diagram", "scheletsysteem"}
	if !reflect.DeepEqual(b.CommonsQueries, want) {
		t.Errorf("queries = %v, want %v", b.CommonsQueries, want)
	}
	if !b.Repaired || b.RiskProfile != RiskHumanVsAnimal {
		t.Errorf("brief = %+v", b)
	}
}

func TestRepairBriefAbstractBiology(t *testing.T) {
	b := RepairBrief(Question{ID: "q", Text: "Beschrijf de kringloop van koolstof in een ecosysteem"}, "biologie")
	if b.ImageIntent != IntentConceptDiagram {
		t.Errorf("intent = %s, want concept_diagram", b.ImageIntent)
	}
}

func TestRepairBriefDeterministic(t *testing.T) {
	q := Question{ID: "q", Text: "Welke rivier stroomt door Rome?"}
	if a, b := RepairBrief(q, "geschiedenis"), RepairBrief(q, "geschiedenis"); !reflect.DeepEqual(a, b) {
		t.Errorf("repair is not deterministic: %+v vs %+v", a, b)
	}
}

func TestRepairBriefNoWords(t *testing.T) {
	b := RepairBrief(Question{ID: "q", Text: "Wat is dit?"}, "aardrijkskunde")
	if !reflect.DeepEqual(b.CommonsQueries, []string{"aardrijkskunde"}) {
		t.Errorf("queries = %v, want the subject", b.CommonsQueries)
	}
}
