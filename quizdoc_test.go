package quizimages

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParseQuizShapes(t *testing.T) {
	doc, err := ParseQuiz([]byte(`{
		"name": "Hoofdstuk 2",
		"question_bank": [
			{"id": 12, "type": "multiple_choice", "q": " Welk bot? "},
			{"type": "open", "instruction": "Beschrijf het hart"},
			{"prompt": "Wat is een cel?"},
			{"prompt": {"text": "Wat is DNA?"}},
			{"prompt": {"html": "<p>Wat is een <em>gen</em>?</p>"}},
			"not an object"
		]
	}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Questions) != 5 {
		t.Fatalf("questions = %d, want 5", len(doc.Questions))
	}
	wantText := []string{"Welk bot?", "Beschrijf het hart", "Wat is een cel?", "Wat is DNA?", "Wat is een gen ?"}
	for i, q := range doc.Questions {
		if q.Text != wantText[i] {
			t.Errorf("question %d text = %q, want %q", i, q.Text, wantText[i])
		}
	}
	if doc.Questions[0].ID != "12" || doc.Questions[1].ID != "q2" {
		t.Errorf("ids = %s, %s", doc.Questions[0].ID, doc.Questions[1].ID)
	}
	if doc.Title() != "Hoofdstuk 2" {
		t.Errorf("title = %q", doc.Title())
	}
}

func TestParseQuizErrors(t *testing.T) {
	if _, err := ParseQuiz([]byte(`{"items": []}`)); !errors.Is(err, ErrNoQuestions) {
		t.Errorf("err = %v, want ErrNoQuestions", err)
	}
	if _, err := ParseQuiz([]byte(`not json`)); err == nil {
		t.Error("invalid JSON should fail")
	}
}

func TestParseQuizIDs(t *testing.T) {
	doc, err := ParseQuiz([]byte(`{"questions": [
		{"q": "een"},
		{"id": "q1", "q": "twee"},
		{"id": "q3", "q": "drie"},
		{"q": "vier"},
		{"id": "q4-2", "q": "vijf"},
		{"q": "zes"}
	]}`))
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, q := range doc.Questions {
		ids = append(ids, q.ID)
	}
	want := []string{"q1-2", "q1", "q3", "q4", "q4-2", "q6"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}

	_, err = ParseQuiz([]byte(`{"questions": [{"id": "a"}, {"id": "b"}, {"id": "a"}]}`))
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("err = %v, want ErrDuplicateID", err)
	}
}

func TestExistingImages(t *testing.T) {
	doc, err := ParseQuiz([]byte(`{"questions": [
		{"id": "a", "media": [{"type": "image", "src": "x.png"}, {"type": "audio", "src": "y.mp3"}]},
		{"id": "b", "media": {"src": "z.png"}},
		{"id": "c"}
	]}`))
	if err != nil {
		t.Fatal(err)
	}
	if got := doc.Questions[0].ExistingImages; !reflect.DeepEqual(got, []string{"x.png"}) {
		t.Errorf("a images = %v", got)
	}
	if !doc.Questions[1].HasImage() || doc.Questions[2].HasImage() {
		t.Error("HasImage mismatch")
	}
}

func TestSetImageAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "h1.json")
	src := `{"title": "H1", "extra": {"keep": true}, "questions": [{"id": "q1", "q": "Welk bot?", "answers": ["a", "b"]}]}`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := LoadQuiz(path)
	if err != nil {
		t.Fatal(err)
	}

	res := SelectionResult{
		QuestionID:  "q1",
		Success:     true,
		Score:       110,
		Intent:      IntentLabeledDiagram,
		RiskProfile: RiskHumanVsAnimal,
		Image: &Candidate{
			Title:          "File:Human_skull_side.svg",
			ImageURL:       "https://upload.example/skull.svg",
			DescriptionURL: "https://commons.example/File:Human_skull_side.svg",
			Description:    "Human skull, lateral view",
			Source:         SourceCommons,
		},
	}
	q, _ := doc.Question("q1")
	if err := q.SetImage(NewMediaItem(res, "run-7")); err != nil {
		t.Fatal(err)
	}
	if err := doc.Save(); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var out struct {
		Extra     map[string]bool `json:"extra"`
		Questions []struct {
			Answers []string    `json:"answers"`
			Media   []MediaItem `json:"media"`
		} `json:"questions"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatal(err)
	}
	if !out.Extra["keep"] || len(out.Questions[0].Answers) != 2 {
		t.Error("unknown fields were not preserved")
	}
	if len(out.Questions[0].Media) != 1 {
		t.Fatalf("media = %+v", out.Questions[0].Media)
	}
	m := out.Questions[0].Media[0]
	if m.Type != "image" || m.Src != "https://upload.example/skull.svg" || m.Alt != "Human skull side" {
		t.Errorf("media = %+v", m)
	}
	if m.Caption != "Human skull, lateral view" || m.Provenance.RunID != "run-7" || m.Provenance.Score != 110 {
		t.Errorf("media = %+v", m)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestSetImageDetached(t *testing.T) {
	if err := (Question{ID: "x"}).SetImage(MediaItem{}); err == nil {
		t.Error("detached question should fail")
	}
}

func TestCaptionTruncates(t *testing.T) {
	long := make([]rune, 300)
	for i := range long {
		long[i] = 'a'
	}
	c := caption(&Candidate{Title: "File:x.png", Description: string(long)})
	if n := len([]rune(c)); n != 160 {
		t.Errorf("caption length = %d, want 160", n)
	}
	if got := caption(&Candidate{Title: "File:Human_heart.jpg"}); got != "Human heart" {
		t.Errorf("caption fallback = %q", got)
	}
}

func TestTitleFallsBackToFilename(t *testing.T) {
	doc, _ := ParseQuiz([]byte(`{"questions": []}`))
	doc.Path = "/tmp/hoofdstuk4.json"
	if doc.Title() != "hoofdstuk4" {
		t.Errorf("title = %q", doc.Title())
	}
}
