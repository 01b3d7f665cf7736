package quizimages

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrNoQuestions is returned for documents without a questions or question_bank list
var ErrNoQuestions = errors.New("quiz has no questions or question_bank list")

// ErrDuplicateID is returned when two questions carry the same explicit id
var ErrDuplicateID = errors.New("duplicate question id")

// Question is one quiz question as seen by the pipeline
type Question struct {
	ID             string
	Type           string
	Text           string
	ExistingImages []string

	raw map[string]any
}

// HasImage reports whether the question already carries image media
func (q Question) HasImage() bool {
	return len(q.ExistingImages) > 0
}

// QuizDocument is a quiz JSON file kept as a generic map so unknown fields survive write-back
type QuizDocument struct {
	Path      string
	Questions []Question

	root map[string]any
}

// LoadQuiz reads and parses a quiz file
func LoadQuiz(filename string) (*QuizDocument, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read quiz: %w", err)
	}
	doc, err := ParseQuiz(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse quiz %s: %w", filename, err)
	}
	doc.Path = filename
	return doc, nil
}

// ParseQuiz parses quiz JSON
func ParseQuiz(data []byte) (*QuizDocument, error) {
	var root map[string]any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, err
	}

	list, ok := root["questions"].([]any)
	if !ok {
		list, ok = root["question_bank"].([]any)
	}
	if !ok {
		return nil, ErrNoQuestions
	}

	taken := make(map[string]bool, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id := stringField(m, "id")
		if id == "" {
			continue
		}
		if taken[id] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}
		taken[id] = true
	}

	doc := &QuizDocument{root: root}
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		q := Question{
			ID:             stringField(m, "id"),
			Type:           stringField(m, "type"),
			Text:           questionText(m),
			ExistingImages: imageSources(m["media"]),
			raw:            m,
		}
		if q.ID == "" {
			q.ID = syntheticID(i+1, taken)
			taken[q.ID] = true
		}
		doc.Questions = append(doc.Questions, q)
	}
	return doc, nil
}

// syntheticID returns q<pos>, or q<pos>-2, q<pos>-3... when that id is taken
func syntheticID(pos int, taken map[string]bool) string {
	base := fmt.Sprintf("q%d", pos)
	id := base
	for n := 2; taken[id]; n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	return id
}

// questionText resolves q, instruction, prompt.text, prompt.html in that order
func questionText(m map[string]any) string {
	for _, key := range []string{"q", "instruction"} {
		if s := stringField(m, key); s != "" {
			return strings.TrimSpace(s)
		}
	}
	switch p := m["prompt"].(type) {
	case string:
		return strings.TrimSpace(p)
	case map[string]any:
		if s := stringField(p, "text"); s != "" {
			return strings.TrimSpace(s)
		}
		if s := stringField(p, "html"); s != "" {
			return htmlToText(s)
		}
	}
	return ""
}

func imageSources(media any) []string {
	var srcs []string
	add := func(v any) {
		m, ok := v.(map[string]any)
		if !ok {
			return
		}
		if t := stringField(m, "type"); t != "" && t != "image" {
			return
		}
		if src := stringField(m, "src"); src != "" {
			srcs = append(srcs, src)
		}
	}
	switch v := media.(type) {
	case []any:
		for _, item := range v {
			add(item)
		}
	case map[string]any:
		add(v)
	}
	return srcs
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%v", v)
	}
	return ""
}

// MediaProvenance records how an image was chosen
type MediaProvenance struct {
	Source         CandidateSource `json:"source"`
	Title          string          `json:"title"`
	DescriptionURL string          `json:"description_url,omitempty"`
	Score          int             `json:"score"`
	Intent         ImageIntent     `json:"intent"`
	RiskProfile    RiskProfile     `json:"risk_profile"`
	Repaired       bool            `json:"repaired,omitempty"`
	Escalated      bool            `json:"escalated,omitempty"`
	RunID          string          `json:"run_id"`
}

// MediaItem is the object written into a question's media list
type MediaItem struct {
	Type       string          `json:"type"`
	Src        string          `json:"src"`
	Alt        string          `json:"alt"`
	Caption    string          `json:"caption,omitempty"`
	Provenance MediaProvenance `json:"provenance"`
}

// NewMediaItem builds the media entry for a successful selection
func NewMediaItem(r SelectionResult, runID string) MediaItem {
	c := r.Image
	return MediaItem{
		Type:    "image",
		Src:     c.ImageURL,
		Alt:     altText(c.Title),
		Caption: caption(c),
		Provenance: MediaProvenance{
			Source:         c.Source,
			Title:          c.Title,
			DescriptionURL: c.DescriptionURL,
			Score:          r.Score,
			Intent:         r.Intent,
			RiskProfile:    r.RiskProfile,
			Repaired:       r.Repaired,
			Escalated:      r.Escalated,
			RunID:          runID,
		},
	}
}

// SetImage replaces the question's media with a single image item
func (q Question) SetImage(item MediaItem) error {
	if q.raw == nil {
		return fmt.Errorf("question %s is not attached to a document", q.ID)
	}
	// Round-trip through JSON so the stored value is a plain map like the rest of the document.
	b, err := json.Marshal(item)
	if err != nil {
		return err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	q.raw["media"] = []any{m}
	return nil
}

// Save writes the document back to its path atomically
func (d *QuizDocument) Save() error {
	if d.Path == "" {
		return errors.New("quiz document has no path")
	}
	b, err := json.MarshalIndent(d.root, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal quiz: %w", err)
	}
	tmp := d.Path + ".tmp"
	if err := os.WriteFile(tmp, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write quiz: %w", err)
	}
	return os.Rename(tmp, d.Path)
}

// Question returns the question with the given id
func (d *QuizDocument) Question(id string) (Question, bool) {
	for _, q := range d.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Title returns the quiz title if present, else the file name
func (d *QuizDocument) Title() string {
	for _, key := range []string{"title", "name", "chapter"} {
		if s := stringField(d.root, key); s != "" {
			return s
		}
	}
	return strings.TrimSuffix(filepath.Base(d.Path), filepath.Ext(d.Path))
}

func altText(title string) string {
	t := strings.TrimPrefix(title, "File:")
	t = strings.TrimSuffix(t, path.Ext(t))
	t = strings.NewReplacer("_", " ").Replace(t)
	return strings.TrimSpace(t)
}

func caption(c *Candidate) string {
	d := strings.Join(strings.Fields(htmlToText(c.Description)), " ")
	if d == "" {
		return altText(c.Title)
	}
	if r := []rune(d); len(r) > 160 {
		d = strings.TrimSpace(string(r[:157])) + "..."
	}
	return d
}
