package quizimages

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
)

const (
	maxQueries  = 6
	maxKeywords = 8
)

// BriefGenerator turns batches of questions into search briefs with one AI call per batch
type BriefGenerator struct {
	ai *AICaller
}

// NewBriefGenerator creates a brief generator on top of an AI caller
func NewBriefGenerator(ai *AICaller) *BriefGenerator {
	return &BriefGenerator{ai: ai}
}

// GenerateBriefs returns exactly one brief per question in the batch. Questions the AI
// omitted, or all of them when the answer holds no usable JSON, get a repair brief.
// An error means the AI call itself failed and no briefs were produced.
func (bg *BriefGenerator) GenerateBriefs(ctx context.Context, questions []Question, subject, chapter string) (map[string]SearchBrief, error) {
	if len(questions) == 0 {
		return map[string]SearchBrief{}, nil
	}
	log.Printf("Generating briefs for %d questions (%s)", len(questions), subject)

	prompt := bg.buildPrompt(questions, subject, chapter)
	resp, err := bg.ai.Call(ctx, "briefs", prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate briefs: %w", err)
	}

	raw, err := parseBriefResponse(resp)
	if err != nil {
		log.Printf("Brief response unusable, repairing all %d questions: %v", len(questions), err)
		raw = nil
	}
	return normalizeBriefs(raw, questions, subject), nil
}

func (bg *BriefGenerator) buildPrompt(questions []Question, subject, chapter string) string {
	var sb strings.Builder
	profile := ProfileFor(subject)

	sb.WriteString(fmt.Sprintf("Plan Wikimedia Commons image searches for %d quiz questions.\n", len(questions)))
	sb.WriteString(fmt.Sprintf("Subject: %s\n", subject))
	if chapter != "" {
		sb.WriteString(fmt.Sprintf("Chapter: %s\n", chapter))
	}
	sb.WriteString(fmt.Sprintf("Default image intent for this subject: %s\n\n", profile.DefaultIntent))

	sb.WriteString("Questions:\n")
	for _, q := range questions {
		sb.WriteString(fmt.Sprintf("- questionId: %s", q.ID))
		if q.Type != "" {
			sb.WriteString(fmt.Sprintf(" (type: %s)", q.Type))
		}
		sb.WriteString(fmt.Sprintf("\n  text: %s\n", q.Text))
	}

	sb.WriteString("\nReturn a JSON array with one object per question and these fields:\n")
	sb.WriteString("- questionId: copied exactly from the list above\n")
	sb.WriteString(fmt.Sprintf("- imageIntent: one of %s\n", joinEnum(AllIntents)))
	sb.WriteString("- commonsQueries: 2 to 4 English search queries, most specific first; CirrusSearch syntax such as incategory: or -word is allowed\n")
	sb.WriteString("- mustHaveKeywords: words a good image title or description must contain\n")
	sb.WriteString("- avoidKeywords: words that indicate a wrong image\n")
	sb.WriteString("- categoryHints: up to 2 Commons category names without the Category: prefix\n")
	sb.WriteString("- topicKeywords: words that prove the image is about this topic\n")
	sb.WriteString(fmt.Sprintf("- riskProfile: one of %s\n", joinEnum(AllRiskProfiles)))
	sb.WriteString("- wikipediaFallback: optional title of a Wikipedia article whose lead image would fit\n")
	sb.WriteString("\nRequirements:\n")
	sb.WriteString("- Do not give away the answer in the image choice\n")
	sb.WriteString("- Prefer labeled diagrams and maps over photos when the question asks about structure or location\n")
	sb.WriteString("- Return JSON only\n")

	return sb.String()
}

func joinEnum[T ~string](vals []T) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}

// flexID accepts an id as either a JSON string or number
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	*f = flexID(b)
	return nil
}

// rawBrief is the AI's view of a brief before normalization
type rawBrief struct {
	QuestionID        flexID   `json:"questionId"`
	QuestionIDSnake   flexID   `json:"question_id"`
	ID                flexID   `json:"id"`
	ImageIntent       string   `json:"imageIntent"`
	CommonsQueries    []string `json:"commonsQueries"`
	MustHaveKeywords  []string `json:"mustHaveKeywords"`
	AvoidKeywords     []string `json:"avoidKeywords"`
	CategoryHints     []string `json:"categoryHints"`
	TopicKeywords     []string `json:"topicKeywords"`
	RiskProfile       string   `json:"riskProfile"`
	WikipediaFallback string   `json:"wikipediaFallback"`
}

func (r rawBrief) id() string {
	for _, id := range []flexID{r.QuestionID, r.QuestionIDSnake, r.ID} {
		if s := strings.TrimSpace(string(id)); s != "" {
			return s
		}
	}
	return ""
}

// parseBriefResponse accepts a bare array or an object wrapping one under "briefs"
func parseBriefResponse(resp string) ([]rawBrief, error) {
	data, err := ExtractJSON(resp)
	if err != nil {
		return nil, err
	}
	var list []rawBrief
	if data[0] == '[' {
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("failed to parse briefs: %w", err)
		}
		return list, nil
	}

	var wrapped struct {
		Briefs    []rawBrief `json:"briefs"`
		Questions []rawBrief `json:"questions"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to parse briefs: %w", err)
	}
	list = append(wrapped.Briefs, wrapped.Questions...)
	if len(list) == 0 {
		// a single brief object
		var one rawBrief
		if err := json.Unmarshal(data, &one); err == nil && one.id() != "" {
			list = []rawBrief{one}
		}
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("no briefs in response")
	}
	return list, nil
}

// normalizeBriefs maps AI briefs onto the batch, repairing whatever is missing
func normalizeBriefs(raw []rawBrief, questions []Question, subject string) map[string]SearchBrief {
	inBatch := make(map[string]Question, len(questions))
	for _, q := range questions {
		inBatch[q.ID] = q
	}

	briefs := make(map[string]SearchBrief, len(questions))
	for _, r := range raw {
		id := r.id()
		if _, ok := inBatch[id]; !ok {
			VerboseLog("Ignoring brief for unknown question %q", id)
			continue
		}
		if _, dup := briefs[id]; dup {
			continue
		}
		b, ok := normalizeBrief(r, id, subject)
		if !ok {
			continue
		}
		briefs[id] = b
	}

	for _, q := range questions {
		if _, ok := briefs[q.ID]; ok {
			continue
		}
		log.Printf("No brief for question %s, using repair brief", q.ID)
		briefs[q.ID] = RepairBrief(q, subject)
	}
	return briefs
}

// normalizeBrief validates enums and trims lists; a brief without queries is rejected
func normalizeBrief(r rawBrief, id, subject string) (SearchBrief, bool) {
	profile := ProfileFor(subject)

	intent, err := ParseImageIntent(strings.TrimSpace(r.ImageIntent))
	if err != nil {
		intent = profile.DefaultIntent
	}
	risk, err := ParseRiskProfile(strings.TrimSpace(r.RiskProfile))
	if err != nil {
		risk = profile.DefaultRisk
	}

	b := SearchBrief{
		QuestionID:        id,
		ImageIntent:       intent,
		CommonsQueries:    dedupeStrings(r.CommonsQueries, maxQueries),
		MustHaveKeywords:  dedupeStrings(r.MustHaveKeywords, maxKeywords),
		AvoidKeywords:     dedupeStrings(r.AvoidKeywords, maxKeywords),
		CategoryHints:     dedupeStrings(trimCategoryPrefix(r.CategoryHints), maxKeywords),
		TopicKeywords:     dedupeStrings(r.TopicKeywords, maxKeywords),
		RiskProfile:       risk,
		WikipediaFallback: strings.TrimSpace(r.WikipediaFallback),
	}
	return b, len(b.CommonsQueries) > 0
}

func trimCategoryPrefix(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimPrefix(strings.TrimSpace(s), "Category:")
	}
	return out
}

// RepairBrief builds a brief locally from the question text. It is deterministic and
// never calls the AI.
func RepairBrief(q Question, subject string) SearchBrief {
	profile := ProfileFor(subject)
	words := contentWords(q.Text)

	intent := profile.DefaultIntent
	if normalizeSubject(subject) == "biologie" && intent == IntentLabeledDiagram &&
		containsStem(foldText(q.Text), abstractBiologyVocabulary) {
		intent = IntentConceptDiagram
	}

	var queries []string
	if len(words) > 0 {
		strict := strings.Join(firstN(words, 3), " ")
		if profile.QuerySuffix != "" {
			strict += " " + profile.QuerySuffix
		}
		queries = []string{
			strict,
			strings.Join(firstN(words, 2), " "),
			words[0],
		}
	} else if s := strings.TrimSpace(subject); s != "" {
		queries = []string{s}
	}

	return SearchBrief{
		QuestionID:     q.ID,
		ImageIntent:    intent,
		CommonsQueries: dedupeStrings(queries, maxQueries),
		TopicKeywords:  firstN(words, maxKeywords),
		RiskProfile:    profile.DefaultRisk,
		Repaired:       true,
	}
}
