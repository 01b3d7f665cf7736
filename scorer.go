package quizimages

import (
	"path"
	"strings"
)

// ScoreInput is the precomputed view of one (candidate, brief) pair handed to every rule
type ScoreInput struct {
	Candidate  Candidate
	Brief      SearchBrief
	Text       string // folded title, description and categories
	Categories []string
}

// ScoreRule is one named, independently testable scoring signal
type ScoreRule struct {
	Name  string
	Apply func(in ScoreInput) int
}

// Scorer maps (candidate, brief, used images) to an integer score
type Scorer struct {
	Rules []ScoreRule
}

// NewScorer creates a scorer with the default rule set
func NewScorer() *Scorer {
	return &Scorer{Rules: DefaultScoreRules()}
}

// DefaultScoreRules returns the rules in evaluation order
func DefaultScoreRules() []ScoreRule {
	return []ScoreRule{
		{Name: "category_topic", Apply: scoreCategoryTopic},
		{Name: "intent_signal", Apply: scoreIntentSignal},
		{Name: "risk_profile", Apply: scoreRiskProfile},
		{Name: "stock_photo", Apply: scoreStockPhoto},
		{Name: "pop_culture", Apply: scorePopCulture},
		{Name: "educational_quality", Apply: scoreEducational},
		{Name: "must_have", Apply: scoreMustHave},
		{Name: "query_terms", Apply: scoreQueryTerms},
		{Name: "avoid", Apply: scoreAvoid},
		{Name: "resolution", Apply: scoreResolution},
		{Name: "provenance", Apply: scoreProvenance},
	}
}

// Score returns DisqualifiedScore for reused or non-image candidates, otherwise the
// sum of all rules. It performs no I/O and has no hidden state.
func (s *Scorer) Score(c Candidate, b SearchBrief, used *UsedImageSet) int {
	if Disqualified(c, used) {
		return DisqualifiedScore
	}
	in := NewScoreInput(c, b)
	total := 0
	for _, r := range s.Rules {
		total += r.Apply(in)
	}
	return total
}

// Breakdown returns the per-rule contributions, for verbose logging
func (s *Scorer) Breakdown(c Candidate, b SearchBrief) map[string]int {
	in := NewScoreInput(c, b)
	out := make(map[string]int, len(s.Rules))
	for _, r := range s.Rules {
		if v := r.Apply(in); v != 0 {
			out[r.Name] = v
		}
	}
	return out
}

// Disqualified reports the hard rejections: reused URL or MIME outside the allow-list
func Disqualified(c Candidate, used *UsedImageSet) bool {
	if used != nil && used.Contains(c.ImageURL) {
		return true
	}
	mime := strings.ToLower(strings.TrimSpace(c.MIME))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	return !AcceptedMIMETypes[mime]
}

// NewScoreInput folds the candidate's text once for all rules
func NewScoreInput(c Candidate, b SearchBrief) ScoreInput {
	cats := make([]string, 0, len(c.Categories))
	for _, cat := range c.Categories {
		cats = append(cats, foldText(strings.TrimPrefix(cat, "Category:")))
	}
	parts := []string{c.Title, c.Description}
	parts = append(parts, cats...)
	return ScoreInput{
		Candidate:  c,
		Brief:      b,
		Text:       foldText(strings.Join(parts, " ")),
		Categories: cats,
	}
}

// scoreCategoryTopic rewards category overlap, in full only when the topic also matches,
// so a prestigious but unrelated category cannot win on its own
func scoreCategoryTopic(in ScoreInput) int {
	if !categoryOverlap(in.Categories, in.Brief.CategoryHints) {
		return 0
	}
	if containsAny(in.Text, in.Brief.TopicKeywords) {
		return ScoreCategoryTopicMatch
	}
	return ScoreCategoryOnlyMatch
}

func categoryOverlap(cats, hints []string) bool {
	for _, h := range hints {
		h = foldText(strings.TrimSpace(strings.TrimPrefix(h, "Category:")))
		if h == "" {
			continue
		}
		for _, c := range cats {
			if c == "" {
				continue
			}
			if strings.Contains(c, h) || strings.Contains(h, c) {
				return true
			}
		}
	}
	return false
}

func scoreIntentSignal(in ScoreInput) int {
	c := in.Candidate
	switch intent := in.Brief.ImageIntent; {
	case intent.IsDiagram():
		if isVector(c) || containsAny(in.Text, diagramSignals) {
			return ScoreDiagramSignal
		}
		return ScoreDiagramMissing
	case intent == IntentMap:
		score := ScoreMapMissing
		if containsAny(in.Text, []string{"map", "kaart"}) {
			score = ScoreMapSignal
		}
		switch {
		case isVector(c) || max(c.Width, c.Height) >= MinMapLegibleSide:
			score += ScoreMapLegible
		case c.Width > 0 && c.Height > 0:
			score += ScoreMapIllegible
		}
		return score
	case intent == IntentHistoricalIllustration:
		if containsAny(in.Text, periodVocabulary) {
			return ScorePeriodVocabulary
		}
	case intent == IntentMicrograph:
		if containsAny(in.Text, micrographSignals) {
			return ScoreMicrographSignal
		}
	case intent == IntentPhoto:
		if !isVector(c) && containsAny(in.Text, photoSignals) {
			return ScorePhotoSignal
		}
	}
	return 0
}

func scoreRiskProfile(in ScoreInput) int {
	rule, ok := RiskRules[in.Brief.RiskProfile]
	if !ok {
		return 0
	}
	score := 0
	if containsAny(in.Text, rule.Blacklist) {
		score += ScoreRiskBlacklist
	}
	if containsAny(in.Text, rule.Compensation) {
		score += ScoreRiskCompensation
	}
	return score
}

func scoreStockPhoto(in ScoreInput) int {
	if containsAny(in.Text, stockPhotoVocabulary) {
		return ScoreStockPhoto
	}
	return 0
}

func scorePopCulture(in ScoreInput) int {
	if containsAny(in.Text, popCultureVocabulary) {
		return ScorePopCulture
	}
	return 0
}

func scoreEducational(in ScoreInput) int {
	if containsAny(in.Text, educationalVocabulary) {
		return ScoreEducational
	}
	return 0
}

func scoreMustHave(in ScoreInput) int {
	return countHits(in.Text, in.Brief.MustHaveKeywords) * ScoreMustHaveHit
}

// scoreQueryTerms gives partial credit per content word of the query that found the
// candidate; category-stage candidates fall back to the first query tier
func scoreQueryTerms(in ScoreInput) int {
	q := in.Candidate.Query
	if q == "" && len(in.Brief.CommonsQueries) > 0 {
		q = in.Brief.CommonsQueries[0]
	}
	words := contentWords(stripQuerySyntax(q))
	return countHits(in.Text, words) * ScoreQueryTermHit
}

func scoreAvoid(in ScoreInput) int {
	return countHits(in.Text, in.Brief.AvoidKeywords) * ScoreAvoidHit
}

func scoreResolution(in ScoreInput) int {
	c := in.Candidate
	if isVector(c) {
		return ScoreHighResolution
	}
	if c.Width == 0 || c.Height == 0 {
		return 0
	}
	if c.Width < MinLegiblePixels || c.Height < MinLegiblePixels {
		return ScoreLowResolution
	}
	if c.Width >= MinGoodPixels && c.Height >= MinGoodPixels {
		return ScoreHighResolution
	}
	return 0
}

func scoreProvenance(in ScoreInput) int {
	if in.Candidate.Source == SourceWikipedia {
		return ScoreWikipediaProvenance
	}
	return 0
}

// isVector trusts the MIME type of the served file; the title extension is only
// consulted when the MIME type is unknown
func isVector(c Candidate) bool {
	if c.MIME != "" {
		return strings.EqualFold(c.MIME, "image/svg+xml")
	}
	return strings.EqualFold(path.Ext(c.Title), ".svg")
}
