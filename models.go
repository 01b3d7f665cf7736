package quizimages

import "fmt"

// ImageIntent classifies what kind of image suits a question
type ImageIntent string

const (
	IntentLabeledDiagram         ImageIntent = "labeled_diagram"
	IntentDiagram                ImageIntent = "diagram"
	IntentConceptDiagram         ImageIntent = "concept_diagram"
	IntentPhoto                  ImageIntent = "photo"
	IntentHistoricalIllustration ImageIntent = "historical_illustration"
	IntentMap                    ImageIntent = "map"
	IntentMicrograph             ImageIntent = "micrograph"
)

// AllIntents lists every ImageIntent in declaration order
var AllIntents = []ImageIntent{
	IntentLabeledDiagram,
	IntentDiagram,
	IntentConceptDiagram,
	IntentPhoto,
	IntentHistoricalIllustration,
	IntentMap,
	IntentMicrograph,
}

// ParseImageIntent validates an intent string
func ParseImageIntent(s string) (ImageIntent, error) {
	for _, in := range AllIntents {
		if string(in) == s {
			return in, nil
		}
	}
	return "", fmt.Errorf("unknown image intent %q", s)
}

// IsDiagram reports whether the intent belongs to the diagram family
func (i ImageIntent) IsDiagram() bool {
	return i == IntentLabeledDiagram || i == IntentDiagram || i == IntentConceptDiagram
}

// RiskProfile names a set of penalty rules guarding against a known mismatch
type RiskProfile string

const (
	RiskHumanVsAnimal         RiskProfile = "human_vs_animal"
	RiskHistoricalVsModern    RiskProfile = "historical_vs_modern"
	RiskThematicVsTourist     RiskProfile = "thematic_vs_tourist"
	RiskMythologyVsPopculture RiskProfile = "mythology_vs_popculture"
	RiskDiagramVsPhoto        RiskProfile = "diagram_vs_photo"
	RiskNone                  RiskProfile = "none"
)

// AllRiskProfiles lists every RiskProfile in declaration order
var AllRiskProfiles = []RiskProfile{
	RiskHumanVsAnimal,
	RiskHistoricalVsModern,
	RiskThematicVsTourist,
	RiskMythologyVsPopculture,
	RiskDiagramVsPhoto,
	RiskNone,
}

// ParseRiskProfile validates a risk profile string
func ParseRiskProfile(s string) (RiskProfile, error) {
	for _, rp := range AllRiskProfiles {
		if string(rp) == s {
			return rp, nil
		}
	}
	return "", fmt.Errorf("unknown risk profile %q", s)
}

// ImagePolicy says whether a question should get an image at all
type ImagePolicy string

const (
	PolicyRequired ImagePolicy = "required"
	PolicyOptional ImagePolicy = "optional"
	PolicyNone     ImagePolicy = "none"
)

// SearchBrief is the search plan for one question
type SearchBrief struct {
	QuestionID        string      `json:"questionId"`
	ImageIntent       ImageIntent `json:"imageIntent"`
	CommonsQueries    []string    `json:"commonsQueries"`
	MustHaveKeywords  []string    `json:"mustHaveKeywords,omitempty"`
	AvoidKeywords     []string    `json:"avoidKeywords,omitempty"`
	CategoryHints     []string    `json:"categoryHints,omitempty"`
	TopicKeywords     []string    `json:"topicKeywords,omitempty"`
	RiskProfile       RiskProfile `json:"riskProfile"`
	WikipediaFallback string      `json:"wikipediaFallback,omitempty"`
	Repaired          bool        `json:"repaired,omitempty"`
	Escalated         bool        `json:"escalated,omitempty"`
}

// PartialBrief holds the fields an escalation call may replace
type PartialBrief struct {
	CommonsQueries    []string `json:"commonsQueries"`
	CategoryHints     []string `json:"categoryHints"`
	TopicKeywords     []string `json:"topicKeywords"`
	WikipediaFallback string   `json:"wikipediaFallback,omitempty"`
}

// CandidateSource tags where a candidate was found
type CandidateSource string

const (
	SourceCommons   CandidateSource = "commons"
	SourceWikipedia CandidateSource = "wikipedia"
)

// Candidate is one discovered image
type Candidate struct {
	Title          string          `json:"title"`
	ImageURL       string          `json:"image_url"`
	DescriptionURL string          `json:"description_url,omitempty"`
	Width          int             `json:"width"`
	Height         int             `json:"height"`
	MIME           string          `json:"mime"`
	Description    string          `json:"description,omitempty"`
	Categories     []string        `json:"categories,omitempty"`
	Score          *int            `json:"score,omitempty"`
	Source         CandidateSource `json:"source,omitempty"`
	Query          string          `json:"query,omitempty"` // search text that surfaced the candidate
}

// SelectionResult is the terminal outcome for one question
type SelectionResult struct {
	QuestionID       string      `json:"question_id"`
	Policy           ImagePolicy `json:"policy"`
	Success          bool        `json:"success"`
	Skipped          bool        `json:"skipped,omitempty"`
	Image            *Candidate  `json:"image,omitempty"`
	Intent           ImageIntent `json:"intent,omitempty"`
	RiskProfile      RiskProfile `json:"risk_profile,omitempty"`
	Score            int         `json:"score"`
	Threshold        int         `json:"threshold,omitempty"`
	Repaired         bool        `json:"repaired,omitempty"`
	Escalated        bool        `json:"escalated,omitempty"`
	Reason           string      `json:"reason,omitempty"`
	QueriesAttempted []string    `json:"queries_attempted,omitempty"`
}

// RunRequest describes one pipeline run over a quiz document
type RunRequest struct {
	Quiz         *QuizDocument
	Subject      string
	Chapter      string
	ReplaceAll   bool
	ApplyChanges bool
	Limit        int // 0 means no limit
}

// RunSummary holds aggregate counts for a run
type RunSummary struct {
	Total          int `json:"total"`
	Processed      int `json:"processed"`
	Succeeded      int `json:"succeeded"`
	Failed         int `json:"failed"`
	Skipped        int `json:"skipped"`
	OptionalMissed int `json:"optional_missed"`
	Repaired       int `json:"repaired"`
	Escalations    int `json:"escalations"`
}
