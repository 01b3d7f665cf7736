package quizimages

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrEscalationBudget is returned once the run's escalation budget is spent
var ErrEscalationBudget = errors.New("escalation budget exhausted")

// Escalator asks the AI for alternative search terms for a single failed question
type Escalator struct {
	ai    *AICaller
	state *EscalationState
}

// NewEscalator creates an escalator drawing from the shared run budget
func NewEscalator(ai *AICaller, state *EscalationState) *Escalator {
	return &Escalator{ai: ai, state: state}
}

// Escalate spends one unit of budget, whether or not the call succeeds
func (e *Escalator) Escalate(ctx context.Context, q Question, subject, chapter string, failed SearchBrief) (*PartialBrief, error) {
	if !e.state.TryConsume() {
		return nil, ErrEscalationBudget
	}

	resp, err := e.ai.Call(ctx, "escalation", buildEscalationPrompt(q, subject, chapter, failed))
	if err != nil {
		return nil, fmt.Errorf("escalation call failed: %w", err)
	}

	var p PartialBrief
	if err := ExtractJSONInto(resp, &p); err != nil {
		return nil, fmt.Errorf("failed to parse escalation: %w", err)
	}
	p.CommonsQueries = dedupeStrings(p.CommonsQueries, maxQueries)
	p.CategoryHints = dedupeStrings(trimCategoryPrefix(p.CategoryHints), maxKeywords)
	p.TopicKeywords = dedupeStrings(p.TopicKeywords, maxKeywords)
	p.WikipediaFallback = strings.TrimSpace(p.WikipediaFallback)
	if len(p.CommonsQueries) == 0 {
		return nil, errors.New("escalation returned no queries")
	}
	return &p, nil
}

func buildEscalationPrompt(q Question, subject, chapter string, failed SearchBrief) string {
	var sb strings.Builder

	sb.WriteString("An image search on Wikimedia Commons found no suitable image for this quiz question.\n")
	sb.WriteString(fmt.Sprintf("Subject: %s\n", subject))
	if chapter != "" {
		sb.WriteString(fmt.Sprintf("Chapter: %s\n", chapter))
	}
	sb.WriteString(fmt.Sprintf("Question: %s\n", q.Text))
	sb.WriteString(fmt.Sprintf("Wanted image: %s\n", failed.ImageIntent))
	sb.WriteString(fmt.Sprintf("Queries that failed: %s\n", strings.Join(failed.CommonsQueries, " | ")))
	if len(failed.CategoryHints) > 0 {
		sb.WriteString(fmt.Sprintf("Categories that failed: %s\n", strings.Join(failed.CategoryHints, " | ")))
	}

	sb.WriteString("\nSuggest different searches. Return one JSON object with:\n")
	sb.WriteString("- commonsQueries: 2 to 4 new English queries, broader or using other terminology\n")
	sb.WriteString("- categoryHints: up to 2 Commons category names\n")
	sb.WriteString("- topicKeywords: words that prove an image is about this topic\n")
	sb.WriteString("- wikipediaFallback: optional Wikipedia article title with a fitting lead image\n")
	sb.WriteString("Return JSON only.\n")

	return sb.String()
}

// MergeEscalation overrides the escalated fields on the original brief
func MergeEscalation(orig SearchBrief, p PartialBrief) SearchBrief {
	b := orig
	b.CommonsQueries = p.CommonsQueries
	b.CategoryHints = p.CategoryHints
	b.TopicKeywords = p.TopicKeywords
	if p.WikipediaFallback != "" {
		b.WikipediaFallback = p.WikipediaFallback
	}
	b.Escalated = true
	return b
}
