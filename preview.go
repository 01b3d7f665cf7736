package quizimages

import (
	"context"
	"log"
)

// BriefPreview shows what a run would search for one question, without searching
type BriefPreview struct {
	QuestionID string       `json:"question_id"`
	Type       string       `json:"type,omitempty"`
	Text       string       `json:"text"`
	Policy     ImagePolicy  `json:"policy"`
	Brief      *SearchBrief `json:"brief,omitempty"`
	Threshold  int          `json:"threshold,omitempty"`
	Error      string       `json:"error,omitempty"`
}

// PreviewBriefs applies the image policy gate and generates briefs in batches.
// Questions with policy none never reach the AI.
func PreviewBriefs(ctx context.Context, ai *AICaller, doc *QuizDocument, subject, chapter string, batchSize int) []BriefPreview {
	previews := make([]BriefPreview, len(doc.Questions))
	index := make(map[string]int, len(doc.Questions))
	queue := NewQuestionQueue()
	for i, q := range doc.Questions {
		policy := ImagePolicyFor(q, subject)
		previews[i] = BriefPreview{QuestionID: q.ID, Type: q.Type, Text: q.Text, Policy: policy}
		if policy == PolicyNone {
			continue
		}
		if !queue.Add(q, policy) {
			previews[i].Error = "duplicate question id"
			continue
		}
		index[q.ID] = i
	}

	bg := NewBriefGenerator(ai)
	size := Config{BatchSize: batchSize}.EffectiveBatchSize()
	for !queue.IsEmpty() {
		batch := queue.NextBatch(size)
		briefs, err := bg.GenerateBriefs(ctx, batch, subject, chapter)
		for _, q := range batch {
			p := &previews[index[q.ID]]
			if err != nil {
				p.Error = err.Error()
				continue
			}
			b := briefs[q.ID]
			p.Brief = &b
			p.Threshold = MinScore(subject, b.ImageIntent)
		}
		if err != nil {
			log.Printf("Brief batch failed: %v", err)
		}
	}
	return previews
}
