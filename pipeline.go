package quizimages

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// ReasonBriefFailed marks questions whose batch got no briefs
const ReasonBriefFailed = "brief generation failed"

// RunRecorder persists finished runs
type RunRecorder interface {
	SaveRun(ctx context.Context, r *Report) error
}

// Pipeline orchestrates policy gating, brief generation, collection, selection,
// escalation and write-back for one quiz at a time
type Pipeline struct {
	AI        *AICaller
	Collector *Collector
	Scorer    *Scorer
	Recorder  RunRecorder

	BatchSize      int
	MaxEscalations int
	BatchDelay     time.Duration
	LogDir         string // transcript directory; empty disables the transcript
}

// NewPipeline creates a pipeline with default limits
func NewPipeline(ai *AICaller, collector *Collector) *Pipeline {
	return &Pipeline{
		AI:             ai,
		Collector:      collector,
		Scorer:         NewScorer(),
		BatchSize:      DefaultBatchSize,
		MaxEscalations: MaxEscalationsPerQuiz,
	}
}

// runState is everything scoped to one Run call
type runState struct {
	id        string
	req       RunRequest
	used      *UsedImageSet
	escalator *Escalator
	escState  *EscalationState
}

// Run processes every eligible question of the quiz. It only returns an error for
// problems outside individual questions (no quiz, failed write-back); question
// failures are reported in the result list.
func (p *Pipeline) Run(ctx context.Context, req RunRequest) (*Report, error) {
	if req.Quiz == nil {
		return nil, errors.New("no quiz document")
	}
	started := time.Now()
	runID := uuid.NewString()

	logger, err := p.openTranscript(runID, req)
	if err != nil {
		log.Printf("Failed to create transcript for run %s: %v", runID, err)
	}
	defer logger.Close()
	prevLogger := p.AI.Logger
	p.AI.Logger = logger
	defer func() { p.AI.Logger = prevLogger }()

	st := &runState{
		id:       runID,
		req:      req,
		escState: NewEscalationState(p.MaxEscalations),
	}
	st.escalator = NewEscalator(p.AI, st.escState)
	if req.ReplaceAll {
		st.used = NewUsedImageSet()
	} else {
		st.used = NewUsedImageSet(existingImages(req.Quiz)...)
	}

	log.Printf("Run %s: %d questions, subject %s", runID, len(req.Quiz.Questions), req.Subject)

	// results follow document order; queued maps a queued id to its slot
	results := make([]SelectionResult, len(req.Quiz.Questions))
	queued := make(map[string]int)
	queue := NewQuestionQueue()
	for i, q := range req.Quiz.Questions {
		policy := ImagePolicyFor(q, req.Subject)
		switch {
		case !req.ReplaceAll && q.HasImage():
			results[i] = skipped(q, policy, "already has an image")
		case policy == PolicyNone:
			results[i] = skipped(q, policy, "image policy none")
		case req.Limit > 0 && queue.Size() >= req.Limit:
			results[i] = skipped(q, policy, "limit reached")
		case !queue.Add(q, policy):
			log.Printf("Question %s appears more than once, skipping the repeat", q.ID)
			results[i] = skipped(q, policy, "duplicate question id")
		default:
			queued[q.ID] = i
		}
	}

	briefs := NewBriefGenerator(p.AI)
	batchSize := Config{BatchSize: p.BatchSize}.EffectiveBatchSize()
	for batchNum := 1; !queue.IsEmpty(); batchNum++ {
		if batchNum > 1 {
			if err := sleepCtx(ctx, p.BatchDelay); err != nil {
				return nil, err
			}
		}
		batch := queue.NextBatch(batchSize)
		log.Printf("Batch %d: %d questions", batchNum, len(batch))

		batchBriefs, err := briefs.GenerateBriefs(ctx, batch, req.Subject, req.Chapter)
		if err != nil {
			log.Printf("Batch %d failed: %v", batchNum, err)
			for _, q := range batch {
				results[queued[q.ID]] = SelectionResult{
					QuestionID: q.ID,
					Policy:     queue.Policy(q.ID),
					Reason:     ReasonBriefFailed,
				}
			}
			continue
		}

		for _, q := range batch {
			r := p.processQuestion(ctx, st, q, queue.Policy(q.ID), batchBriefs[q.ID])
			logger.LogSelection(r)
			results[queued[q.ID]] = r
		}
	}

	report := &Report{
		RunID:      runID,
		Version:    Version,
		CreatedAt:  started.UTC(),
		QuizPath:   req.Quiz.Path,
		QuizTitle:  req.Quiz.Title(),
		Subject:    req.Subject,
		Chapter:    req.Chapter,
		ReplaceAll: req.ReplaceAll,
	}
	if p.AI.Generator != nil {
		report.Provider = p.AI.Generator.Name()
	}
	report.Results = results
	report.Summary = summarize(report.Results, st.escState.Count())

	if req.ApplyChanges && report.Summary.Succeeded > 0 {
		if err := req.Quiz.Save(); err != nil {
			return report, fmt.Errorf("failed to write quiz: %w", err)
		}
		report.Applied = true
		log.Printf("Wrote %d images to %s", report.Summary.Succeeded, req.Quiz.Path)
	}

	if p.Recorder != nil {
		if err := p.Recorder.SaveRun(ctx, report); err != nil {
			log.Printf("Failed to record run %s: %v", runID, err)
		}
	}

	s := report.Summary
	log.Printf("Run %s complete in %s: %d processed, %d succeeded, %d failed, %d skipped, %d optional missed, %d escalations",
		runID, time.Since(started).Round(time.Millisecond), s.Processed, s.Succeeded, s.Failed, s.Skipped, s.OptionalMissed, s.Escalations)
	return report, nil
}

// processQuestion runs selection, escalates once on failure, and records the image
func (p *Pipeline) processQuestion(ctx context.Context, st *runState, q Question, policy ImagePolicy, b SearchBrief) SelectionResult {
	r := p.findImage(ctx, b, st.req.Subject, st.used)
	if !r.Success && policy == PolicyRequired {
		partial, err := st.escalator.Escalate(ctx, q, st.req.Subject, st.req.Chapter, b)
		switch {
		case errors.Is(err, ErrEscalationBudget):
			r.Reason += "; escalation budget exhausted"
		case err != nil:
			log.Printf("Escalation failed for %s: %v", q.ID, err)
			r.Reason += "; escalation failed"
		default:
			log.Printf("Escalating %s (%d left)", q.ID, st.escState.Remaining())
			attempted := r.QueriesAttempted
			r = p.findImage(ctx, MergeEscalation(b, *partial), st.req.Subject, st.used)
			r.QueriesAttempted = append(attempted, r.QueriesAttempted...)
		}
	}
	r.QuestionID = q.ID
	r.Policy = policy

	if !r.Success {
		log.Printf("No image for %s: %s", q.ID, r.Reason)
		return r
	}
	st.used.Add(r.Image.ImageURL)
	log.Printf("Selected for %s: %s (score %d, threshold %d)", q.ID, r.Image.Title, r.Score, r.Threshold)
	if st.req.ApplyChanges {
		if err := q.SetImage(NewMediaItem(r, st.id)); err != nil {
			log.Printf("Failed to set image on %s: %v", q.ID, err)
		}
	}
	return r
}

// findImage interleaves collection and selection: the encyclopedia fallback and the
// broad retry run only while nothing clears the threshold
func (p *Pipeline) findImage(ctx context.Context, b SearchBrief, subject string, used *UsedImageSet) SelectionResult {
	r := SelectionResult{
		QuestionID:  b.QuestionID,
		Intent:      b.ImageIntent,
		RiskProfile: b.RiskProfile,
		Threshold:   MinScore(subject, b.ImageIntent),
		Repaired:    b.Repaired,
		Escalated:   b.Escalated,
	}

	coll := p.Collector.Collect(ctx, b)
	accepted, best := p.selectFrom(coll, b, subject, used)

	if accepted == nil && p.Collector.WikipediaFallback(ctx, b, coll) > 0 {
		accepted, best = p.selectFrom(coll, b, subject, used)
	}
	if accepted == nil && p.Collector.BroadRetry(ctx, b, coll) > 0 {
		accepted, best = p.selectFrom(coll, b, subject, used)
	}

	r.QueriesAttempted = coll.Queries
	switch {
	case accepted != nil:
		r.Success = true
		r.Image = accepted
		r.Score = *accepted.Score
	case best != nil:
		r.Score = *best.Score
		r.Reason = fmt.Sprintf("best score %d below threshold %d (%d candidates)", r.Score, r.Threshold, len(coll.Candidates))
	default:
		r.Reason = "no candidates found"
	}
	return r
}

func (p *Pipeline) selectFrom(coll *Collection, b SearchBrief, subject string, used *UsedImageSet) (*Candidate, *Candidate) {
	accepted, best := Select(coll.Candidates, b, subject, p.Scorer, used)
	if best != nil && Verbose() {
		VerboseLog("Best for %s: %s score %d %v", b.QuestionID, best.Title, *best.Score, p.Scorer.Breakdown(*best, b))
	}
	return accepted, best
}

func (p *Pipeline) openTranscript(runID string, req RunRequest) (*LLMLogger, error) {
	if p.LogDir == "" {
		return nil, nil
	}
	return NewLLMLogger(p.LogDir, runID, req)
}

func skipped(q Question, policy ImagePolicy, reason string) SelectionResult {
	return SelectionResult{
		QuestionID: q.ID,
		Policy:     policy,
		Skipped:    true,
		Reason:     reason,
	}
}

func existingImages(doc *QuizDocument) []string {
	var srcs []string
	for _, q := range doc.Questions {
		srcs = append(srcs, q.ExistingImages...)
	}
	return srcs
}

func summarize(results []SelectionResult, escalations int) RunSummary {
	s := RunSummary{Total: len(results), Escalations: escalations}
	for _, r := range results {
		switch {
		case r.Skipped:
			s.Skipped++
			continue
		case r.Success:
			s.Succeeded++
		case r.Policy == PolicyOptional && r.Reason != ReasonBriefFailed:
			s.OptionalMissed++
		default:
			s.Failed++
		}
		s.Processed++
		if r.Repaired {
			s.Repaired++
		}
	}
	return s
}
