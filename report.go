package quizimages

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gingfrederik/docx"
)

// Version is written into every report
const Version = "quizimages/1.3"

// Report is the persisted outcome of one run
type Report struct {
	RunID      string            `json:"run_id"`
	Version    string            `json:"version"`
	CreatedAt  time.Time         `json:"created_at"`
	QuizPath   string            `json:"quiz_path"`
	QuizTitle  string            `json:"quiz_title,omitempty"`
	Subject    string            `json:"subject"`
	Chapter    string            `json:"chapter,omitempty"`
	Provider   string            `json:"provider,omitempty"`
	ReplaceAll bool              `json:"replace_all"`
	Applied    bool              `json:"applied"`
	Summary    RunSummary        `json:"summary"`
	Results    []SelectionResult `json:"results"`
}

// ReportPath returns <quiz basename>.images-report.json next to the quiz
func ReportPath(quizPath string) string {
	base := strings.TrimSuffix(quizPath, filepath.Ext(quizPath))
	return base + ".images-report.json"
}

// WriteReport writes the report as indented JSON
func WriteReport(path string, r *Report) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// ReadReport loads a report written by WriteReport
func ReadReport(path string) (*Report, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Report
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("failed to parse report %s: %w", path, err)
	}
	return &r, nil
}

// WriteReviewDocx exports the run as a Word document for reviewers
func WriteReviewDocx(path string, r *Report) error {
	f := docx.NewFile()

	run := f.AddParagraph().AddText(fmt.Sprintf("Image review: %s", r.QuizTitle))
	run.Size(20)

	run = f.AddParagraph().AddText(fmt.Sprintf("Run %s | %s | %s", r.RunID, r.Subject, r.CreatedAt.Format("2006-01-02 15:04")))
	run.Size(10)
	run.Color("808080")

	s := r.Summary
	f.AddParagraph().AddText(fmt.Sprintf("Processed %d of %d: %d selected, %d failed, %d optional missed, %d skipped, %d repaired briefs, %d escalations",
		s.Processed, s.Total, s.Succeeded, s.Failed, s.OptionalMissed, s.Skipped, s.Repaired, s.Escalations))
	f.AddParagraph()

	for _, res := range r.Results {
		if res.Skipped {
			continue
		}
		run = f.AddParagraph().AddText(fmt.Sprintf("Question %s (%s, %s)", res.QuestionID, res.Intent, res.Policy))
		run.Size(14)

		if res.Success {
			run = f.AddParagraph().AddText(res.Image.Title)
			run.Color("008000")
			run = f.AddParagraph().AddText(res.Image.DescriptionURL)
			run.Size(10)
			run.Color("0000FF")
			f.AddParagraph().AddText(fmt.Sprintf("Score %d (threshold %d)%s", res.Score, res.Threshold, flagSuffix(res)))
		} else {
			run = f.AddParagraph().AddText("No image: " + res.Reason)
			run.Color("C00000")
			if len(res.QueriesAttempted) > 0 {
				run = f.AddParagraph().AddText("Tried: " + strings.Join(res.QueriesAttempted, " | "))
				run.Size(9)
			}
		}
		f.AddParagraph().AddText("--------------------------------------------------")
	}

	return f.Save(path)
}

func flagSuffix(r SelectionResult) string {
	var flags []string
	if r.Repaired {
		flags = append(flags, "repaired brief")
	}
	if r.Escalated {
		flags = append(flags, "escalated")
	}
	if r.Image != nil && r.Image.Source == SourceWikipedia {
		flags = append(flags, "wikipedia")
	}
	if len(flags) == 0 {
		return ""
	}
	return " [" + strings.Join(flags, ", ") + "]"
}
