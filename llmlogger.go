package quizimages

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LLMLogger writes a transcript of every AI request and response in one run.
// A nil *LLMLogger discards everything.
type LLMLogger struct {
	file  *os.File
	mu    sync.Mutex
	runID string
}

// NewLLMLogger creates log/<runID>.log under dir
func NewLLMLogger(dir, runID string, req RunRequest) (*LLMLogger, error) {
	logDir := filepath.Join(dir, "log")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	filename := filepath.Join(logDir, fmt.Sprintf("%s.log", runID))
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	logger := &LLMLogger{
		file:  file,
		runID: runID,
	}

	logger.Logf("=== Image Selection Log ===\n")
	logger.Logf("Run ID: %s\n", runID)
	if req.Quiz != nil {
		logger.Logf("Quiz: %s\n", req.Quiz.Path)
		logger.Logf("Questions: %d\n", len(req.Quiz.Questions))
	}
	logger.Logf("Subject: %s\n", req.Subject)
	if req.Chapter != "" {
		logger.Logf("Chapter: %s\n", req.Chapter)
	}
	logger.Logf("Replace all: %v\n", req.ReplaceAll)
	logger.Logf("Started: %s\n", time.Now().Format(time.RFC3339))
	logger.Logf("========================\n\n")

	return logger, nil
}

// Logf writes a formatted log entry with timestamp
func (ll *LLMLogger) Logf(format string, args ...any) {
	if ll == nil {
		return
	}
	ll.mu.Lock()
	defer ll.mu.Unlock()
	if ll.file == nil {
		return
	}

	timestamp := time.Now().Format("15:04:05.000")
	fmt.Fprintf(ll.file, "[%s] %s", timestamp, fmt.Sprintf(format, args...))
	ll.file.Sync()
}

// LogLLMRequest logs an AI request
func (ll *LLMLogger) LogLLMRequest(module, prompt string) {
	ll.Logf("=== LLM REQUEST (%s) ===\n", module)
	ll.Logf("Prompt:\n%s\n", prompt)
	ll.Logf("=====================\n\n")
}

// LogLLMResponse logs an AI response
func (ll *LLMLogger) LogLLMResponse(module, response string) {
	ll.Logf("=== LLM RESPONSE (%s) ===\n", module)
	ll.Logf("Response:\n%s\n", response)
	ll.Logf("======================\n\n")
}

// LogLLMError logs a failed AI call
func (ll *LLMLogger) LogLLMError(module string, err error) {
	ll.Logf("=== LLM ERROR (%s) ===\n%v\n\n", module, err)
}

// LogSelection logs the outcome for one question
func (ll *LLMLogger) LogSelection(r SelectionResult) {
	switch {
	case r.Skipped:
		ll.Logf("Question %s: SKIPPED - %s\n", r.QuestionID, r.Reason)
	case r.Success:
		ll.Logf("Question %s: SELECTED %s (score %d >= %d)\n", r.QuestionID, r.Image.Title, r.Score, r.Threshold)
	default:
		ll.Logf("Question %s: FAILED - %s\n", r.QuestionID, r.Reason)
	}
}

// Close closes the log file
func (ll *LLMLogger) Close() error {
	if ll == nil {
		return nil
	}
	ll.Logf("=== Image Selection Complete ===\n")
	ll.Logf("Completed: %s\n", time.Now().Format(time.RFC3339))
	ll.Logf("=============================\n")

	ll.mu.Lock()
	defer ll.mu.Unlock()
	if ll.file == nil {
		return nil
	}
	err := ll.file.Close()
	ll.file = nil
	return err
}
