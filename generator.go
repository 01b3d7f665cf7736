package quizimages

import (
	"context"
	"fmt"
	"strings"
)

// Generator is a text generation backend. Implementations return the raw model text;
// callers locate the JSON inside it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// NewGenerator creates the backend selected by cfg.Provider
func NewGenerator(ctx context.Context, cfg Config) (Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIModel), nil
	default:
		return NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	}
}

const systemInstruction = "You plan image searches on Wikimedia Commons for Dutch secondary school quiz questions. " +
	"Answer with JSON only, no commentary."

// stripCodeFences removes a surrounding ```json fence if the model added one
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func emptyResponseError(backend string) error {
	return fmt.Errorf("%s: empty response", backend)
}

// AICaller wraps a Generator with pacing, rate-limit retries and the transcript log
type AICaller struct {
	Generator Generator
	Retrier   *Retrier
	Pacer     *Pacer
	Logger    *LLMLogger
}

// Call sends one prompt; module labels the call in the transcript
func (a *AICaller) Call(ctx context.Context, module, prompt string) (string, error) {
	if err := a.Pacer.Wait(ctx); err != nil {
		return "", err
	}
	a.Logger.LogLLMRequest(module, prompt)

	op := func(ctx context.Context) (string, error) {
		return a.Generator.Generate(ctx, prompt)
	}
	var (
		out string
		err error
	)
	if a.Retrier != nil {
		out, err = a.Retrier.Do(ctx, op)
	} else {
		out, err = op(ctx)
	}
	if err != nil {
		a.Logger.LogLLMError(module, err)
		return "", err
	}
	a.Logger.LogLLMResponse(module, out)
	return out, nil
}
