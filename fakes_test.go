package quizimages

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// fakeGenerator answers prompts from a script and records every call
type fakeGenerator struct {
	mu      sync.Mutex
	respond func(prompt string) (string, error)
	prompts []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.respond == nil {
		return "", errors.New("no response scripted")
	}
	return f.respond(prompt)
}

func (f *fakeGenerator) Name() string { return "fake" }

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakeGenerator) callsWith(substr string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.prompts {
		if strings.Contains(p, substr) {
			n++
		}
	}
	return n
}

func newTestAI(gen Generator) *AICaller {
	return &AICaller{Generator: gen}
}

// fakeSearcher serves canned results per query or category
type fakeSearcher struct {
	mu         sync.Mutex
	results    map[string][]Candidate
	categories map[string][]Candidate
	failing    map[string]bool
	queries    []string
}

func newFakeSearcher() *fakeSearcher {
	return &fakeSearcher{
		results:    map[string][]Candidate{},
		categories: map[string][]Candidate{},
		failing:    map[string]bool{},
	}
}

func (f *fakeSearcher) SearchFiles(_ context.Context, query string, _ int) ([]Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.failing[query] {
		return nil, errors.New("search backend down")
	}
	return cloneCandidates(f.results[query]), nil
}

func (f *fakeSearcher) CategoryMembers(_ context.Context, category string, _ int) ([]Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, "category:"+category)
	if f.failing["category:"+category] {
		return nil, errors.New("category backend down")
	}
	return cloneCandidates(f.categories[category]), nil
}

func (f *fakeSearcher) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func cloneCandidates(in []Candidate) []Candidate {
	if in == nil {
		return nil
	}
	return append([]Candidate(nil), in...)
}

// fakeWiki returns a lead image per article title
type fakeWiki struct {
	images map[string]*Candidate
	calls  int
}

func (f *fakeWiki) LeadImage(_ context.Context, title string, _ int) (*Candidate, error) {
	f.calls++
	c, ok := f.images[title]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

// fakeRecorder keeps saved reports in memory
type fakeRecorder struct {
	reports []*Report
}

func (f *fakeRecorder) SaveRun(_ context.Context, r *Report) error {
	f.reports = append(f.reports, r)
	return nil
}
