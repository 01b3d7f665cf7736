package quizimages

import (
	"context"
	"log"
	"regexp"
	"strings"
)

// Stage limits for the collector
const (
	CategoryPageLimit   = 20
	TextSearchLimit     = 15
	BroadSearchLimit    = 40
	WikipediaThumbWidth = 800

	maxCategoryHints = 2
	maxQueryTiers    = 3
)

var (
	scopedSyntax  = regexp.MustCompile(`(?i)\b(incategory|haswbstatement|insource|intitle|filetype|filemime):("[^"]*"|\S+)`)
	negationToken = regexp.MustCompile(`(^|\s)-[\p{L}\p{N}"][^\s]*`)
	extraSpace    = regexp.MustCompile(`\s+`)
)

// Collection accumulates candidates for one question across stages.
// Duplicate image URLs collapse to the first occurrence.
type Collection struct {
	Candidates []Candidate
	Queries    []string
	seen       map[string]bool
}

func newCollection() *Collection {
	return &Collection{seen: make(map[string]bool)}
}

func (c *Collection) add(cands []Candidate) int {
	added := 0
	for _, cand := range cands {
		if cand.ImageURL == "" || c.seen[cand.ImageURL] {
			continue
		}
		c.seen[cand.ImageURL] = true
		c.Candidates = append(c.Candidates, cand)
		added++
	}
	return added
}

func (c *Collection) attempted(q string) {
	c.Queries = append(c.Queries, q)
}

// Collector runs the ordered search stages against Commons and Wikipedia
type Collector struct {
	Searcher ImageSearcher
	Wiki     LeadImageFetcher
	Pacer    *Pacer
}

// NewCollector creates a collector; wiki may be nil to disable the encyclopedia fallback
func NewCollector(searcher ImageSearcher, wiki LeadImageFetcher, pacer *Pacer) *Collector {
	return &Collector{Searcher: searcher, Wiki: wiki, Pacer: pacer}
}

// Collect runs category search, tiered text search and the negation ladder
func (c *Collector) Collect(ctx context.Context, b SearchBrief) *Collection {
	coll := newCollection()

	for _, hint := range firstN(b.CategoryHints, maxCategoryHints) {
		coll.attempted("category:" + hint)
		coll.add(c.categoryMembers(ctx, hint, CategoryPageLimit))
	}

	queries := firstN(b.CommonsQueries, maxQueryTiers)
	for _, q := range queries {
		coll.attempted(q)
		coll.add(c.search(ctx, q, TextSearchLimit))
	}

	if len(coll.Candidates) > 0 {
		return coll
	}
	for _, q := range queries {
		if !hasNegation(q) {
			continue
		}
		relaxed := stripNegations(q)
		if relaxed == "" {
			continue
		}
		VerboseLog("Negation ladder: %q -> %q", q, relaxed)
		coll.attempted(relaxed)
		coll.add(c.search(ctx, relaxed, TextSearchLimit))
	}
	return coll
}

// WikipediaFallback adds the lead image of the brief's fallback article, if any
func (c *Collector) WikipediaFallback(ctx context.Context, b SearchBrief, coll *Collection) int {
	title := strings.TrimSpace(b.WikipediaFallback)
	if c.Wiki == nil || title == "" {
		return 0
	}
	coll.attempted("wikipedia:" + title)
	if err := c.Pacer.Wait(ctx); err != nil {
		return 0
	}
	cand, err := c.Wiki.LeadImage(ctx, title, WikipediaThumbWidth)
	if err != nil {
		log.Printf("Wikipedia fallback failed for %s: %v", b.QuestionID, err)
		return 0
	}
	if cand == nil {
		VerboseLog("No lead image for article %q", title)
		return 0
	}
	cand.Source = SourceWikipedia
	return coll.add([]Candidate{*cand})
}

// BroadRetry searches once more with the last query stripped of structured syntax
func (c *Collector) BroadRetry(ctx context.Context, b SearchBrief, coll *Collection) int {
	if len(b.CommonsQueries) == 0 {
		return 0
	}
	q := stripQuerySyntax(b.CommonsQueries[len(b.CommonsQueries)-1])
	if q == "" {
		return 0
	}
	coll.attempted(q)
	return coll.add(c.search(ctx, q, BroadSearchLimit))
}

func (c *Collector) search(ctx context.Context, q string, limit int) []Candidate {
	if err := c.Pacer.Wait(ctx); err != nil {
		return nil
	}
	cands, err := c.Searcher.SearchFiles(ctx, q, limit)
	if err != nil {
		log.Printf("Search failed for %q: %v", q, err)
		return nil
	}
	VerboseLog("Search %q: %d candidates", q, len(cands))
	for i := range cands {
		if cands[i].Query == "" {
			cands[i].Query = q
		}
	}
	return cands
}

func (c *Collector) categoryMembers(ctx context.Context, category string, limit int) []Candidate {
	if err := c.Pacer.Wait(ctx); err != nil {
		return nil
	}
	cands, err := c.Searcher.CategoryMembers(ctx, category, limit)
	if err != nil {
		log.Printf("Category lookup failed for %q: %v", category, err)
		return nil
	}
	VerboseLog("Category %q: %d candidates", category, len(cands))
	return cands
}

func hasNegation(q string) bool {
	return negationToken.MatchString(q)
}

func stripNegations(q string) string {
	return cleanSpaces(negationToken.ReplaceAllString(q, " "))
}

// stripQuerySyntax reduces a CirrusSearch query to plain words
func stripQuerySyntax(q string) string {
	q = scopedSyntax.ReplaceAllString(q, " ")
	q = negationToken.ReplaceAllString(q, " ")
	q = strings.ReplaceAll(q, `"`, " ")
	return cleanSpaces(q)
}

func cleanSpaces(s string) string {
	return strings.TrimSpace(extraSpace.ReplaceAllString(s, " "))
}

func firstN(in []string, n int) []string {
	out := make([]string, 0, n)
	for _, s := range in {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		out = append(out, s)
		if len(out) == n {
			break
		}
	}
	return out
}
