package quizimages

// UsedImageSet tracks image URLs already assigned during one run.
// It only grows; a URL added once stays disqualified for the rest of the run.
type UsedImageSet struct {
	urls map[string]bool
}

// NewUsedImageSet creates a set seeded with the given URLs
func NewUsedImageSet(seed ...string) *UsedImageSet {
	s := &UsedImageSet{urls: make(map[string]bool, len(seed))}
	for _, u := range seed {
		s.Add(u)
	}
	return s
}

// Add records a URL as used
func (s *UsedImageSet) Add(url string) {
	if url == "" {
		return
	}
	s.urls[url] = true
}

// Contains reports whether a URL was already assigned
func (s *UsedImageSet) Contains(url string) bool {
	return s.urls[url]
}

// Len returns the number of used URLs
func (s *UsedImageSet) Len() int {
	return len(s.urls)
}

// MaxEscalationsPerQuiz is the default escalation budget per run
const MaxEscalationsPerQuiz = 10

// EscalationState is the run-wide escalation budget. It counts attempts, not successes.
type EscalationState struct {
	Max   int
	count int
}

// NewEscalationState creates a budget of max attempts; max <= 0 disables escalation
func NewEscalationState(max int) *EscalationState {
	return &EscalationState{Max: max}
}

// TryConsume takes one unit of budget, reporting false once the budget is spent
func (e *EscalationState) TryConsume() bool {
	if e == nil || e.count >= e.Max {
		return false
	}
	e.count++
	return true
}

// Count returns the number of escalation attempts made so far
func (e *EscalationState) Count() int {
	if e == nil {
		return 0
	}
	return e.count
}

// Remaining returns the unused budget
func (e *EscalationState) Remaining() int {
	if e == nil || e.count >= e.Max {
		return 0
	}
	return e.Max - e.count
}
