package quizimages

import "sync"

// QuestionQueue is a FIFO of questions waiting for an image, drained in batches
type QuestionQueue struct {
	mu        sync.RWMutex
	questions map[string]Question
	policies  map[string]ImagePolicy
	queue     []string
}

// NewQuestionQueue creates an empty queue
func NewQuestionQueue() *QuestionQueue {
	return &QuestionQueue{
		questions: make(map[string]Question),
		policies:  make(map[string]ImagePolicy),
		queue:     make([]string, 0),
	}
}

// Add enqueues a question with its image policy; a duplicate id is ignored
func (qq *QuestionQueue) Add(q Question, policy ImagePolicy) bool {
	qq.mu.Lock()
	defer qq.mu.Unlock()

	if _, ok := qq.questions[q.ID]; ok {
		return false
	}
	qq.questions[q.ID] = q
	qq.policies[q.ID] = policy
	qq.queue = append(qq.queue, q.ID)
	return true
}

// NextBatch removes and returns up to n questions in insertion order
func (qq *QuestionQueue) NextBatch(n int) []Question {
	qq.mu.Lock()
	defer qq.mu.Unlock()

	if n <= 0 || len(qq.queue) == 0 {
		return nil
	}
	if n > len(qq.queue) {
		n = len(qq.queue)
	}
	batch := make([]Question, 0, n)
	for _, id := range qq.queue[:n] {
		batch = append(batch, qq.questions[id])
		delete(qq.questions, id)
	}
	qq.queue = qq.queue[n:]
	return batch
}

// Policy returns the policy recorded when the question was queued
func (qq *QuestionQueue) Policy(id string) ImagePolicy {
	qq.mu.RLock()
	defer qq.mu.RUnlock()
	return qq.policies[id]
}

// Size returns the number of queued questions
func (qq *QuestionQueue) Size() int {
	qq.mu.RLock()
	defer qq.mu.RUnlock()
	return len(qq.queue)
}

// IsEmpty returns true if the queue is empty
func (qq *QuestionQueue) IsEmpty() bool {
	return qq.Size() == 0
}
