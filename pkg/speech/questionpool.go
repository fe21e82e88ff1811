package speech

import (
	"sync"

	"github.com/goccy/go-json"
)

// PoolQuestion is one candidate follow-up question with its category tag.
type PoolQuestion struct {
	Question string `json:"question"`
	Category string `json:"category"`
}

// QuestionPool is the per-session set of follow-up questions still worth
// suggesting. Every session gets its own copy of a read-only source list, so
// draws never leak between concurrent sessions and nothing is written back
// to the source.
type QuestionPool struct {
	lock      sync.Mutex
	remaining []*PoolQuestion
}

// NewQuestionPool copies the source list so the pool owns its state.
func NewQuestionPool(source []*PoolQuestion) *QuestionPool {
	remaining := make([]*PoolQuestion, len(source))
	copy(remaining, source)

	return &QuestionPool{
		remaining: remaining,
	}
}

// ParseQuestionPool reads a question pool document.
func ParseQuestionPool(data []byte) ([]*PoolQuestion, error) {
	var questions []*PoolQuestion
	err := json.Unmarshal(data, &questions)
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// Candidates returns up to n remaining questions without removing them.
func (p *QuestionPool) Candidates(n int) []*PoolQuestion {
	p.lock.Lock()
	defer p.lock.Unlock()

	if n > len(p.remaining) {
		n = len(p.remaining)
	}
	out := make([]*PoolQuestion, n)
	copy(out, p.remaining[:n])
	return out
}

// Remove drops the first question matching the given text. It reports
// whether anything was removed.
func (p *QuestionPool) Remove(question string) bool {
	p.lock.Lock()
	defer p.lock.Unlock()

	for i, q := range p.remaining {
		if q.Question == question {
			p.remaining = append(p.remaining[:i], p.remaining[i+1:]...)
			return true
		}
	}
	return false
}

// Remaining reports how many questions are left in the pool.
func (p *QuestionPool) Remaining() int {
	p.lock.Lock()
	defer p.lock.Unlock()

	return len(p.remaining)
}

// DefaultQuestionPool returns a fresh copy of the built-in history-taking
// questions, used when the patient's folder carries no pool document.
func DefaultQuestionPool() []*PoolQuestion {
	return []*PoolQuestion{
		{Question: "When did the symptoms first start?", Category: "onset"},
		{Question: "Can you describe where the discomfort is and whether it moves anywhere?", Category: "location"},
		{Question: "On a scale of one to ten, how severe is it right now?", Category: "severity"},
		{Question: "Does anything make it better or worse?", Category: "modifying_factors"},
		{Question: "Have you noticed any other symptoms alongside it?", Category: "associated_symptoms"},
		{Question: "Are you currently taking any medication, prescribed or otherwise?", Category: "medications"},
		{Question: "Do you have any allergies to medication?", Category: "allergies"},
		{Question: "Has anything like this happened to you before?", Category: "history"},
		{Question: "Does anyone in your family have a similar condition?", Category: "family_history"},
		{Question: "How has this been affecting your day to day life?", Category: "impact"},
	}
}
