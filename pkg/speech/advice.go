package speech

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// AdvisorSystemPrompt instructs the model to answer with a bare number so
// the reply maps back onto a pool candidate.
const AdvisorSystemPrompt = "You are an assistant for clinical history-taking training. " +
	"The user supplies the patient background, the clinician's last utterance and a " +
	"numbered list of candidate follow-up questions. Answer with the number of the " +
	"single most relevant candidate and nothing else."

// FormatAdvicePrompt renders one advice request as the user prompt shared by
// all advisor providers.
func FormatAdvicePrompt(req *AdviceRequest) string {
	var b strings.Builder

	if req.PatientContext != "" {
		b.WriteString("Patient background:\n")
		b.WriteString(req.PatientContext)
		b.WriteString("\n\n")
	}

	b.WriteString("Clinician said:\n")
	b.WriteString(req.Utterance)
	b.WriteString("\n\nCandidate follow-up questions:\n")
	for i, q := range req.Candidates {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q.Question)
	}
	b.WriteString("\nAnswer with the number of the best candidate.")

	return b.String()
}

// PickCandidate resolves a model reply to one of the candidates. A reply that
// cannot be parsed as an in-range number falls back to the first candidate.
func PickCandidate(candidates []*PoolQuestion, reply string) *AdviceResult {
	if len(candidates) == 0 {
		return nil
	}

	chosen := candidates[0]
	digits := strings.FieldsFunc(strings.TrimSpace(reply), func(r rune) bool {
		return !unicode.IsDigit(r)
	})
	if len(digits) > 0 {
		if n, err := strconv.Atoi(digits[0]); err == nil && n >= 1 && n <= len(candidates) {
			chosen = candidates[n-1]
		}
	}

	return &AdviceResult{
		Question: chosen.Question,
		Category: chosen.Category,
	}
}
