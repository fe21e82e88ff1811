package google

import (
	"context"
	"fmt"
	"strings"

	"github.com/clinicsim/clinicsim-server/pkg/config"
	"github.com/clinicsim/clinicsim-server/pkg/speech"
	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// GoogleAdvisor implements the speech.Advisor contract for Google's AI
// services.
type GoogleAdvisor struct {
	client *genai.Client
	model  string
	log    *logrus.Entry
}

// NewAdvisor creates a new Google AI advisor.
func NewAdvisor(ctx context.Context, conf *config.AdvisorInfo, log *logrus.Entry) (*GoogleAdvisor, error) {
	if conf.APIKey == "" {
		return nil, fmt.Errorf("google advisor requires api_key")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: conf.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GoogleAdvisor{
		client: client,
		model:  conf.Model,
		log:    log,
	}, nil
}

// Suggest sends the shared advice prompt through the non-streaming API and
// maps the reply back onto a pool candidate.
func (a *GoogleAdvisor) Suggest(ctx context.Context, req *speech.AdviceRequest) (*speech.AdviceResult, error) {
	if len(req.Candidates) == 0 {
		return nil, nil
	}

	contents := []*genai.Content{
		genai.NewContentFromText(speech.AdvisorSystemPrompt, genai.RoleUser),
		genai.NewContentFromText(speech.FormatAdvicePrompt(req), genai.RoleUser),
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate advice: %w", err)
	}

	var textBuilder strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				textBuilder.WriteString(part.Text)
			}
		}
	}
	if textBuilder.Len() == 0 {
		return nil, fmt.Errorf("no advice content found in response")
	}

	return speech.PickCandidate(req.Candidates, textBuilder.String()), nil
}
