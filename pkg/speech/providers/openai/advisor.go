package openai

import (
	"context"
	"fmt"

	"github.com/clinicsim/clinicsim-server/pkg/config"
	"github.com/clinicsim/clinicsim-server/pkg/speech"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/sirupsen/logrus"
)

// OpenAIAdvisor implements the speech.Advisor contract with a chat
// completion model.
type OpenAIAdvisor struct {
	client openai.Client
	model  string
	log    *logrus.Entry
}

// NewAdvisor creates a new, fully configured OpenAI advisor. A custom
// endpoint in the config points the client at a compatible gateway.
func NewAdvisor(conf *config.AdvisorInfo, log *logrus.Entry) (*OpenAIAdvisor, error) {
	if conf.APIKey == "" {
		return nil, fmt.Errorf("openai advisor requires api_key")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(conf.APIKey),
	}
	if conf.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(conf.Endpoint))
	}

	return &OpenAIAdvisor{
		client: openai.NewClient(opts...),
		model:  conf.Model,
		log:    log,
	}, nil
}

// Suggest asks the model to pick one candidate and maps the numeric reply
// back onto the pool question.
func (a *OpenAIAdvisor) Suggest(ctx context.Context, req *speech.AdviceRequest) (*speech.AdviceResult, error) {
	if len(req.Candidates) == 0 {
		return nil, nil
	}

	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(a.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(speech.AdvisorSystemPrompt),
			openai.UserMessage(speech.FormatAdvicePrompt(req)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	return speech.PickCandidate(req.Candidates, resp.Choices[0].Message.Content), nil
}
