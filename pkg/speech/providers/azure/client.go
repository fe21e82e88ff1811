package azure

import (
	"context"

	"github.com/clinicsim/clinicsim-server/pkg/config"
	"github.com/clinicsim/clinicsim-server/pkg/speech"
	"github.com/sirupsen/logrus"
)

// AzureProvider implements the speech.Recognizer contract on top of the
// Azure cognitive services speech SDK. One provider is bound to one
// subscription key; key selection happens before the provider is built.
type AzureProvider struct {
	key *config.AzureSubscriptionKey
	log *logrus.Entry
}

// NewProvider creates a provider for the given subscription key.
func NewProvider(key *config.AzureSubscriptionKey, log *logrus.Entry) *AzureProvider {
	return &AzureProvider{
		key: key,
		log: log,
	}
}

// CreateRecognition delegates to the specialized recognize client.
func (p *AzureProvider) CreateRecognition(ctx context.Context, sessionId, language string) (speech.RecognitionStream, error) {
	client, err := newRecognizeClient(p.key, p.log)
	if err != nil {
		return nil, err
	}

	return client.RecognizeStream(ctx, sessionId, language)
}
