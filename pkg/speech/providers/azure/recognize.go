package azure

import (
	"context"
	"fmt"
	"sync"

	"github.com/Microsoft/cognitive-services-speech-sdk-go/audio"
	azspeech "github.com/Microsoft/cognitive-services-speech-sdk-go/speech"
	"github.com/clinicsim/clinicsim-server/pkg/config"
	"github.com/clinicsim/clinicsim-server/pkg/speech"
	"github.com/sirupsen/logrus"
)

// recognizeClient holds the actual Azure SDK configuration and objects.
type recognizeClient struct {
	config *azspeech.SpeechConfig
	log    *logrus.Entry
}

func newRecognizeClient(key *config.AzureSubscriptionKey, log *logrus.Entry) (*recognizeClient, error) {
	if key == nil || key.SubscriptionKey == "" || key.ServiceRegion == "" {
		return nil, fmt.Errorf("azure provider requires subscription_key and service_region")
	}

	cnf, err := azspeech.NewSpeechConfigFromSubscription(key.SubscriptionKey, key.ServiceRegion)
	if err != nil {
		return nil, err
	}

	return &recognizeClient{
		config: cnf,
		log:    log,
	}, nil
}

// RecognizeStream wires a push audio input stream into a continuous
// recognizer and exposes the pair as a speech.RecognitionStream.
func (c *recognizeClient) RecognizeStream(ctx context.Context, sessionId, language string) (speech.RecognitionStream, error) {
	log := c.log.WithFields(logrus.Fields{
		"method":    "RecognizeStream",
		"sessionId": sessionId,
	})
	log.Infoln("starting recognition")

	audioFormat, err := audio.GetWaveFormatPCM(16000, 16, 1)
	if err != nil {
		return nil, fmt.Errorf("could not create audio format: %v", err)
	}

	inputStream, err := audio.CreatePushAudioInputStreamFromFormat(audioFormat)
	if err != nil {
		return nil, fmt.Errorf("could not create push input stream: %v", err)
	}

	audioConfig, err := audio.NewAudioConfigFromStreamInput(inputStream)
	if err != nil {
		return nil, err
	}

	// the recognizer copies config properties at construction time, so the
	// language has to be in place first
	err = c.config.SetSpeechRecognitionLanguage(language)
	if err != nil {
		return nil, err
	}

	recognizer, err := azspeech.NewSpeechRecognizerFromConfig(c.config, audioConfig)
	if err != nil {
		return nil, err
	}

	resultsChan := make(chan *speech.RecognitionResult)

	// SessionStopped, Canceled and a failed start may each fire; the
	// channel must close exactly once.
	var closeOnce sync.Once
	closeResults := func() {
		closeOnce.Do(func() {
			close(resultsChan)
		})
	}

	recognizer.SessionStarted(func(e azspeech.SessionEventArgs) {
		log.Infoln("azure recognition started")
	})
	recognizer.SessionStopped(func(e azspeech.SessionEventArgs) {
		closeResults()
		log.Infoln("azure recognition stopped")
	})

	recognizer.Recognizing(func(e azspeech.SpeechRecognitionEventArgs) {
		resultsChan <- &speech.RecognitionResult{
			Text:      e.Result.Text,
			IsPartial: true,
		}
	})

	recognizer.Recognized(func(e azspeech.SpeechRecognitionEventArgs) {
		resultsChan <- &speech.RecognitionResult{
			Text:      e.Result.Text,
			IsPartial: false,
		}
	})

	recognizer.Canceled(func(e azspeech.SpeechRecognitionCanceledEventArgs) {
		log.Infof("azure recognition canceled: %v\n", e.ErrorDetails)
		closeResults()
	})

	go func() {
		// StartContinuousRecognitionAsync returns a channel that provides
		// the result of the async operation; the error must be read from it.
		err := <-recognizer.StartContinuousRecognitionAsync()
		if err != nil {
			log.WithError(err).Errorln("error starting azure recognition")
			closeResults()
		}
	}()

	go func() {
		<-ctx.Done()
		recognizer.StopContinuousRecognitionAsync()
	}()

	stream := &azureRecognitionStream{
		pushStream: inputStream,
		recognizer: recognizer,
		results:    resultsChan,
	}

	return stream, nil
}
