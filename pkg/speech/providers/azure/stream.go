package azure

import (
	"github.com/Microsoft/cognitive-services-speech-sdk-go/audio"
	azspeech "github.com/Microsoft/cognitive-services-speech-sdk-go/speech"
	"github.com/clinicsim/clinicsim-server/pkg/speech"
)

// azureRecognitionStream adapts the Azure push stream and recognizer pair to
// the speech.RecognitionStream contract.
type azureRecognitionStream struct {
	pushStream *audio.PushAudioInputStream
	recognizer *azspeech.SpeechRecognizer
	results    chan *speech.RecognitionResult
}

// Write implements the io.Writer interface by pushing the chunk into the
// Azure input stream.
func (s *azureRecognitionStream) Write(p []byte) (n int, err error) {
	err = s.pushStream.Write(p)
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close implements the io.Closer interface. Stopping the recognizer first
// triggers SessionStopped, which closes the results channel; only then is
// the underlying audio stream released.
func (s *azureRecognitionStream) Close() error {
	err := <-s.recognizer.StopContinuousRecognitionAsync()
	if err != nil {
		return err
	}
	s.pushStream.Close()
	return nil
}

// Results implements the RecognitionStream interface.
func (s *azureRecognitionStream) Results() <-chan *speech.RecognitionResult {
	return s.results
}
