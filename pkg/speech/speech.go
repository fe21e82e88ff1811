package speech

import (
	"context"
	"io"
)

const (
	EventTypeTranscript = "transcript"
	EventTypeAdvice     = "advice"
	EventTypeCaption    = "caption"
	EventTypeSystem     = "system"
)

// RecognitionResult is the standardized struct for a single piece of recognized text.
type RecognitionResult struct {
	Text      string `json:"text"`
	IsPartial bool   `json:"is_partial"` // True if this is an intermediate, non-final result.
}

// RecognitionStream defines a universal, bidirectional interface for live
// speech recognition. The user of this interface can Write() audio to the
// stream and will receive results by reading from the Results() channel.
type RecognitionStream interface {
	// Write accepts a chunk of raw audio data to be sent to the provider.
	io.Writer

	// Closer signals that the audio stream is finished and no more data will be sent.
	io.Closer

	// Results returns a read-only channel where recognition results will be
	// sent. The provider closes the channel once the stream terminates.
	Results() <-chan *RecognitionResult
}

// Recognizer is the contract a speech-to-text provider must fulfill.
type Recognizer interface {
	CreateRecognition(ctx context.Context, sessionId, language string) (RecognitionStream, error)
}

// Engine consumes audio chunks for one session and asynchronously produces
// ordered event payloads for the wire.
type Engine interface {
	// Start begins the engine's processing pipeline. After a successful
	// Start the engine reports IsLive until it terminates.
	Start(ctx context.Context) error

	// Write feeds one audio chunk. Chunks written while the engine is not
	// live are dropped.
	io.Writer

	// Finish requests a graceful wind-down: no more audio will arrive and
	// pending recognition must be flushed before the event channel closes.
	Finish()

	// Closer tears the engine down unconditionally. Safe to call more than
	// once and after the engine terminated on its own.
	io.Closer

	// IsLive reports whether the engine currently accepts audio.
	IsLive() bool

	// Events returns the ordered stream of event payloads, each one a JSON
	// document ready for the wire. The engine closes the channel once no
	// further events will be produced; the close is the consumer's signal
	// that the engine is done.
	Events() <-chan []byte
}

// TranscriptEvent is the wire payload for one recognition result.
type TranscriptEvent struct {
	Type      string `json:"type"`
	Text      string `json:"text"`
	IsPartial bool   `json:"is_partial"`
}

// AdviceEvent is the wire payload for one suggested follow-up question.
type AdviceEvent struct {
	Type     string `json:"type"`
	Question string `json:"question"`
	Category string `json:"category"`
}

// CaptionEvent is the wire payload for one replayed script line.
type CaptionEvent struct {
	Type    string `json:"type"`
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// SystemEvent carries engine lifecycle notices.
type SystemEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// TranscriptLine is one finalized utterance of a consultation. The same
// shape doubles as the script format for scripted playback.
type TranscriptLine struct {
	Speaker   string  `json:"speaker"`
	Text      string  `json:"text"`
	OffsetSec float64 `json:"offset_sec"`
}

// TranscriptKeeper is implemented by engines that accumulate the finalized
// lines of a session.
type TranscriptKeeper interface {
	Transcript() []*TranscriptLine
}

// AdviceRequest carries one finalized utterance together with the context an
// advisor may use to pick the next question.
type AdviceRequest struct {
	PatientContext string
	Utterance      string
	Candidates     []*PoolQuestion
}

// AdviceResult is the advisor's pick.
type AdviceResult struct {
	Question string `json:"question"`
	Category string `json:"category"`
}

// Advisor suggests a follow-up question for a finalized utterance. A nil
// result with a nil error means the advisor had nothing to suggest.
type Advisor interface {
	Suggest(ctx context.Context, req *AdviceRequest) (*AdviceResult, error)
}
