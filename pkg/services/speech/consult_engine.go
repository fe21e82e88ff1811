package speechservice

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/clinicsim/clinicsim-server/pkg/speech"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

const (
	eventBufferSize      = 64
	adviceQueueSize      = 4
	adviceCandidateCount = 5
	adviceTimeout        = 15 * time.Second
)

// ConsultEngine is the live-transcription engine. A provider recognition
// stream turns audio chunks into partial and final transcript events; each
// final utterance is recorded and, when an advisor is configured, may
// produce a follow-up question event drawn from the session's question pool.
type ConsultEngine struct {
	opts   *EngineOptions
	logger *logrus.Entry

	ctx    context.Context
	cancel context.CancelFunc

	stream speech.RecognitionStream
	pool   *speech.QuestionPool

	events    chan []byte
	adviceReq chan string

	live    atomic.Bool
	started time.Time

	trLock     sync.Mutex
	transcript []*speech.TranscriptLine

	finishOnce sync.Once
	closeOnce  sync.Once
	streamOnce sync.Once
	wg         sync.WaitGroup
}

func NewConsultEngine(opts *EngineOptions) (*ConsultEngine, error) {
	if opts.Recognizer == nil {
		return nil, fmt.Errorf("consultation engine requires a recognizer")
	}

	return &ConsultEngine{
		opts:      opts,
		logger:    opts.Logger.WithField("engine", "consult"),
		pool:      speech.NewQuestionPool(opts.QuestionSource),
		events:    make(chan []byte, eventBufferSize),
		adviceReq: make(chan string, adviceQueueSize),
	}, nil
}

// Start opens the recognition stream and launches the processing routines.
func (e *ConsultEngine) Start(ctx context.Context) error {
	e.ctx, e.cancel = context.WithCancel(ctx)

	stream, err := e.opts.Recognizer.CreateRecognition(e.ctx, e.opts.SessionId, e.opts.Language)
	if err != nil {
		e.cancel()
		close(e.events)
		return fmt.Errorf("could not create recognition stream: %w", err)
	}

	e.stream = stream
	e.started = time.Now()
	e.live.Store(true)

	e.wg.Add(1)
	go e.run()

	if e.opts.Advisor != nil {
		e.wg.Add(1)
		go e.adviceWorker()
	}

	// the event channel closes once every producer is done
	go func() {
		e.wg.Wait()
		close(e.events)
	}()

	return nil
}

// Write feeds one audio chunk to the recognition stream. Chunks arriving
// while the engine is not live are dropped.
func (e *ConsultEngine) Write(p []byte) (int, error) {
	if !e.live.Load() {
		return len(p), nil
	}
	return e.stream.Write(p)
}

// Finish stops accepting audio and closes the provider stream, which flushes
// pending recognition and eventually terminates the engine.
func (e *ConsultEngine) Finish() {
	e.finishOnce.Do(func() {
		e.live.Store(false)
		go e.closeStream()
	})
}

// Close tears the engine down unconditionally.
func (e *ConsultEngine) Close() error {
	e.closeOnce.Do(func() {
		e.live.Store(false)
		if e.cancel != nil {
			e.cancel()
		}
		go e.closeStream()
	})
	return nil
}

func (e *ConsultEngine) IsLive() bool {
	return e.live.Load()
}

func (e *ConsultEngine) Events() <-chan []byte {
	return e.events
}

// Transcript returns a copy of the finalized lines recorded so far.
func (e *ConsultEngine) Transcript() []*speech.TranscriptLine {
	e.trLock.Lock()
	defer e.trLock.Unlock()

	out := make([]*speech.TranscriptLine, len(e.transcript))
	copy(out, e.transcript)
	return out
}

// run drains the recognition stream until the provider closes it. It is the
// only writer of transcript events, so their order matches production order.
func (e *ConsultEngine) run() {
	defer e.wg.Done()
	defer close(e.adviceReq)

	for result := range e.stream.Results() {
		payload, err := json.Marshal(&speech.TranscriptEvent{
			Type:      speech.EventTypeTranscript,
			Text:      result.Text,
			IsPartial: result.IsPartial,
		})
		if err != nil {
			e.logger.WithError(err).Errorln("failed to marshal transcript event")
			continue
		}
		e.emit(payload)

		if result.IsPartial || result.Text == "" {
			continue
		}

		e.appendTranscript(result.Text)

		if e.opts.Advisor != nil {
			select {
			case e.adviceReq <- result.Text:
			default:
				// advice is best effort; a busy advisor skips this turn
			}
		}
	}

	e.live.Store(false)
	e.logger.Infoln("recognition stream drained")
}

// adviceWorker serializes advisor calls so advice events stay ordered.
func (e *ConsultEngine) adviceWorker() {
	defer e.wg.Done()

	for utterance := range e.adviceReq {
		e.suggestFollowUp(utterance)
	}
}

func (e *ConsultEngine) suggestFollowUp(utterance string) {
	candidates := e.pool.Candidates(adviceCandidateCount)
	if len(candidates) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(e.ctx, adviceTimeout)
	defer cancel()

	result, err := e.opts.Advisor.Suggest(ctx, &speech.AdviceRequest{
		PatientContext: e.opts.SeedContext,
		Utterance:      utterance,
		Candidates:     candidates,
	})
	if err != nil {
		e.logger.WithError(err).Warnln("advisor suggestion failed")
		return
	}
	if result == nil {
		return
	}

	// a suggested question leaves this session's pool for good
	e.pool.Remove(result.Question)

	payload, err := json.Marshal(&speech.AdviceEvent{
		Type:     speech.EventTypeAdvice,
		Question: result.Question,
		Category: result.Category,
	})
	if err != nil {
		e.logger.WithError(err).Errorln("failed to marshal advice event")
		return
	}
	e.emit(payload)
}

// emit never blocks past teardown; once the context is gone the payload is
// discarded.
func (e *ConsultEngine) emit(payload []byte) {
	select {
	case e.events <- payload:
	case <-e.ctx.Done():
	}
}

func (e *ConsultEngine) appendTranscript(text string) {
	line := &speech.TranscriptLine{
		Speaker:   "clinician",
		Text:      text,
		OffsetSec: time.Since(e.started).Seconds(),
	}

	e.trLock.Lock()
	e.transcript = append(e.transcript, line)
	e.trLock.Unlock()
}

func (e *ConsultEngine) closeStream() {
	e.streamOnce.Do(func() {
		if e.stream == nil {
			return
		}
		err := e.stream.Close()
		if err != nil {
			e.logger.WithError(err).Warnln("recognition stream close reported error")
		}
	})
}
