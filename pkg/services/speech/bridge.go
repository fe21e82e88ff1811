package speechservice

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/clinicsim/clinicsim-server/pkg/speech"
	"github.com/sirupsen/logrus"
)

// pumpJoinTimeout bounds how long Stop waits for the event pump. A stuck
// engine must never wedge the connection goroutine.
const pumpJoinTimeout = 3 * time.Second

// EventSink receives engine event payloads in production order. The
// websocket controller implements it with a write-locked connection.
type EventSink interface {
	WriteEvent(payload []byte) error
}

// SessionBridge owns one engine for one active session. It runs the engine
// on its own goroutines and marshals events back to the connection through a
// single pump, so per-session ordering is preserved end to end.
type SessionBridge struct {
	sessionId string
	patientId string
	engine    speech.Engine
	sink      EventSink
	logger    *logrus.Entry

	ctx    context.Context
	cancel context.CancelFunc

	stopOnce sync.Once
	done     chan struct{}

	eventCount int64
}

func NewSessionBridge(sessionId, patientId string, engine speech.Engine, sink EventSink, logger *logrus.Entry) *SessionBridge {
	return &SessionBridge{
		sessionId: sessionId,
		patientId: patientId,
		engine:    engine,
		sink:      sink,
		logger: logger.WithFields(logrus.Fields{
			"sessionId": sessionId,
			"patientId": patientId,
		}),
		done: make(chan struct{}),
	}
}

func (b *SessionBridge) SessionId() string {
	return b.sessionId
}

func (b *SessionBridge) PatientId() string {
	return b.patientId
}

// Start launches the engine and the event pump.
func (b *SessionBridge) Start(ctx context.Context) error {
	b.ctx, b.cancel = context.WithCancel(ctx)

	err := b.engine.Start(b.ctx)
	if err != nil {
		b.cancel()
		close(b.done)
		return err
	}

	go b.pump()
	return nil
}

// pump is the single consumer of the engine's event channel. It exits when
// the engine closes the channel, which is the engine's termination signal.
func (b *SessionBridge) pump() {
	defer close(b.done)

	for payload := range b.engine.Events() {
		atomic.AddInt64(&b.eventCount, 1)
		err := b.sink.WriteEvent(payload)
		if err != nil {
			// keep draining so the engine can terminate; the events are
			// lost, which is acceptable on a dying connection
			b.logger.WithError(err).Debugln("failed to write event to connection")
		}
	}
}

// Feed hands one audio chunk to the engine. Chunks arriving while the engine
// is not live are dropped without error.
func (b *SessionBridge) Feed(chunk []byte) {
	if !b.engine.IsLive() {
		return
	}

	_, err := b.engine.Write(chunk)
	if err != nil {
		b.logger.WithError(err).Warnln("failed to feed audio chunk")
	}
}

// Finish asks the engine to wind down gracefully and flush pending results.
func (b *SessionBridge) Finish() {
	b.engine.Finish()
}

// IsLive reports whether the engine still accepts audio.
func (b *SessionBridge) IsLive() bool {
	return b.engine.IsLive()
}

// EventCount reports how many events were pumped to the connection.
func (b *SessionBridge) EventCount() int64 {
	return atomic.LoadInt64(&b.eventCount)
}

// Transcript returns the engine's finalized lines when it keeps any.
func (b *SessionBridge) Transcript() []*speech.TranscriptLine {
	keeper, ok := b.engine.(speech.TranscriptKeeper)
	if !ok {
		return nil
	}
	return keeper.Transcript()
}

// Stop tears the session down unconditionally. It is idempotent, safe after
// the engine exited on its own, and joins the pump with a bounded wait. All
// teardown paths of a session converge here.
func (b *SessionBridge) Stop() {
	b.stopOnce.Do(func() {
		if b.cancel != nil {
			b.cancel()
		}

		err := b.engine.Close()
		if err != nil {
			b.logger.WithError(err).Warnln("engine close reported error")
		}

		select {
		case <-b.done:
		case <-time.After(pumpJoinTimeout):
			b.logger.Warnln("timed out waiting for event pump to drain")
		}

		b.logger.Infoln("session bridge stopped")
	})
}
