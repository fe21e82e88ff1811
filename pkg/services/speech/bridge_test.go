package speechservice

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	lock     sync.Mutex
	live     bool
	startErr error
	closes   int
	finishes int
	writes   [][]byte
	events   chan []byte
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		events: make(chan []byte, 16),
	}
}

func (f *fakeEngine) Start(_ context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.lock.Lock()
	f.live = true
	f.lock.Unlock()
	return nil
}

func (f *fakeEngine) Write(p []byte) (int, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	cp := make([]byte, len(p))
	copy(cp, p)
	f.writes = append(f.writes, cp)
	return len(p), nil
}

func (f *fakeEngine) Finish() {
	f.lock.Lock()
	f.finishes++
	f.lock.Unlock()
}

func (f *fakeEngine) Close() error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.closes++
	if f.live {
		f.live = false
		close(f.events)
	}
	return nil
}

func (f *fakeEngine) IsLive() bool {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.live
}

func (f *fakeEngine) Events() <-chan []byte {
	return f.events
}

func (f *fakeEngine) emit(payload []byte) {
	f.events <- payload
}

// selfTerminate simulates the engine ending on its own.
func (f *fakeEngine) selfTerminate() {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.live {
		f.live = false
		close(f.events)
	}
}

func (f *fakeEngine) writeCount() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return len(f.writes)
}

func (f *fakeEngine) closeCount() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.closes
}

type fakeSink struct {
	lock     sync.Mutex
	err      error
	payloads [][]byte
}

func (s *fakeSink) WriteEvent(payload []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.err != nil {
		return s.err
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	s.payloads = append(s.payloads, cp)
	return nil
}

func (s *fakeSink) all() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	out := make([]string, len(s.payloads))
	for i, p := range s.payloads {
		out[i] = string(p)
	}
	return out
}

func newTestBridge(engine *fakeEngine, sink EventSink) *SessionBridge {
	return NewSessionBridge("s1", "P0001", engine, sink, logrus.NewEntry(logrus.New()))
}

func TestBridgeDeliversEventsInOrder(t *testing.T) {
	engine := newFakeEngine()
	sink := &fakeSink{}
	b := newTestBridge(engine, sink)

	require.NoError(t, b.Start(context.Background()))

	engine.emit([]byte(`{"n":1}`))
	engine.emit([]byte(`{"n":2}`))
	engine.emit([]byte(`{"n":3}`))
	engine.selfTerminate()

	b.Stop()

	assert.Equal(t, []string{`{"n":1}`, `{"n":2}`, `{"n":3}`}, sink.all())
	assert.Equal(t, int64(3), b.EventCount())
}

func TestBridgeStopIsIdempotent(t *testing.T) {
	engine := newFakeEngine()
	sink := &fakeSink{}
	b := newTestBridge(engine, sink)

	require.NoError(t, b.Start(context.Background()))

	b.Stop()
	b.Stop()

	assert.Equal(t, 1, engine.closeCount())
	assert.False(t, b.IsLive())
}

func TestBridgeStopAfterEngineSelfExit(t *testing.T) {
	engine := newFakeEngine()
	sink := &fakeSink{}
	b := newTestBridge(engine, sink)

	require.NoError(t, b.Start(context.Background()))

	engine.selfTerminate()

	// the pump sees the closed channel and finishes on its own; a later
	// Stop must join it without faulting
	done := make(chan struct{})
	go func() {
		b.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after engine self exit")
	}
}

func TestBridgeFeedRespectsLiveness(t *testing.T) {
	engine := newFakeEngine()
	sink := &fakeSink{}
	b := newTestBridge(engine, sink)

	// before start nothing reaches the engine
	b.Feed([]byte{0x01})
	assert.Equal(t, 0, engine.writeCount())

	require.NoError(t, b.Start(context.Background()))

	b.Feed([]byte{0x02, 0x03})
	assert.Equal(t, 1, engine.writeCount())

	b.Stop()

	b.Feed([]byte{0x04})
	assert.Equal(t, 1, engine.writeCount())
}

func TestBridgeStartFailure(t *testing.T) {
	engine := newFakeEngine()
	engine.startErr = errors.New("no upstream")
	sink := &fakeSink{}
	b := newTestBridge(engine, sink)

	err := b.Start(context.Background())
	require.Error(t, err)

	// teardown after a failed start must not hang on the never-started pump
	done := make(chan struct{})
	go func() {
		b.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after failed start")
	}
}

func TestBridgeKeepsDrainingOnSinkError(t *testing.T) {
	engine := newFakeEngine()
	sink := &fakeSink{err: errors.New("connection gone")}
	b := newTestBridge(engine, sink)

	require.NoError(t, b.Start(context.Background()))

	engine.emit([]byte(`{"n":1}`))
	engine.emit([]byte(`{"n":2}`))
	engine.selfTerminate()

	b.Stop()

	// events were lost on the dead sink but the engine still drained
	assert.Empty(t, sink.all())
	assert.Equal(t, int64(2), b.EventCount())
}
