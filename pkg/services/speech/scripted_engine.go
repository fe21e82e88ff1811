package speechservice

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/clinicsim/clinicsim-server/pkg/speech"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const defaultLineGap = 1500 * time.Millisecond

// defaultScript backs sessions whose patient folder carries no script
// document.
var defaultScript = []*speech.TranscriptLine{
	{Speaker: "doctor", Text: "Good morning, I'm the attending physician. What brings you in today?", OffsetSec: 0},
	{Speaker: "patient", Text: "I've had this crushing pain in my chest since early this morning.", OffsetSec: 4},
	{Speaker: "doctor", Text: "I'm sorry to hear that. Does the pain move anywhere, to your arm or jaw?", OffsetSec: 9},
	{Speaker: "patient", Text: "It goes up into my left shoulder, and I feel short of breath.", OffsetSec: 14},
	{Speaker: "doctor", Text: "Thank you. We'll get an ECG right away and start you on some oxygen.", OffsetSec: 19},
}

// ScriptedEngine replays a scripted consultation as caption events, pacing
// emission with the gaps between line offsets. Inbound audio is counted and
// discarded; the channel exists so the client can exercise the same duplex
// protocol as a live session.
type ScriptedEngine struct {
	opts   *EngineOptions
	logger *logrus.Entry

	ctx    context.Context
	cancel context.CancelFunc

	script []*speech.TranscriptLine
	events chan []byte

	live            atomic.Bool
	chunksDiscarded atomic.Int64

	closeOnce sync.Once
}

func NewScriptedEngine(opts *EngineOptions) (*ScriptedEngine, error) {
	script := opts.Script
	if len(script) == 0 {
		script = defaultScript
	}

	return &ScriptedEngine{
		opts:   opts,
		logger: opts.Logger.WithField("engine", "scripted"),
		script: script,
		events: make(chan []byte, eventBufferSize),
	}, nil
}

// Start launches the pacing and emission routines.
func (e *ScriptedEngine) Start(ctx context.Context) error {
	e.ctx, e.cancel = context.WithCancel(ctx)
	e.live.Store(true)

	go e.run()
	return nil
}

// Write counts and discards the chunk. The scripted engine never fails on
// audio input.
func (e *ScriptedEngine) Write(p []byte) (int, error) {
	e.chunksDiscarded.Add(1)
	return len(p), nil
}

// Finish ends playback; there is no pending work to flush.
func (e *ScriptedEngine) Finish() {
	_ = e.Close()
}

// Close stops playback unconditionally.
func (e *ScriptedEngine) Close() error {
	e.closeOnce.Do(func() {
		e.live.Store(false)
		if e.cancel != nil {
			e.cancel()
		}
	})
	return nil
}

func (e *ScriptedEngine) IsLive() bool {
	return e.live.Load()
}

func (e *ScriptedEngine) Events() <-chan []byte {
	return e.events
}

// ChunksDiscarded reports how many audio chunks arrived during playback.
func (e *ScriptedEngine) ChunksDiscarded() int64 {
	return e.chunksDiscarded.Load()
}

// run paces the script lines on one routine and marshals them on another,
// then closes the event channel once both are done.
func (e *ScriptedEngine) run() {
	defer close(e.events)

	lines := make(chan *speech.TranscriptLine)
	g, ctx := errgroup.WithContext(e.ctx)

	g.Go(func() error {
		defer close(lines)

		prevOffset := 0.0
		for i, line := range e.script {
			gap := time.Duration((line.OffsetSec - prevOffset) * float64(time.Second))
			if gap <= 0 {
				gap = defaultLineGap
			}
			if i == 0 && line.OffsetSec == 0 {
				gap = 0
			}
			prevOffset = line.OffsetSec

			if gap > 0 {
				timer := time.NewTimer(gap)
				select {
				case <-timer.C:
				case <-ctx.Done():
					timer.Stop()
					return ctx.Err()
				}
			}

			select {
			case lines <- line:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	g.Go(func() error {
		for line := range lines {
			payload, err := json.Marshal(&speech.CaptionEvent{
				Type:    speech.EventTypeCaption,
				Speaker: line.Speaker,
				Text:    line.Text,
			})
			if err != nil {
				e.logger.WithError(err).Errorln("failed to marshal caption event")
				continue
			}

			select {
			case e.events <- payload:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	err := g.Wait()
	e.live.Store(false)
	if err != nil && !errors.Is(err, context.Canceled) {
		e.logger.WithError(err).Warnln("scripted playback ended with error")
	} else {
		e.logger.Infoln("scripted playback finished")
	}
}
