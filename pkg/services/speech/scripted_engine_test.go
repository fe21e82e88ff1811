package speechservice

import (
	"context"
	"testing"
	"time"

	"github.com/clinicsim/clinicsim-server/pkg/speech"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastScript() []*speech.TranscriptLine {
	return []*speech.TranscriptLine{
		{Speaker: "doctor", Text: "what brings you in", OffsetSec: 0},
		{Speaker: "patient", Text: "my chest hurts", OffsetSec: 0.01},
		{Speaker: "doctor", Text: "when did it start", OffsetSec: 0.02},
	}
}

func decodeCaptions(t *testing.T, payloads [][]byte) []*speech.CaptionEvent {
	t.Helper()

	var events []*speech.CaptionEvent
	for _, p := range payloads {
		ev := new(speech.CaptionEvent)
		require.NoError(t, json.Unmarshal(p, ev))
		events = append(events, ev)
	}
	return events
}

func TestScriptedEngineReplaysScript(t *testing.T) {
	opts := testEngineOptions(nil, nil)
	opts.Script = fastScript()

	engine, err := NewScriptedEngine(opts)
	require.NoError(t, err)

	require.NoError(t, engine.Start(context.Background()))
	assert.True(t, engine.IsLive())

	events := decodeCaptions(t, drainEvents(t, engine.Events()))
	require.Len(t, events, 3)

	assert.Equal(t, speech.EventTypeCaption, events[0].Type)
	assert.Equal(t, "doctor", events[0].Speaker)
	assert.Equal(t, "what brings you in", events[0].Text)
	assert.Equal(t, "my chest hurts", events[1].Text)
	assert.Equal(t, "when did it start", events[2].Text)

	assert.False(t, engine.IsLive())
}

func TestScriptedEngineCountsDiscardedChunks(t *testing.T) {
	opts := testEngineOptions(nil, nil)
	opts.Script = fastScript()

	engine, err := NewScriptedEngine(opts)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		n, err := engine.Write([]byte{0x00, 0x01})
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	}
	assert.Equal(t, int64(3), engine.ChunksDiscarded())
}

func TestScriptedEngineCloseStopsPlayback(t *testing.T) {
	opts := testEngineOptions(nil, nil)
	opts.Script = []*speech.TranscriptLine{
		{Speaker: "doctor", Text: "hello", OffsetSec: 0},
		{Speaker: "patient", Text: "never emitted", OffsetSec: 60},
	}

	engine, err := NewScriptedEngine(opts)
	require.NoError(t, err)
	require.NoError(t, engine.Start(context.Background()))

	select {
	case _, ok := <-engine.Events():
		require.True(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the first caption")
	}

	require.NoError(t, engine.Close())
	require.NoError(t, engine.Close())

	// the second line is still a minute out, so the channel closing now
	// proves playback was interrupted
	remaining := drainEvents(t, engine.Events())
	assert.Empty(t, remaining)
	assert.False(t, engine.IsLive())
}

func TestScriptedEngineFinishEndsPlayback(t *testing.T) {
	opts := testEngineOptions(nil, nil)
	opts.Script = []*speech.TranscriptLine{
		{Speaker: "doctor", Text: "hello", OffsetSec: 30},
	}

	engine, err := NewScriptedEngine(opts)
	require.NoError(t, err)
	require.NoError(t, engine.Start(context.Background()))

	engine.Finish()
	assert.False(t, engine.IsLive())
	assert.Empty(t, drainEvents(t, engine.Events()))
}

func TestScriptedEngineDefaultScript(t *testing.T) {
	engine, err := NewScriptedEngine(testEngineOptions(nil, nil))
	require.NoError(t, err)
	assert.Len(t, engine.script, len(defaultScript))

	opts := testEngineOptions(nil, nil)
	opts.Script = fastScript()
	engine, err = NewScriptedEngine(opts)
	require.NoError(t, err)
	assert.Len(t, engine.script, 3)
}
