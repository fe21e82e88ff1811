package speechservice

import (
	"fmt"

	"github.com/clinicsim/clinicsim-server/pkg/config"
	"github.com/clinicsim/clinicsim-server/pkg/speech"
	"github.com/sirupsen/logrus"
)

// EngineOptions carries everything a session engine needs at construction.
// The session model assembles it; engines never reach into global state.
type EngineOptions struct {
	SessionId   string
	PatientId   string
	Language    string
	SeedContext string

	// Recognizer turns audio into recognition results; required for the
	// consultation engine.
	Recognizer speech.Recognizer

	// Advisor is optional; nil disables follow-up question events.
	Advisor speech.Advisor

	// QuestionSource is the read-only list the per-session pool is copied
	// from.
	QuestionSource []*speech.PoolQuestion

	// Script holds the lines for scripted playback.
	Script []*speech.TranscriptLine

	Logger *logrus.Entry
}

// NewEngine selects the engine implementation for a session mode.
func NewEngine(mode string, opts *EngineOptions) (speech.Engine, error) {
	switch mode {
	case config.SessionModeConsultation:
		return NewConsultEngine(opts)
	case config.SessionModeScriptedPlayback:
		return NewScriptedEngine(opts)
	}
	return nil, fmt.Errorf("unsupported session mode: %s", mode)
}
