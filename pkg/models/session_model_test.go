package models

import (
	"context"
	"testing"

	"github.com/clinicsim/clinicsim-server/pkg/config"
	"github.com/clinicsim/clinicsim-server/pkg/services/blobstore"
	"github.com/clinicsim/clinicsim-server/pkg/speech"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionTestModel(t *testing.T) *SessionModel {
	t.Helper()

	app := &config.AppConfig{}
	app.BlobStore.PatientRootPrefix = config.DefaultPatientRootPrefix
	app.BlobStore.SessionDataPrefix = config.DefaultSessionDataPrefix
	app.SpeechService.DefaultPatientId = config.DefaultPatientId
	app.SpeechService.RecognitionLanguage = config.DefaultRecognitionLanguage

	store := blobstore.NewMemoryBlobStore()
	documents := NewDocumentModel(app, store, logrus.New())
	return NewSessionModel(app, nil, nil, nil, documents, logrus.New())
}

func TestSessionQuestionPoolSource(t *testing.T) {
	ctx := context.Background()
	m := newSessionTestModel(t)

	// without a document the built-in pool applies
	pool := m.loadQuestionPool(ctx, "P0001", m.logger)
	assert.Len(t, pool, len(speech.DefaultQuestionPool()))

	_, err := m.documents.SavePatientFile(ctx, "P0001", config.QuestionPoolFileName, []byte("not json"))
	require.NoError(t, err)
	pool = m.loadQuestionPool(ctx, "P0001", m.logger)
	assert.Len(t, pool, len(speech.DefaultQuestionPool()))

	custom := []byte(`[{"question":"Any fevers?","category":"associated_symptoms"}]`)
	_, err = m.documents.SavePatientFile(ctx, "P0001", config.QuestionPoolFileName, custom)
	require.NoError(t, err)

	pool = m.loadQuestionPool(ctx, "P0001", m.logger)
	require.Len(t, pool, 1)
	assert.Equal(t, "Any fevers?", pool[0].Question)
	assert.Equal(t, "associated_symptoms", pool[0].Category)
}

func TestSessionScriptSource(t *testing.T) {
	ctx := context.Background()
	m := newSessionTestModel(t)

	assert.Nil(t, m.loadScript(ctx, "P0001", m.logger))

	script := []byte(`[{"speaker":"doctor","text":"hello","offset_sec":0},{"speaker":"patient","text":"hi","offset_sec":2.5}]`)
	_, err := m.documents.SavePatientFile(ctx, "P0001", config.DefaultScriptFileName, script)
	require.NoError(t, err)

	lines := m.loadScript(ctx, "P0001", m.logger)
	require.Len(t, lines, 2)
	assert.Equal(t, "doctor", lines[0].Speaker)
	assert.Equal(t, 2.5, lines[1].OffsetSec)

	_, err = m.documents.SavePatientFile(ctx, "P0001", config.DefaultScriptFileName, []byte("{broken"))
	require.NoError(t, err)
	assert.Nil(t, m.loadScript(ctx, "P0001", m.logger))
}

func TestSaveSessionFileUsesSessionPrefix(t *testing.T) {
	ctx := context.Background()
	m := newSessionTestModel(t)

	path, err := m.documents.SaveSessionFile(ctx, "P0001", config.TranscriptFileName, []byte("[]"))
	require.NoError(t, err)
	assert.Equal(t, "patient_data/P0001/transcript.json", path)
}

func TestFetchPastSessionsWithoutDatabase(t *testing.T) {
	m := newSessionTestModel(t)

	_, err := m.FetchPastSessions(&FetchPastSessionsReq{})
	assert.Error(t, err)
}
