package controllers

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/clinicsim/clinicsim-server/pkg/config"
	"github.com/clinicsim/clinicsim-server/pkg/models"
	"github.com/clinicsim/clinicsim-server/pkg/services/blobstore"
	"github.com/goccy/go-json"
	"github.com/gofiber/contrib/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type socketFrame struct {
	messageType int
	data        []byte
}

// fakeSocket scripts the inbound side of a websocket connection and records
// every outbound frame.
type fakeSocket struct {
	incoming chan socketFrame

	lock sync.Mutex
	sent [][]byte
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{
		incoming: make(chan socketFrame, 16),
	}
}

func (s *fakeSocket) ReadMessage() (int, []byte, error) {
	frame, ok := <-s.incoming
	if !ok {
		return 0, nil, io.EOF
	}
	return frame.messageType, frame.data, nil
}

func (s *fakeSocket) WriteMessage(messageType int, data []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	cp := make([]byte, len(data))
	copy(cp, data)
	s.sent = append(s.sent, cp)
	return nil
}

func (s *fakeSocket) sendText(data string) {
	s.incoming <- socketFrame{messageType: websocket.TextMessage, data: []byte(data)}
}

func (s *fakeSocket) sendBinary(data []byte) {
	s.incoming <- socketFrame{messageType: websocket.BinaryMessage, data: data}
}

func (s *fakeSocket) sentCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.sent)
}

func (s *fakeSocket) sentFrames(t *testing.T) []map[string]interface{} {
	t.Helper()

	s.lock.Lock()
	defer s.lock.Unlock()

	frames := make([]map[string]interface{}, 0, len(s.sent))
	for _, payload := range s.sent {
		frame := make(map[string]interface{})
		require.NoError(t, json.Unmarshal(payload, &frame))
		frames = append(frames, frame)
	}
	return frames
}

func (s *fakeSocket) countSystemMessages(t *testing.T, message string) int {
	t.Helper()

	count := 0
	for _, f := range s.sentFrames(t) {
		if f["type"] == "system" && f["message"] == message {
			count++
		}
	}
	return count
}

func setupSessionController(t *testing.T) (*SessionController, *models.DocumentModel) {
	t.Helper()

	app := &config.AppConfig{}
	app.BlobStore.PatientRootPrefix = config.DefaultPatientRootPrefix
	app.BlobStore.SessionDataPrefix = config.DefaultSessionDataPrefix
	app.SpeechService.DefaultPatientId = config.DefaultPatientId
	app.SpeechService.RecognitionLanguage = config.DefaultRecognitionLanguage

	logger := logrus.New()
	store := blobstore.NewMemoryBlobStore()
	documents := models.NewDocumentModel(app, store, logger)

	ctx := context.Background()
	_, err := documents.SavePatientFile(ctx, "P0001", config.PatientSeedFileName, []byte(config.PatientSeedFileContent))
	require.NoError(t, err)

	script := `[{"speaker":"doctor","text":"What brings you in?","offset_sec":0.05},{"speaker":"patient","text":"Chest pain.","offset_sec":0.1}]`
	_, err = documents.SavePatientFile(ctx, "P0001", config.DefaultScriptFileName, []byte(script))
	require.NoError(t, err)

	sm := models.NewSessionModel(app, nil, nil, nil, documents, logger)
	return NewSessionController(app, sm, logger), documents
}

func serveFakeSession(sc *SessionController, sock *fakeSocket, mode string) chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		sc.serveSession(sock, mode)
	}()
	return done
}

func TestSessionSocketScriptedPlayback(t *testing.T) {
	sc, _ := setupSessionController(t)
	sock := newFakeSocket()
	done := serveFakeSession(sc, sock, config.SessionModeScriptedPlayback)

	sock.sendText(`{"type":"start","patient_id":"P0001"}`)

	require.Eventually(t, func() bool {
		return sock.sentCount() >= 3
	}, 3*time.Second, 10*time.Millisecond)

	close(sock.incoming)
	<-done

	frames := sock.sentFrames(t)
	assert.Equal(t, "system", frames[0]["type"])
	assert.Equal(t, "Transcriber initialized for P0001", frames[0]["message"])

	var captions []map[string]interface{}
	for _, f := range frames {
		if f["type"] == "caption" {
			captions = append(captions, f)
		}
	}
	require.Len(t, captions, 2)
	assert.Equal(t, "doctor", captions[0]["speaker"])
	assert.Equal(t, "What brings you in?", captions[0]["text"])
	assert.Equal(t, "patient", captions[1]["speaker"])
	assert.Equal(t, "Chest pain.", captions[1]["text"])
}

func TestSessionSocketProtocolEdges(t *testing.T) {
	sc, _ := setupSessionController(t)
	sock := newFakeSocket()
	done := serveFakeSession(sc, sock, config.SessionModeConsultation)

	// audio with no session running is dropped
	sock.sendBinary([]byte{0x01, 0x02})
	// a malformed control frame does not end the connection
	sock.sendText(`{not json`)
	sock.sendText(`{"status":true}`)

	require.Eventually(t, func() bool {
		return sock.sentCount() >= 1
	}, 3*time.Second, 10*time.Millisecond)

	close(sock.incoming)
	<-done

	frames := sock.sentFrames(t)
	require.Len(t, frames, 1)
	assert.Equal(t, "system", frames[0]["type"])
	assert.Equal(t, "no active session to stop", frames[0]["message"])
}

func TestSessionSocketStartUnknownPatient(t *testing.T) {
	sc, _ := setupSessionController(t)
	sock := newFakeSocket()
	done := serveFakeSession(sc, sock, config.SessionModeConsultation)

	sock.sendText(`{"type":"start","patient_id":"P0404"}`)

	require.Eventually(t, func() bool {
		return sock.sentCount() >= 1
	}, 3*time.Second, 10*time.Millisecond)

	close(sock.incoming)
	<-done

	frames := sock.sentFrames(t)
	require.Len(t, frames, 1)
	assert.Equal(t, "system", frames[0]["type"])
	assert.Contains(t, frames[0]["message"], "could not start session")
	assert.Contains(t, frames[0]["message"], "P0404")
}

func TestSessionSocketSecondStartWhileLive(t *testing.T) {
	sc, documents := setupSessionController(t)

	// a far-off second line keeps the session live for the whole test
	script := `[{"speaker":"doctor","text":"opening","offset_sec":0},{"speaker":"doctor","text":"later","offset_sec":60}]`
	_, err := documents.SavePatientFile(context.Background(), "P0001", config.DefaultScriptFileName, []byte(script))
	require.NoError(t, err)

	sock := newFakeSocket()
	done := serveFakeSession(sc, sock, config.SessionModeScriptedPlayback)

	// no patient_id in the frame, the configured default applies
	sock.sendText(`{"type":"start"}`)

	require.Eventually(t, func() bool {
		return sock.countSystemMessages(t, "Transcriber initialized for P0001") == 1
	}, 3*time.Second, 10*time.Millisecond)

	sock.sendText(`{"type":"start"}`)

	require.Eventually(t, func() bool {
		return sock.countSystemMessages(t, "a session is already running") == 1
	}, 3*time.Second, 10*time.Millisecond)

	// a malformed frame and an audio chunk are absorbed without ending the
	// session, so a third start is still rejected
	sock.sendText(`{"type":`)
	sock.sendBinary([]byte{0x01, 0x02, 0x03})
	sock.sendText(`{"type":"start"}`)

	require.Eventually(t, func() bool {
		return sock.countSystemMessages(t, "a session is already running") == 2
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, sock.countSystemMessages(t, "Transcriber initialized for P0001"))

	close(sock.incoming)
	<-done
}

func TestSessionSocketRestartAfterStop(t *testing.T) {
	sc, documents := setupSessionController(t)

	script := `[{"speaker":"doctor","text":"opening","offset_sec":0},{"speaker":"doctor","text":"later","offset_sec":60}]`
	_, err := documents.SavePatientFile(context.Background(), "P0001", config.DefaultScriptFileName, []byte(script))
	require.NoError(t, err)

	sock := newFakeSocket()
	done := serveFakeSession(sc, sock, config.SessionModeScriptedPlayback)

	sock.sendText(`{"type":"start"}`)
	require.Eventually(t, func() bool {
		return sock.countSystemMessages(t, "Transcriber initialized for P0001") == 1
	}, 3*time.Second, 10*time.Millisecond)

	sock.sendText(`{"status":true}`)

	// once the stopped engine has wound down, a new start frame is accepted
	// on the same connection
	require.Eventually(t, func() bool {
		sock.sendText(`{"type":"start"}`)
		return sock.countSystemMessages(t, "Transcriber initialized for P0001") >= 2
	}, 3*time.Second, 50*time.Millisecond)

	close(sock.incoming)
	<-done
}
