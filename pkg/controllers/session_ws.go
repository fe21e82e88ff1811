package controllers

import (
	"context"
	"fmt"
	"sync"

	"github.com/clinicsim/clinicsim-server/pkg/config"
	"github.com/clinicsim/clinicsim-server/pkg/models"
	"github.com/clinicsim/clinicsim-server/pkg/speech"
	"github.com/goccy/go-json"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SessionController serves the duplex session sockets. Control frames arrive
// as JSON text messages, audio as binary messages, and engine events flow
// back as JSON text messages on the same connection.
type SessionController struct {
	AppConfig    *config.AppConfig
	SessionModel *models.SessionModel
	logger       *logrus.Entry
}

func NewSessionController(config *config.AppConfig, sm *models.SessionModel, logger *logrus.Logger) *SessionController {
	return &SessionController{
		AppConfig:    config,
		SessionModel: sm,
		logger:       logger.WithField("controller", "session"),
	}
}

// wsConn is the part of the websocket connection the session loop uses.
type wsConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
}

// wsWriter serializes writes to one connection. The event pump and the
// control loop both write through it.
type wsWriter struct {
	lock sync.Mutex
	conn wsConn
}

func (w *wsWriter) WriteEvent(payload []byte) error {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.conn.WriteMessage(websocket.TextMessage, payload)
}

type sessionControlFrame struct {
	Status    *bool  `json:"status"`
	Type      string `json:"type"`
	PatientId string `json:"patient_id"`
	Language  string `json:"language"`
}

// HandleTranscriberSocket serves the live consultation socket.
func (sc *SessionController) HandleTranscriberSocket() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		sc.serveSession(conn, config.SessionModeConsultation)
	})
}

// HandleSimulationAudioSocket serves the scripted playback socket. The same
// protocol applies; audio chunks are accepted and discarded so clients can
// stream against it unchanged.
func (sc *SessionController) HandleSimulationAudioSocket() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		sc.serveSession(conn, config.SessionModeScriptedPlayback)
	})
}

func (sc *SessionController) serveSession(conn wsConn, mode string) {
	writer := &wsWriter{conn: conn}
	log := sc.logger.WithField("mode", mode)
	log.Infoln("client connected")

	var active *models.ActiveSession
	defer func() {
		if active != nil {
			sc.SessionModel.EndSession(context.Background(), active)
		}
		log.Infoln("client disconnected")
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		switch messageType {
		case websocket.TextMessage:
			active = sc.handleControlFrame(writer, active, mode, data, log)
		case websocket.BinaryMessage:
			if active != nil {
				active.Bridge.Feed(data)
			}
		}
	}
}

// handleControlFrame applies one JSON control frame and returns the session
// the connection owns afterwards. Malformed frames are logged and dropped;
// the connection keeps running.
func (sc *SessionController) handleControlFrame(writer *wsWriter, active *models.ActiveSession, mode string, data []byte, log *logrus.Entry) *models.ActiveSession {
	frame := new(sessionControlFrame)
	if err := json.Unmarshal(data, frame); err != nil {
		log.Errorln("received invalid control frame")
		return active
	}

	switch {
	case frame.Status != nil && *frame.Status:
		if active != nil {
			// graceful stop; pending recognition keeps flowing until the
			// engine drains
			active.Bridge.Finish()
		} else {
			log.Warnln("stop requested, but no session is running")
			sc.sendSystemMessage(writer, "no active session to stop", log)
		}
	case frame.Type == "start":
		return sc.handleStart(writer, active, mode, frame, log)
	}

	return active
}

func (sc *SessionController) handleStart(writer *wsWriter, active *models.ActiveSession, mode string, frame *sessionControlFrame, log *logrus.Entry) *models.ActiveSession {
	if active != nil {
		if active.Bridge.IsLive() {
			log.Warnln("start requested while a session is already live")
			sc.sendSystemMessage(writer, "a session is already running", log)
			return active
		}
		// the previous session already wound down; settle it first
		sc.SessionModel.EndSession(context.Background(), active)
	}

	params := &models.StartSessionParams{
		SessionId: uuid.NewString(),
		PatientId: frame.PatientId,
		Mode:      mode,
		Language:  frame.Language,
	}

	as, err := sc.SessionModel.StartSession(context.Background(), params, writer)
	if err != nil {
		log.WithError(err).Errorln("could not start session")
		sc.sendSystemMessage(writer, fmt.Sprintf("could not start session: %s", err), log)
		return nil
	}

	sc.sendSystemMessage(writer, fmt.Sprintf("Transcriber initialized for %s", as.PatientId()), log)
	return as
}

func (sc *SessionController) sendSystemMessage(writer *wsWriter, message string, log *logrus.Entry) {
	payload, err := json.Marshal(&speech.SystemEvent{
		Type:    speech.EventTypeSystem,
		Message: message,
	})
	if err != nil {
		return
	}

	if err := writer.WriteEvent(payload); err != nil {
		log.WithError(err).Debugln("failed to write system message")
	}
}
