package models

import (
	"context"

	"github.com/clinicsim/clinicsim-server/pkg/config"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

// EndSession stops the bridge and settles everything the session touched:
// the transcript document, usage counters, the history row and the lifecycle
// event. Failures are logged and do not stop the rest of the teardown.
func (m *SessionModel) EndSession(ctx context.Context, as *ActiveSession) {
	if as == nil || as.Bridge == nil {
		return
	}

	log := m.logger.WithFields(logrus.Fields{
		"sessionId": as.params.SessionId,
		"patientId": as.params.PatientId,
	})

	as.Bridge.Stop()

	transcriptPath := m.saveTranscript(ctx, as, log)

	if m.rs != nil {
		if usage, err := m.rs.SessionUsageEnded(as.params.PatientId, as.params.SessionId); err != nil {
			log.WithError(err).Warnln("could not settle session usage")
		} else if usage > 0 {
			log.Infoln("session usage in seconds:", usage)
		}
	}
	m.releaseSpeechKey(as, log)

	if m.ds != nil {
		_, err := m.ds.CloseSessionHistory(as.params.SessionId, as.Bridge.EventCount(), transcriptPath)
		if err != nil {
			log.WithError(err).Errorln("failed to close session history")
		}
	}

	if m.natsService != nil {
		err := m.natsService.PublishSessionEnded(as.params.SessionId, as.params.PatientId, as.params.Mode, as.Bridge.EventCount(), transcriptPath)
		if err != nil {
			log.WithError(err).Warnln("failed to publish session ended event")
		}
	}

	log.Infoln("session ended")
}

// saveTranscript persists the finalized lines. Each session overwrites the
// patient's previous transcript document.
func (m *SessionModel) saveTranscript(ctx context.Context, as *ActiveSession, log *logrus.Entry) string {
	lines := as.Bridge.Transcript()
	if len(lines) == 0 {
		return ""
	}

	content, err := json.Marshal(lines)
	if err != nil {
		log.WithError(err).Errorln("failed to marshal transcript")
		return ""
	}

	path, err := m.documents.SaveSessionFile(ctx, as.params.PatientId, config.TranscriptFileName, content)
	if err != nil {
		log.WithError(err).Errorln("failed to save transcript")
		return ""
	}

	return path
}
