package natsservice

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
)

const SessionEventsStream = Prefix + "session-stream"

const (
	SessionEventStarted = "started"
	SessionEventEnded   = "ended"
)

// SessionEvent is the payload published for session lifecycle changes.
// External consumers, dashboards or archival jobs, subscribe to the
// session events subject to follow simulation activity.
type SessionEvent struct {
	Id             string `json:"id"`
	Event          string `json:"event"`
	SessionId      string `json:"session_id"`
	PatientId      string `json:"patient_id"`
	Mode           string `json:"mode"`
	SentAt         int64  `json:"sent_at"`
	EventTotal     int64  `json:"event_total,omitempty"`
	TranscriptPath string `json:"transcript_path,omitempty"`
}

// CreateSessionEventsStream will create a single stream for all session
// lifecycle events.
func (s *NatsService) CreateSessionEventsStream() error {
	_, err := s.js.CreateOrUpdateStream(s.ctx, jetstream.StreamConfig{
		Name:     SessionEventsStream,
		Replicas: s.app.NatsInfo.NumReplicas,
		Subjects: []string{
			fmt.Sprintf("%s.>", s.app.NatsInfo.Subjects.SessionEvents),
		},
	})
	if err != nil {
		return err
	}

	return nil
}

func (s *NatsService) PublishSessionStarted(sessionId, patientId, mode string) error {
	return s.publishSessionEvent(&SessionEvent{
		Id:        uuid.NewString(),
		Event:     SessionEventStarted,
		SessionId: sessionId,
		PatientId: patientId,
		Mode:      mode,
		SentAt:    time.Now().UnixMilli(),
	})
}

func (s *NatsService) PublishSessionEnded(sessionId, patientId, mode string, eventTotal int64, transcriptPath string) error {
	return s.publishSessionEvent(&SessionEvent{
		Id:             uuid.NewString(),
		Event:          SessionEventEnded,
		SessionId:      sessionId,
		PatientId:      patientId,
		Mode:           mode,
		SentAt:         time.Now().UnixMilli(),
		EventTotal:     eventTotal,
		TranscriptPath: transcriptPath,
	})
}

func (s *NatsService) publishSessionEvent(ev *SessionEvent) error {
	message, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	sub := fmt.Sprintf("%s.%s", s.app.NatsInfo.Subjects.SessionEvents, ev.Event)
	_, err = s.js.Publish(s.ctx, sub, message)
	if err != nil {
		return err
	}

	return nil
}
