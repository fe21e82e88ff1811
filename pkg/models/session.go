package models

import (
	"time"

	"github.com/clinicsim/clinicsim-server/pkg/config"
	dbservice "github.com/clinicsim/clinicsim-server/pkg/services/db"
	natsservice "github.com/clinicsim/clinicsim-server/pkg/services/nats"
	redisservice "github.com/clinicsim/clinicsim-server/pkg/services/redis"
	speechservice "github.com/clinicsim/clinicsim-server/pkg/services/speech"
	"github.com/sirupsen/logrus"
)

// SessionModel assembles and tears down simulation sessions. It picks the
// speech provider key, builds the engine with its advisor and question pool,
// and on shutdown persists the transcript and usage bookkeeping.
type SessionModel struct {
	app         *config.AppConfig
	ds          *dbservice.DatabaseService
	rs          *redisservice.RedisService
	natsService *natsservice.NatsService
	documents   *DocumentModel
	logger      *logrus.Entry
}

func NewSessionModel(app *config.AppConfig, ds *dbservice.DatabaseService, rs *redisservice.RedisService, natsService *natsservice.NatsService, documents *DocumentModel, logger *logrus.Logger) *SessionModel {
	if app == nil {
		app = config.GetConfig()
	}

	return &SessionModel{
		app:         app,
		ds:          ds,
		rs:          rs,
		natsService: natsService,
		documents:   documents,
		logger:      logger.WithField("model", "session"),
	}
}

// StartSessionParams carries what the transcriber socket learned from the
// client's start frame.
type StartSessionParams struct {
	SessionId string
	PatientId string
	Mode      string
	Language  string
}

// ActiveSession is a running session as handed to the connection that owns
// it. The bridge is the only part the connection drives directly; the rest
// is bookkeeping for EndSession.
type ActiveSession struct {
	Bridge *speechservice.SessionBridge

	params  *StartSessionParams
	keyId   string
	started time.Time
}

func (a *ActiveSession) PatientId() string {
	return a.params.PatientId
}

func (a *ActiveSession) SessionId() string {
	return a.params.SessionId
}
