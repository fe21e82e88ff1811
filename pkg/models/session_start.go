package models

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/clinicsim/clinicsim-server/pkg/config"
	"github.com/clinicsim/clinicsim-server/pkg/dbmodels"
	speechservice "github.com/clinicsim/clinicsim-server/pkg/services/speech"
	"github.com/clinicsim/clinicsim-server/pkg/speech"
	"github.com/clinicsim/clinicsim-server/pkg/speech/providers/azure"
	"github.com/clinicsim/clinicsim-server/pkg/speech/providers/google"
	"github.com/clinicsim/clinicsim-server/pkg/speech/providers/openai"
	"github.com/go-sql-driver/mysql"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

// StartSession builds the engine for one session and brings its bridge up.
// The patient's profile document is required; everything else degrades to a
// default. On success the caller owns the returned session and must hand it
// back through EndSession.
func (m *SessionModel) StartSession(ctx context.Context, params *StartSessionParams, sink speechservice.EventSink) (*ActiveSession, error) {
	if params.PatientId == "" {
		params.PatientId = m.app.SpeechService.DefaultPatientId
	}
	if params.Mode == "" {
		params.Mode = config.SessionModeConsultation
	}
	if params.Language == "" {
		params.Language = m.app.SpeechService.RecognitionLanguage
	}

	seed, err := m.documents.GetPatientFile(ctx, params.PatientId, config.PatientSeedFileName)
	if err != nil {
		if errors.Is(err, ErrDocumentNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPatientNotFound, params.PatientId)
		}
		return nil, err
	}

	log := m.logger.WithFields(logrus.Fields{
		"sessionId": params.SessionId,
		"patientId": params.PatientId,
	})

	opts := &speechservice.EngineOptions{
		SessionId:      params.SessionId,
		PatientId:      params.PatientId,
		Language:       params.Language,
		SeedContext:    string(seed.Raw),
		QuestionSource: m.loadQuestionPool(ctx, params.PatientId, log),
		Script:         m.loadScript(ctx, params.PatientId, log),
		Logger:         log,
	}

	as := &ActiveSession{
		params:  params,
		started: time.Now(),
	}

	if params.Mode == config.SessionModeConsultation {
		k, err := m.selectSpeechServiceKey()
		if err != nil {
			return nil, err
		}

		opts.Recognizer = azure.NewProvider(k, log)
		opts.Advisor = m.buildAdvisor(ctx, log)

		if err := m.rs.SpeechKeyAddConnection(k.Id); err != nil {
			log.WithError(err).Warnln("could not record speech key connection")
		}
		as.keyId = k.Id
	}

	engine, err := speechservice.NewEngine(params.Mode, opts)
	if err != nil {
		m.releaseSpeechKey(as, log)
		return nil, err
	}

	as.Bridge = speechservice.NewSessionBridge(params.SessionId, params.PatientId, engine, sink, m.logger)
	if err := as.Bridge.Start(ctx); err != nil {
		m.releaseSpeechKey(as, log)
		return nil, err
	}

	if m.rs != nil {
		if err := m.rs.SessionUsageStarted(params.PatientId, params.SessionId); err != nil {
			log.WithError(err).Warnln("could not record session usage start")
		}
	}
	m.recordSessionStart(as, log)

	log.Infoln("session started in mode:", params.Mode)
	return as, nil
}

// loadQuestionPool reads the patient's question pool document. A missing or
// unusable document falls back to the built-in pool; the stored document is
// never modified by a session.
func (m *SessionModel) loadQuestionPool(ctx context.Context, patientId string, log *logrus.Entry) []*speech.PoolQuestion {
	doc, err := m.documents.GetPatientFile(ctx, patientId, config.QuestionPoolFileName)
	if err != nil {
		return speech.DefaultQuestionPool()
	}

	pool, err := speech.ParseQuestionPool(doc.Raw)
	if err != nil || len(pool) == 0 {
		log.WithError(err).Warnln("unusable question pool document, using the default pool")
		return speech.DefaultQuestionPool()
	}

	return pool
}

// loadScript reads the patient's scenario script. Sessions without one play
// the engine's built-in script.
func (m *SessionModel) loadScript(ctx context.Context, patientId string, log *logrus.Entry) []*speech.TranscriptLine {
	doc, err := m.documents.GetPatientFile(ctx, patientId, config.DefaultScriptFileName)
	if err != nil {
		return nil
	}

	var lines []*speech.TranscriptLine
	if err := json.Unmarshal(doc.Raw, &lines); err != nil {
		log.WithError(err).Warnln("unusable scenario script document, using the default script")
		return nil
	}

	return lines
}

// selectSpeechServiceKey picks the configured subscription key with the most
// connection headroom left.
func (m *SessionModel) selectSpeechServiceKey() (*config.AzureSubscriptionKey, error) {
	sub := m.app.SpeechService.AzureSubscriptionKeys
	if len(sub) == 0 {
		return nil, errors.New("no speech service key configured")
	}

	var keys []config.AzureSubscriptionKey
	for _, k := range sub {
		conns, err := m.rs.SpeechKeyGetConnections(k.Id)
		if err != nil {
			continue
		}

		var count int
		if conns != "" {
			count, err = strconv.Atoi(conns)
			if err != nil {
				continue
			}
		}

		k.MaxConnection = k.MaxConnection - int64(count)
		if k.MaxConnection > 0 {
			keys = append(keys, k)
		}
	}

	if len(keys) == 0 {
		return nil, errors.New("all speech service keys are at capacity")
	}

	sort.Slice(keys, func(i int, j int) bool {
		return keys[i].MaxConnection > keys[j].MaxConnection
	})

	return &keys[0], nil
}

// buildAdvisor constructs the follow-up question advisor. Advice is an
// optional layer, so any construction problem only logs and disables it.
func (m *SessionModel) buildAdvisor(ctx context.Context, log *logrus.Entry) speech.Advisor {
	conf := m.app.SpeechService.Advisor
	if conf == nil {
		return nil
	}

	switch conf.Provider {
	case config.AdvisorProviderOpenAI:
		advisor, err := openai.NewAdvisor(conf, log)
		if err != nil {
			log.WithError(err).Warnln("advisor disabled")
			return nil
		}
		return advisor
	case config.AdvisorProviderGoogle:
		advisor, err := google.NewAdvisor(ctx, conf, log)
		if err != nil {
			log.WithError(err).Warnln("advisor disabled")
			return nil
		}
		return advisor
	}

	log.Warnf("unknown advisor provider: %s", conf.Provider)
	return nil
}

func (m *SessionModel) releaseSpeechKey(as *ActiveSession, log *logrus.Entry) {
	if as.keyId == "" {
		return
	}

	if err := m.rs.SpeechKeyReleaseConnection(as.keyId); err != nil {
		log.WithError(err).Warnln("could not release speech key connection")
	}
	as.keyId = ""
}

func (m *SessionModel) recordSessionStart(as *ActiveSession, log *logrus.Entry) {
	if m.ds != nil {
		_, err := m.ds.InsertSessionHistory(&dbmodels.SessionHistory{
			SessionId: as.params.SessionId,
			PatientId: as.params.PatientId,
			Mode:      as.params.Mode,
			Started:   as.started,
		})
		if err != nil {
			var mysqlErr *mysql.MySQLError
			if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 { // 1062 is the error number for duplicate entry
				log.Warnf("session %s already recorded, skipping", as.params.SessionId)
			} else {
				log.WithError(err).Errorln("failed to insert session history")
			}
		}
	}

	if m.natsService != nil {
		err := m.natsService.PublishSessionStarted(as.params.SessionId, as.params.PatientId, as.params.Mode)
		if err != nil {
			log.WithError(err).Warnln("failed to publish session started event")
		}
	}
}
