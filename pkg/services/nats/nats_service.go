package natsservice

import (
	"context"

	"github.com/clinicsim/clinicsim-server/pkg/config"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"
)

const (
	Prefix = "csim-"
)

type NatsService struct {
	ctx    context.Context
	app    *config.AppConfig
	nc     *nats.Conn
	js     jetstream.JetStream
	logger *logrus.Entry
}

func New(app *config.AppConfig, logger *logrus.Logger) *NatsService {
	if app == nil {
		app = config.GetConfig()
	}
	if logger == nil {
		logger = app.Logger
	}

	return &NatsService{
		ctx:    context.Background(),
		app:    app,
		nc:     app.NatsConn,
		js:     app.JetStream,
		logger: logger.WithField("service", "nats"),
	}
}
