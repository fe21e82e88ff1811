package factory

import (
	"github.com/clinicsim/clinicsim-server/pkg/config"
	"github.com/clinicsim/clinicsim-server/pkg/controllers"
	dbservice "github.com/clinicsim/clinicsim-server/pkg/services/db"
	natsservice "github.com/clinicsim/clinicsim-server/pkg/services/nats"
	"github.com/sirupsen/logrus"
)

// ApplicationControllers holds all the controllers.
type ApplicationControllers struct {
	DocumentController       *controllers.DocumentController
	SessionController        *controllers.SessionController
	SessionHistoryController *controllers.SessionHistoryController
	HealthCheckController    *controllers.HealthCheckController
}

// Application is the root struct holding all dependencies.
type Application struct {
	Controllers *ApplicationControllers
	AppConfig   *config.AppConfig

	natsService *natsservice.NatsService
}

// Boot makes sure the infrastructure the handlers rely on exists before the
// server starts listening.
func (a *Application) Boot() {
	if a.natsService != nil {
		err := a.natsService.CreateSessionEventsStream()
		if err != nil {
			a.AppConfig.Logger.WithError(err).Fatalln("failed to create session events stream")
		}
	}
}

// provideDatabaseService returns a nil service when no database was
// configured. Session history then stays disabled.
func provideDatabaseService(appConfig *config.AppConfig, logger *logrus.Logger) *dbservice.DatabaseService {
	if appConfig.DB == nil {
		return nil
	}
	return dbservice.New(appConfig.DB, logger)
}

// provideNatsService returns a nil service when no NATS server was
// configured. No lifecycle events are published then.
func provideNatsService(appConfig *config.AppConfig, logger *logrus.Logger) *natsservice.NatsService {
	if appConfig.JetStream == nil {
		return nil
	}
	return natsservice.New(appConfig, logger)
}
