//go:build wireinject
// +build wireinject

package factory

import (
	"github.com/clinicsim/clinicsim-server/pkg/config"
	"github.com/clinicsim/clinicsim-server/pkg/controllers"
	"github.com/clinicsim/clinicsim-server/pkg/models"
	"github.com/clinicsim/clinicsim-server/pkg/services/blobstore"
	"github.com/clinicsim/clinicsim-server/pkg/services/redis"
	"github.com/google/wire"
)

// build the dependency set for services
var serviceSet = wire.NewSet(
	provideDatabaseService,
	redisservice.New,
	provideNatsService,
	blobstore.New,
)

// build the dependency set for models
var modelSet = wire.NewSet(
	models.NewDocumentModel,
	models.NewPatientModel,
	models.NewSessionModel,
)

// build the dependency set for controllers
var controllerSet = wire.NewSet(
	controllers.NewDocumentController,
	controllers.NewSessionController,
	controllers.NewSessionHistoryController,
	controllers.NewHealthCheckController,
)

// NewAppFactory is the injector function that wire will implement.
func NewAppFactory(appConfig *config.AppConfig) (*Application, error) {
	wire.Build(
		serviceSet,
		modelSet,
		controllerSet,
		// Provide the whole AppConfig, and also specific fields needed by constructors.
		wire.FieldsOf(new(*config.AppConfig), "RDS", "Logger"),

		wire.Struct(new(ApplicationControllers), "*"),
		wire.Struct(new(Application), "*"),
	)
	return nil, nil // This return value is ignored.
}
