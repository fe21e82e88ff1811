package dbservice

import (
	"github.com/clinicsim/clinicsim-server/pkg/config"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type DatabaseService struct {
	db     *gorm.DB
	logger *logrus.Entry
}

func New(db *gorm.DB, logger *logrus.Logger) *DatabaseService {
	if logger == nil {
		logger = config.GetConfig().Logger
	}

	return &DatabaseService{
		db:     db,
		logger: logger.WithField("service", "database"),
	}
}
