package helpers

import (
	"github.com/clinicsim/clinicsim-server/pkg/config"
	"github.com/sirupsen/logrus"
)

func HandleCloseConnections() error {
	appCnf := config.GetConfig()
	if appCnf == nil {
		return nil
	}

	// handle to close DB connection
	if appCnf.DB != nil {
		db, err := appCnf.DB.DB()
		if err == nil {
			_ = db.Close()
		}
	}

	// close redis
	if appCnf.RDS != nil {
		_ = appCnf.RDS.Close()
	}

	// close nats
	if appCnf.NatsConn != nil && !appCnf.NatsConn.IsClosed() {
		appCnf.NatsConn.Close()
	}

	// close logger
	logrus.Exit(0)

	return nil
}
