package helpers

import (
	"context"
	"errors"
	"os"

	"github.com/clinicsim/clinicsim-server/pkg/config"
	"github.com/clinicsim/clinicsim-server/pkg/factory"
	"gopkg.in/yaml.v3"
)

// ReadYamlConfigFile parses the server configuration from disk.
func ReadYamlConfigFile(cnfFile string) (*config.AppConfig, error) {
	yamlFile, err := os.ReadFile(cnfFile)
	if err != nil {
		return nil, err
	}

	appCnf := new(config.AppConfig)
	err = yaml.Unmarshal(yamlFile, appCnf)
	if err != nil {
		return nil, err
	}

	// get current working dir
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	// set the root path
	appCnf.RootWorkingDir = wd

	return appCnf, nil
}

// PrepareServer connects the backing services. Redis is required; the
// database and NATS are optional and the related features stay disabled
// when they are not configured.
func PrepareServer(appCnf *config.AppConfig) error {
	ctx := context.Background()

	if appCnf.RedisInfo.Host == "" && appCnf.RedisInfo.SentinelAddresses == nil {
		return errors.New("redis configuration is required")
	}
	err := factory.NewRedisConnection(ctx, appCnf)
	if err != nil {
		return err
	}

	if appCnf.DatabaseInfo.Host != "" {
		err = factory.NewDatabaseConnection(ctx, appCnf)
		if err != nil {
			return err
		}
	}

	if len(appCnf.NatsInfo.NatsUrls) > 0 {
		err = factory.NewNatsConnection(appCnf)
		if err != nil {
			return err
		}
	}

	return nil
}
