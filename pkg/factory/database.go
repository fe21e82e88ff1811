package factory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clinicsim/clinicsim-server/pkg/config"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"
)

// NewDatabaseConnection opens the MySQL connection for session history,
// wires up read replicas when configured and stores the verified handle on
// the config.
func NewDatabaseConnection(ctx context.Context, appCnf *config.AppConfig) error {
	info := appCnf.DatabaseInfo
	charset := "utf8mb4"
	loc := "UTC"

	if info.Charset != nil && *info.Charset != "" {
		charset = *info.Charset
	}
	if info.Loc != nil && *info.Loc != "" {
		loc = strings.ReplaceAll(*info.Loc, "/", "%2F")
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=%s", info.Username, info.Password, info.Host, info.Port, info.DBName, charset, loc)

	loggerCnf := logger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  true,
	}
	if appCnf.Client.Debug {
		loggerCnf.LogLevel = logger.Info
	}

	cnf := &gorm.Config{
		Logger: logger.New(appCnf.Logger, loggerCnf),
	}

	db, err := gorm.Open(mysql.New(mysql.Config{DSN: dsn}), cnf)
	if err != nil {
		return err
	}

	if len(info.Replicas) > 0 {
		appCnf.Logger.Infof("found %d read replicas, configuring dbresolver", len(info.Replicas))
		var replicaDialectors []gorm.Dialector

		for _, r := range info.Replicas {
			// replicas inherit the primary's credentials unless overridden
			if r.Username == "" {
				r.Username = info.Username
			}
			if r.Password == "" {
				r.Password = info.Password
			}
			if r.Port == 0 {
				r.Port = info.Port
			}

			replicaDsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=%s", r.Username, r.Password, r.Host, r.Port, info.DBName, charset, loc)
			replicaDialectors = append(replicaDialectors, mysql.Open(replicaDsn))
		}

		resolverCnf := dbresolver.Config{
			Replicas: replicaDialectors,
			Policy:   dbresolver.RandomPolicy{},
		}
		if appCnf.Client.Debug {
			resolverCnf.TraceResolverMode = true
		}

		err = db.Use(dbresolver.Register(resolverCnf))
		if err != nil {
			return err
		}
	}

	d, err := db.DB()
	if err != nil {
		return err
	}
	err = d.PingContext(ctx)
	if err != nil {
		return err
	}

	connMaxLifetime := time.Minute * 4
	if info.ConnMaxLifetime != nil && *info.ConnMaxLifetime > 0 {
		connMaxLifetime = *info.ConnMaxLifetime
	}
	maxOpenConns := 10
	if info.MaxOpenConns != nil && *info.MaxOpenConns > 0 {
		maxOpenConns = *info.MaxOpenConns
	}

	// https://github.com/go-sql-driver/mysql?tab=readme-ov-file#important-settings
	d.SetConnMaxLifetime(connMaxLifetime)
	d.SetMaxOpenConns(maxOpenConns)
	d.SetMaxIdleConns(maxOpenConns)

	appCnf.DB = db
	return nil
}
