package config

import (
	"time"

	"github.com/clinicsim/clinicsim-server/pkg/logging"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var appCnf *AppConfig
var dbTablePrefix string

type AppConfig struct {
	RDS       *redis.Client
	DB        *gorm.DB
	Logger    *logrus.Logger
	NatsConn  *nats.Conn
	JetStream jetstream.JetStream

	RootWorkingDir string

	Client        ClientInfo          `yaml:"client"`
	LogSettings   logging.LogSettings `yaml:"log_settings"`
	RedisInfo     RedisInfo           `yaml:"redis_info"`
	DatabaseInfo  DatabaseInfo        `yaml:"database_info"`
	NatsInfo      NatsInfo            `yaml:"nats_info"`
	BlobStore     BlobStoreInfo       `yaml:"blob_store"`
	SpeechService SpeechServiceInfo   `yaml:"speech_service"`
}

type ClientInfo struct {
	Port           int            `yaml:"port"`
	Debug          bool           `yaml:"debug"`
	Path           string         `yaml:"path"`
	ProxyHeader    string         `yaml:"proxy_header"`
	PrometheusConf PrometheusConf `yaml:"prometheus"`
}

type PrometheusConf struct {
	Enable      bool   `yaml:"enable"`
	MetricsPath string `yaml:"metrics_path"`
}

// BlobStoreInfo selects and parameterizes the blob storage driver.
// A patient "folder" only exists as keys under PatientRootPrefix.
type BlobStoreInfo struct {
	DriverName        string `yaml:"driver_name"`
	Bucket            string `yaml:"bucket"`
	PatientRootPrefix string `yaml:"patient_root_prefix"`
	SessionDataPrefix string `yaml:"session_data_prefix"`
}

type SpeechServiceInfo struct {
	DefaultPatientId      string                 `yaml:"default_patient_id"`
	RecognitionLanguage   string                 `yaml:"recognition_language"`
	AzureSubscriptionKeys []AzureSubscriptionKey `yaml:"azure_subscription_keys"`
	Advisor               *AdvisorInfo           `yaml:"advisor"`
}

type AzureSubscriptionKey struct {
	Id              string `yaml:"id"`
	SubscriptionKey string `yaml:"subscription_key"`
	ServiceRegion   string `yaml:"service_region"`
	MaxConnection   int64  `yaml:"max_connection"`
}

// AdvisorInfo configures the optional AI advisor that suggests
// follow-up questions from finalized utterances.
type AdvisorInfo struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	Endpoint string `yaml:"endpoint"`
}

type DatabaseInfo struct {
	DriverName      string          `yaml:"driver_name"`
	Host            string          `yaml:"host"`
	Port            int32           `yaml:"port"`
	Username        string          `yaml:"username"`
	Password        string          `yaml:"password"`
	DBName          string          `yaml:"db"`
	Prefix          string          `yaml:"prefix"`
	Charset         *string         `yaml:"charset"`
	Loc             *string         `yaml:"loc"`
	ConnMaxLifetime *time.Duration  `yaml:"conn_max_lifetime"`
	MaxOpenConns    *int            `yaml:"max_open_conns"`
	Replicas        []ReplicaDBInfo `yaml:"replicas"`
}

// ReplicaDBInfo holds connection details for a read replica database.
type ReplicaDBInfo struct {
	Host     string `yaml:"host"`
	Port     int32  `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type RedisInfo struct {
	Host              string   `yaml:"host"`
	Username          string   `yaml:"username"`
	Password          string   `yaml:"password"`
	DBName            int      `yaml:"db"`
	UseTLS            bool     `yaml:"use_tls"`
	MasterName        string   `yaml:"sentinel_master_name"`
	SentinelUsername  string   `yaml:"sentinel_username"`
	SentinelPassword  string   `yaml:"sentinel_password"`
	SentinelAddresses []string `yaml:"sentinel_addresses"`
}

type NatsInfo struct {
	NatsUrls    []string     `yaml:"nats_urls"`
	User        string       `yaml:"user"`
	Password    string       `yaml:"password"`
	Nkey        *string      `yaml:"nkey"`
	NumReplicas int          `yaml:"num_replicas"`
	Subjects    NatsSubjects `yaml:"subjects"`
}

type NatsSubjects struct {
	SessionEvents string `yaml:"session_events"`
}

// New validates the parsed config, fills defaults and stores it for global usage.
func New(a *AppConfig) (*AppConfig, error) {
	if a.Client.Path == "" {
		a.Client.Path = "./templates"
	}

	if a.BlobStore.DriverName == "" {
		a.BlobStore.DriverName = BlobDriverMemory
	}
	if a.BlobStore.Bucket == "" {
		a.BlobStore.Bucket = DefaultBlobBucket
	}
	if a.BlobStore.PatientRootPrefix == "" {
		a.BlobStore.PatientRootPrefix = DefaultPatientRootPrefix
	}
	if a.BlobStore.SessionDataPrefix == "" {
		a.BlobStore.SessionDataPrefix = DefaultSessionDataPrefix
	}

	if a.SpeechService.DefaultPatientId == "" {
		a.SpeechService.DefaultPatientId = DefaultPatientId
	}
	if a.SpeechService.RecognitionLanguage == "" {
		a.SpeechService.RecognitionLanguage = DefaultRecognitionLanguage
	}

	if a.NatsInfo.Subjects.SessionEvents == "" {
		a.NatsInfo.Subjects.SessionEvents = DefaultSessionEventsSubject
	}

	if a.DatabaseInfo.Prefix != "" {
		dbTablePrefix = a.DatabaseInfo.Prefix
	}

	appCnf = a
	return a, nil
}

func GetConfig() *AppConfig {
	return appCnf
}

func FormatDBTable(table string) string {
	if dbTablePrefix != "" {
		return dbTablePrefix + table
	}
	return table
}
