// Package config loads the settings shared by the API gateway and the posting
// processor from defaults, an optional .env file and the environment.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config is the validated configuration of one binary
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Kafka       KafkaConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Outbox      OutboxConfig
	WorkerPool  WorkerPoolConfig
	Accounting  AccountingConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string
	Format string // "json" or "text"
}

// ServerConfig configures the API gateway listener
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration // drain budget for in-flight requests
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
}

// KafkaConfig configures the journal topic, its consumer group and the DLQ
type KafkaConfig struct {
	Brokers           string
	JournalTopic      string
	NumPartitions     int // used only when a topic has to be created
	ReplicationFactor int
	ConsumerGroup     string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	StartOffset       int64
	DLQTopic          string
}

// BrokerList splits the comma separated broker addresses
func (c KafkaConfig) BrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(c.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// PostgresConfig configures the ledger store
type PostgresConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string // directory or file:// URL
}

// MongoDBConfig configures the journal archive
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// OutboxConfig paces the archive publisher
type OutboxConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	MaxRetryAttempts int // a message failing this often is marked failed
}

// WorkerPoolConfig sizes the pool that applies journals
type WorkerPoolConfig struct {
	Size int
}

// AccountingConfig contains ledger-wide accounting settings
type AccountingConfig struct {
	Timezone string // IANA zone that decides which calendar day "today" is
}

// Location resolves the configured timezone, falling back to UTC.
func (c AccountingConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Clock returns the current time in the configured timezone
func (c AccountingConfig) Clock() func() time.Time {
	loc := c.Location()
	return func() time.Time {
		return time.Now().In(loc)
	}
}

// problems collects configuration violations
type problems []string

func (p *problems) require(key, value string) {
	if value == "" {
		*p = append(*p, key+" is required")
	}
}

func positive[T int | int32 | int64 | uint64 | time.Duration](p *problems, key string, value T) {
	if value <= 0 {
		*p = append(*p, key+" must be greater than 0")
	}
}

// validate reports every violation at once, joined in one error
func (c *Config) validate() error {
	var p problems

	positive(&p, "SERVER_PORT", c.Server.Port)
	positive(&p, "SERVER_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	positive(&p, "SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	positive(&p, "SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	positive(&p, "SERVER_IDLE_TIMEOUT", c.Server.IdleTimeout)

	p.require("KAFKA_BROKERS", strings.Join(c.Kafka.BrokerList(), ","))
	p.require("KAFKA_JOURNAL_TOPIC", c.Kafka.JournalTopic)
	p.require("KAFKA_CONSUMER_GROUP", c.Kafka.ConsumerGroup)
	positive(&p, "KAFKA_CONSUMER_MIN_BYTES", c.Kafka.MinBytes)
	positive(&p, "KAFKA_CONSUMER_MAX_BYTES", c.Kafka.MaxBytes)
	positive(&p, "KAFKA_CONSUMER_MAX_WAIT", c.Kafka.MaxWait)
	p.require("KAFKA_DLQ_TOPIC", c.Kafka.DLQTopic)
	if c.Kafka.DLQTopic != "" && c.Kafka.DLQTopic == c.Kafka.JournalTopic {
		p = append(p, "KAFKA_DLQ_TOPIC must differ from KAFKA_JOURNAL_TOPIC")
	}

	p.require("POSTGRES_URL", c.Postgres.URL)
	positive(&p, "POSTGRES_MAX_CONNS", c.Postgres.MaxConns)
	positive(&p, "POSTGRES_MIN_CONNS", c.Postgres.MinConns)
	positive(&p, "POSTGRES_MAX_CONN_LIFETIME", c.Postgres.ConnMaxLifetime)
	positive(&p, "POSTGRES_MAX_CONN_IDLE_TIME", c.Postgres.ConnMaxIdleTime)

	p.require("MONGO_URI", c.MongoDB.URI)
	p.require("MONGO_DATABASE", c.MongoDB.Database)
	positive(&p, "MONGO_TIMEOUT", c.MongoDB.Timeout)
	positive(&p, "MONGO_MAX_POOL_SIZE", c.MongoDB.MaxPoolSize)
	positive(&p, "MONGO_MIN_POOL_SIZE", c.MongoDB.MinPoolSize)
	positive(&p, "MONGO_MAX_CONN_IDLE_TIME", c.MongoDB.MaxConnIdleTime)

	positive(&p, "OUTBOX_POLLING_INTERVAL", c.Outbox.PollingInterval)
	positive(&p, "OUTBOX_BATCH_SIZE", c.Outbox.BatchSize)
	positive(&p, "OUTBOX_MAX_RETRY_ATTEMPTS", c.Outbox.MaxRetryAttempts)

	positive(&p, "WORKER_POOL_SIZE", c.WorkerPool.Size)

	if f := strings.ToLower(c.Logging.Format); f != "" && f != "json" && f != "text" {
		p = append(p, "LOG_FORMAT must be json or text")
	}
	if c.Accounting.Timezone != "" {
		if _, err := time.LoadLocation(c.Accounting.Timezone); err != nil {
			p = append(p, "ACCOUNTING_TIMEZONE must be a valid IANA timezone")
		}
	}

	if len(p) > 0 {
		return errors.New(strings.Join(p, ", "))
	}
	return nil
}
