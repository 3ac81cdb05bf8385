package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"slaughterhouse/internal/pkg/errs"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	StorageMemory   = "memory"
	StorageSqlite   = "sqlite"
	StoragePostgres = "postgres"

	AuditSinkLog   = "log"
	AuditSinkMongo = "mongo"
)

type Config struct {
	HTTPPort string

	Storage    string
	SqlitePath string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	AuditSink   string
	MongoURI    string
	MongoDBName string

	CertificateServiceURL string
	PaymentServiceURL     string
	ExternalTimeout       time.Duration

	TaxRate            decimal.Decimal
	PaymentGracePeriod time.Duration
	OverdueCron        string
}

// LoadConfig reads .env when present, then the process environment, which wins.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("STORAGE", StorageMemory)
	v.SetDefault("SQLITE_PATH", "slaughterhouse.db")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "slaughterhouse")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("AUDIT_SINK", AuditSinkLog)
	v.SetDefault("MONGODB_DB_NAME", "slaughterhouse")
	v.SetDefault("EXTERNAL_TIMEOUT", 5*time.Second)
	v.SetDefault("TAX_RATE", "0")
	v.SetDefault("PAYMENT_GRACE_PERIOD", 72*time.Hour)
	v.SetDefault("OVERDUE_CRON", "@hourly")

	taxRate, err := decimal.NewFromString(v.GetString("TAX_RATE"))
	if err != nil {
		return Config{}, errs.NewValueIsInvalidErrorWithCause("TAX_RATE", err)
	}

	cfg := Config{
		HTTPPort:              v.GetString("HTTP_PORT"),
		Storage:               v.GetString("STORAGE"),
		SqlitePath:            v.GetString("SQLITE_PATH"),
		DBHost:                v.GetString("DB_HOST"),
		DBPort:                v.GetString("DB_PORT"),
		DBUser:                v.GetString("DB_USER"),
		DBPassword:            v.GetString("DB_PASSWORD"),
		DBName:                v.GetString("DB_NAME"),
		DBSslMode:             v.GetString("DB_SSLMODE"),
		AuditSink:             v.GetString("AUDIT_SINK"),
		MongoURI:              v.GetString("MONGODB_URI"),
		MongoDBName:           v.GetString("MONGODB_DB_NAME"),
		CertificateServiceURL: v.GetString("CERTIFICATE_SERVICE_URL"),
		PaymentServiceURL:     v.GetString("PAYMENT_SERVICE_URL"),
		ExternalTimeout:       v.GetDuration("EXTERNAL_TIMEOUT"),
		TaxRate:               taxRate,
		PaymentGracePeriod:    v.GetDuration("PAYMENT_GRACE_PERIOD"),
		OverdueCron:           v.GetString("OVERDUE_CRON"),
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Storage {
	case StorageMemory, StorageSqlite, StoragePostgres:
	default:
		return errs.NewValueIsInvalidError("STORAGE")
	}
	switch c.AuditSink {
	case AuditSinkLog:
	case AuditSinkMongo:
		if c.MongoURI == "" {
			return errs.NewValueIsRequiredError("MONGODB_URI")
		}
	default:
		return errs.NewValueIsInvalidError("AUDIT_SINK")
	}
	if c.CertificateServiceURL == "" {
		return errs.NewValueIsRequiredError("CERTIFICATE_SERVICE_URL")
	}
	if c.PaymentServiceURL == "" {
		return errs.NewValueIsRequiredError("PAYMENT_SERVICE_URL")
	}
	if c.ExternalTimeout <= 0 {
		return errs.NewValueIsOutOfRangeError("EXTERNAL_TIMEOUT", c.ExternalTimeout, "0s", "any")
	}
	return nil
}

// PostgresDSN is the gorm postgres DSN.
func (c Config) PostgresDSN() string {
	return fmt.Sprintf("host=%v port=%v user=%v password=%v dbname=%v sslmode=%v",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}
