// Package env loads process configuration from the environment (and a
// .env file when present) and sets up logging.
package env

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Prefix is prepended to every variable name, e.g. NEARBY_PORT.
const Prefix = "NEARBY"

// Config is the full process configuration.
type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Profile  string `envconfig:"PROFILE" default:"default"`

	// APIBaseURL serves /geocode, /autocomplete, /services and /salons.
	APIBaseURL string `envconfig:"API_BASE_URL"`
	// Geocoder is "api" or "nominatim".
	Geocoder     string `envconfig:"GEOCODER" default:"nominatim"`
	NominatimURL string `envconfig:"NOMINATIM_URL" default:"https://nominatim.openstreetmap.org"`
	Language     string `envconfig:"LANGUAGE" default:"en"`

	// Positioner is "google", "static" or "none".
	Positioner      string  `envconfig:"POSITIONER" default:"none"`
	GoogleAPIKey    string  `envconfig:"GOOGLE_API_KEY"`
	StaticLat       float64 `envconfig:"STATIC_LAT"`
	StaticLng       float64 `envconfig:"STATIC_LNG"`
	StaticAccuracyM float64 `envconfig:"STATIC_ACCURACY_M" default:"25"`

	// Store is "memory", "postgres" or "s3".
	Store       string `envconfig:"STORE" default:"memory"`
	DatabaseURL string `envconfig:"DATABASE_URL"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"nearby-preferences"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3UseSSL    bool   `envconfig:"S3_USE_SSL" default:"true"`

	KafkaBroker  string `envconfig:"KAFKA_BROKER"`
	KafkaTopic   string `envconfig:"KAFKA_TOPIC" default:"nearby.searches"`
	KafkaGroupID string `envconfig:"KAFKA_GROUP_ID" default:"nearby-searchlog"`

	Debounce    time.Duration `envconfig:"DEBOUNCE" default:"300ms"`
	SettleDelay time.Duration `envconfig:"SETTLE_DELAY" default:"1s"`
}

// Load reads .env if present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, eris.Wrap(err, "env: process config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the selected backends have what they need.
func (c *Config) Validate() error {
	switch c.Geocoder {
	case "nominatim":
	case "api":
		if c.APIBaseURL == "" {
			return eris.New("env: NEARBY_API_BASE_URL is required for the api geocoder")
		}
	default:
		return eris.Errorf("env: unknown geocoder %q", c.Geocoder)
	}

	switch c.Positioner {
	case "none", "static":
	case "google":
		if c.GoogleAPIKey == "" {
			return eris.New("env: NEARBY_GOOGLE_API_KEY is required for the google positioner")
		}
	default:
		return eris.Errorf("env: unknown positioner %q", c.Positioner)
	}

	switch c.Store {
	case "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return eris.New("env: NEARBY_DATABASE_URL is required for the postgres store")
		}
	case "s3":
		if !c.HasS3() {
			return eris.New("env: NEARBY_S3_ENDPOINT and credentials are required for the s3 store")
		}
	default:
		return eris.Errorf("env: unknown store %q", c.Store)
	}
	return nil
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasKafka() bool {
	return c.KafkaBroker != ""
}

// Logger builds the process logger and installs it as zap's global.
func Logger(c *Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if c.Debug {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, eris.Wrap(err, "env: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, eris.Wrap(err, "env: build logger")
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}
