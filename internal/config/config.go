package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/isar-water-etl/internal/domain"
)

// Upstream pages for the Munich gauge (station 16005701) on the Isar.
const (
	DefaultLevelURL       = "https://www.hnd.bayern.de/pegel/isar/muenchen-16005701/tabelle?setdiskr=15"
	DefaultFlowURL        = "https://www.hnd.bayern.de/pegel/isar/muenchen-16005701/tabelle?methode=abfluss&setdiskr=15"
	DefaultTemperatureURL = "https://www.gkd.bayern.de/de/fluesse/wassertemperatur/isar/muenchen-16005701/messwerte/tabelle"
)

// Structural locators: first row of the table body, time in column 1 and
// value in column 2. The GKD page carries several tables, the data one is
// marked with the tblsort class.
const (
	hndTimestampSelector = "tbody tr:nth-of-type(1) td:nth-of-type(1)"
	hndValueSelector     = "tbody tr:nth-of-type(1) td:nth-of-type(2)"
	gkdTimestampSelector = "table.tblsort tbody tr:nth-of-type(1) td:nth-of-type(1)"
	gkdValueSelector     = "table.tblsort tbody tr:nth-of-type(1) td:nth-of-type(2)"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	MQTTBroker         string
	MQTTPort           int
	MQTTClientID       string
	MQTTUser           string
	MQTTPass           string
	MQTTTopicPrefix    string
	MQTTConnectTimeout time.Duration

	PollInterval time.Duration
	FetchTimeout time.Duration

	Level       domain.Source
	Flow        domain.Source
	Temperature domain.Source

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Optional Kafka mirror; disabled when KafkaBrokers is empty.
	KafkaBrokers []string
	KafkaTopic   string
}

// KafkaEnabled reports whether composites are mirrored to Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// MQTTBrokerURL returns the broker address in the form paho expects.
func (c *Config) MQTTBrokerURL() string {
	return fmt.Sprintf("tcp://%s:%d", c.MQTTBroker, c.MQTTPort)
}

// Sources returns the three sources in collection order.
func (c *Config) Sources() []domain.Source {
	return []domain.Source{c.Level, c.Flow, c.Temperature}
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	port, err := strconv.Atoi(sharedcfg.EnvOrDefault("MQTT_PORT", "1883"))
	if err != nil || port <= 0 || port > 65535 {
		return nil, errors.New("invalid MQTT_PORT")
	}

	pollMinutes, err := strconv.Atoi(sharedcfg.EnvOrDefault("POLL_INTERVAL", "5"))
	if err != nil || pollMinutes <= 0 {
		return nil, errors.New("invalid POLL_INTERVAL: must be a positive number of minutes")
	}

	fetchTimeout, err := parsePositiveDuration("FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	connectTimeout, err := parsePositiveDuration("MQTT_CONNECT_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		MQTTBroker:         sharedcfg.EnvOrDefault("MQTT_BROKER", "localhost"),
		MQTTPort:           port,
		MQTTClientID:       sharedcfg.EnvOrDefault("MQTT_CLIENT_ID", "isar-water-etl"),
		MQTTUser:           os.Getenv("MQTT_USER"),
		MQTTPass:           os.Getenv("MQTT_PASS"),
		MQTTTopicPrefix:    strings.TrimSuffix(sharedcfg.EnvOrDefault("MQTT_TOPIC_PREFIX", "outside/isar/water"), "/"),
		MQTTConnectTimeout: connectTimeout,

		PollInterval: time.Duration(pollMinutes) * time.Minute,
		FetchTimeout: fetchTimeout,

		Level: domain.Source{
			Name:              domain.FieldLevel,
			URL:               sharedcfg.EnvOrDefault("LEVEL_URL", DefaultLevelURL),
			TimestampSelector: hndTimestampSelector,
			ValueSelector:     hndValueSelector,
		},
		Flow: domain.Source{
			Name:              domain.FieldFlow,
			URL:               sharedcfg.EnvOrDefault("FLOW_URL", DefaultFlowURL),
			TimestampSelector: hndTimestampSelector,
			ValueSelector:     hndValueSelector,
		},
		Temperature: domain.Source{
			Name:              domain.FieldTemperature,
			URL:               sharedcfg.EnvOrDefault("TEMPERATURE_URL", DefaultTemperatureURL),
			TimestampSelector: gkdTimestampSelector,
			ValueSelector:     gkdValueSelector,
		},

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaBrokers: sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "isar-water-readings"),
	}

	if cfg.MQTTBroker == "" {
		return nil, errors.New("MQTT_BROKER is required")
	}
	if cfg.MQTTClientID == "" {
		return nil, errors.New("MQTT_CLIENT_ID is required")
	}
	if cfg.MQTTPass != "" && cfg.MQTTUser == "" {
		return nil, errors.New("MQTT_PASS is set but MQTT_USER is not")
	}
	if cfg.KafkaEnabled() && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// parsePositiveDuration reads key as a duration that must be greater than zero.
func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}
