package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Reference table location and row layout.
	ReferenceSource    string
	ReferenceNameField string
	ReferenceLatField  string
	ReferenceLonField  string

	SupplierSource        string
	SupplierLocationField string
	SupplierWrapKey       string

	DemandSource        string
	DemandLocationField string
	DemandWrapKey       string

	RiskAPIURL    string
	GNewsAPIKey   string
	GNewsEndpoint string

	H3Resolution       int
	CORSAllowedOrigins []string

	// Streaming join over Kafka, off unless KAFKA_ENABLED=true.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaSourceTopic   string
	KafkaSinkTopic     string
	KafkaGroupID       string
	KafkaLocationField string

	BatchSize          int
	BatchFlushInterval time.Duration

	// Mapbox geocoding, used to build reference tables.
	MapboxToken     string
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("MAPBOX_TIMEOUT", "5s"))
	if err != nil || mapboxTimeout <= 0 {
		return nil, errors.New("invalid MAPBOX_TIMEOUT")
	}

	resolution, err := parseH3Resolution()
	if err != nil {
		return nil, err
	}

	kafkaEnabled, err := parseBool("KAFKA_ENABLED", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ReferenceSource:    sharedcfg.EnvOrDefault("REFERENCE_SOURCE", "data/in.json"),
		ReferenceNameField: sharedcfg.EnvOrDefault("REFERENCE_NAME_FIELD", "State.Name"),
		ReferenceLatField:  sharedcfg.EnvOrDefault("REFERENCE_LAT_FIELD", "latitude"),
		ReferenceLonField:  sharedcfg.EnvOrDefault("REFERENCE_LON_FIELD", "longitude"),

		SupplierSource:        sharedcfg.EnvOrDefault("SUPPLIER_SOURCE", "data/supplier-api-response.json"),
		SupplierLocationField: sharedcfg.EnvOrDefault("SUPPLIER_LOCATION_FIELD", "state"),
		SupplierWrapKey:       sharedcfg.EnvOrDefault("SUPPLIER_WRAP_KEY", "supplier_risk_report"),

		DemandSource:        sharedcfg.EnvOrDefault("DEMAND_SOURCE", "data/demand-api-response.json"),
		DemandLocationField: sharedcfg.EnvOrDefault("DEMAND_LOCATION_FIELD", "address"),
		DemandWrapKey:       os.Getenv("DEMAND_WRAP_KEY"),

		RiskAPIURL:    sharedcfg.EnvOrDefault("RISK_API_URL", "http://127.0.0.1:8000/api/analyze-supplier-llm"),
		GNewsAPIKey:   os.Getenv("GNEWS_API_KEY"),
		GNewsEndpoint: sharedcfg.EnvOrDefault("GNEWS_ENDPOINT", "https://gnews.io/api/v4/search"),

		H3Resolution:       resolution,
		CORSAllowedOrigins: parseList(sharedcfg.EnvOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:5174")),

		KafkaEnabled:       kafkaEnabled,
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "subject-records"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "joined-records"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "supply-map"),
		KafkaLocationField: sharedcfg.EnvOrDefault("KAFKA_LOCATION_FIELD", "state"),

		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		MapboxToken:     os.Getenv("MAPBOX_TOKEN"),
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
	}

	if cfg.ReferenceSource == "" {
		return nil, errors.New("REFERENCE_SOURCE is required")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("KAFKA_SOURCE_TOPIC is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

func parseH3Resolution() (int, error) {
	s := sharedcfg.EnvOrDefault("H3_RESOLUTION", "4")
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 15 {
		return 0, fmt.Errorf("invalid H3_RESOLUTION %q: must be an integer between 0 and 15", s)
	}
	return n, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return b, nil
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
