package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	ServerPort      string
	ServerHost      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxRequestBody  int64
	CORSOrigin      string
	RateLimitRPS    int
	RateLimitBurst  int

	// Artifacts and training
	ArtifactDir        string
	ArtifactVersion    string
	DatasetPath        string
	TrainingConfigPath string

	// Database
	PostgresHost          string
	PostgresPort          string
	PostgresUser          string
	PostgresPassword      string
	PostgresDB            string
	PostgresSSLMode       string
	PredictionLogEnabled  bool
	TrainingRunLogEnabled bool

	// Redis
	RedisHost          string
	RedisPort          string
	RedisPassword      string
	RedisDB            int
	PredictionCacheTTL time.Duration

	// Kafka
	KafkaBrokers         []string
	KafkaGroupID         string
	KafkaEventsEnabled   bool
	KafkaPredictionTopic string
	KafkaTrainingTopic   string
	KafkaScoringTopic    string
}

func Load() *Config {
	return &Config{
		ServerPort:      getEnv("SERVER_PORT", "5000"),
		ServerHost:      getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:     getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:    getDuration("WRITE_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		MaxRequestBody:  int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 1024*1024)),
		CORSOrigin:      getEnv("CORS_ALLOWED_ORIGIN", "*"),
		RateLimitRPS:    getIntEnv("RATE_LIMIT_RPS", 0),
		RateLimitBurst:  getIntEnv("RATE_LIMIT_BURST", 50),

		ArtifactDir:        getEnv("ARTIFACT_DIR", "./artifacts"),
		ArtifactVersion:    getEnv("ARTIFACT_VERSION", ""),
		DatasetPath:        getEnv("DATASET_PATH", "synthetic_mental_health_5000.csv"),
		TrainingConfigPath: getEnv("TRAINING_CONFIG", ""),

		PostgresHost:          getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:          getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:          getEnv("POSTGRES_USER", "mindmeter"),
		PostgresPassword:      getEnv("POSTGRES_PASSWORD", "mindmeter"),
		PostgresDB:            getEnv("POSTGRES_DB", "mindmeter"),
		PostgresSSLMode:       getEnv("POSTGRES_SSLMODE", "disable"),
		PredictionLogEnabled:  getBoolEnv("PREDICTION_LOG_ENABLED", false),
		TrainingRunLogEnabled: getBoolEnv("TRAINING_RUN_LOG_ENABLED", false),

		RedisHost:          getEnv("REDIS_HOST", "localhost"),
		RedisPort:          getEnv("REDIS_PORT", "6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getIntEnv("REDIS_DB", 0),
		PredictionCacheTTL: getDuration("PREDICTION_CACHE_TTL", 0),

		KafkaBrokers:         getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaGroupID:         getEnv("KAFKA_GROUP_ID", "mindmeter-scoring"),
		KafkaEventsEnabled:   getBoolEnv("KAFKA_EVENTS_ENABLED", false),
		KafkaPredictionTopic: getEnv("KAFKA_PREDICTION_TOPIC", "adherence.predictions"),
		KafkaTrainingTopic:   getEnv("KAFKA_TRAINING_TOPIC", "adherence.training"),
		KafkaScoringTopic:    getEnv("KAFKA_SCORING_TOPIC", "adherence.scoring-requests"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
