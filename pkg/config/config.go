package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database      DatabaseConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Gateway       GatewayConfig
	Engine        EngineConfig
	Notifications NotificationsConfig
	Aggregation   AggregationConfig
	Debug         bool
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (d DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers            []string
	TopicObservations  string
	TopicNotifications string
	NumPartitions      int
	BatchSize          int
	FlushInterval      time.Duration
}

type GatewayConfig struct {
	Port              int
	MaxConnections    int
	IdentifyTimeout   time.Duration
	InactivityTimeout time.Duration
}

type EngineConfig struct {
	TickInterval         time.Duration
	ReEvaluationInterval time.Duration
	SnapshotTTL          time.Duration
	MaxSessions          int
}

type NotificationsConfig struct {
	Enabled           bool
	QuietHoursEnabled bool
	QuietHoursStart   int
	QuietHoursEnd     int
	UVChangeThreshold int
	MinimumRiskLevel  string
	AlertFrequency    float64
	ReapplyInterval   time.Duration
}

type AggregationConfig struct {
	HourlyDelay time.Duration
	DailyTime   string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "uv_user"),
			Password: getEnv("DB_PASSWORD", "uv_pass"),
			DBName:   getEnv("DB_NAME", "uv_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:            strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			TopicObservations:  getEnv("KAFKA_TOPIC_OBSERVATIONS", "uv.observations"),
			TopicNotifications: getEnv("KAFKA_TOPIC_NOTIFICATIONS", "uv.notifications"),
			NumPartitions:      getEnvAsInt("KAFKA_NUM_PARTITIONS", 10),
			BatchSize:          getEnvAsInt("KAFKA_BATCH_SIZE", 50),
			FlushInterval:      getEnvAsDuration("KAFKA_FLUSH_INTERVAL", 5*time.Second),
		},
		Gateway: GatewayConfig{
			Port:              getEnvAsInt("GATEWAY_PORT", 8080),
			MaxConnections:    getEnvAsInt("GATEWAY_MAX_CONNECTIONS", 10000),
			IdentifyTimeout:   getEnvAsDuration("GATEWAY_IDENTIFY_TIMEOUT", 10*time.Second),
			InactivityTimeout: getEnvAsDuration("GATEWAY_INACTIVITY_TIMEOUT", 2*time.Minute),
		},
		Engine: EngineConfig{
			TickInterval:         getEnvAsDuration("ENGINE_TICK_INTERVAL", 1*time.Second),
			ReEvaluationInterval: getEnvAsDuration("ENGINE_REEVALUATION_INTERVAL", 30*time.Minute),
			SnapshotTTL:          getEnvAsDuration("ENGINE_SNAPSHOT_TTL", 1*time.Hour),
			MaxSessions:          getEnvAsInt("ENGINE_MAX_SESSIONS", 10000),
		},
		Notifications: NotificationsConfig{
			Enabled:           getEnvAsBool("NOTIFICATIONS_ENABLED", true),
			QuietHoursEnabled: getEnvAsBool("NOTIFICATIONS_QUIET_HOURS_ENABLED", false),
			QuietHoursStart:   getEnvAsInt("NOTIFICATIONS_QUIET_HOURS_START", 22),
			QuietHoursEnd:     getEnvAsInt("NOTIFICATIONS_QUIET_HOURS_END", 7),
			UVChangeThreshold: getEnvAsInt("NOTIFICATIONS_UV_CHANGE_THRESHOLD", 2),
			MinimumRiskLevel:  getEnv("NOTIFICATIONS_MINIMUM_RISK_LEVEL", "moderate"),
			AlertFrequency:    getEnvAsFloat("NOTIFICATIONS_ALERT_FREQUENCY", 0.2),
			ReapplyInterval:   getEnvAsDuration("NOTIFICATIONS_REAPPLY_INTERVAL", 2*time.Hour),
		},
		Aggregation: AggregationConfig{
			HourlyDelay: getEnvAsDuration("AGGREGATION_HOURLY_DELAY", 5*time.Minute),
			DailyTime:   getEnv("AGGREGATION_DAILY_TIME", "00:05"),
		},
		Debug: getEnvAsBool("DEBUG", false),
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
