// Package bootstrap loads configuration, builds the dependency graph, and
// runs the HTTP server with graceful shutdown.
package bootstrap

import "os"

// Config carries everything read from the environment. Empty infrastructure
// addresses select the in-memory fallbacks so the service can run without
// any backing services.
type Config struct {
	Environment string
	LogLevel    string
	HTTPAddress string
	Version     string

	PostgresPrimaryDSN string
	PostgresReplicaDSN string
	PostgresDBName     string
	MigrationsPath     string

	RedisAddress string

	RabbitURI      string
	RabbitExchange string
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() Config {
	return Config{
		Environment: getenvOrDefault("ENV_NAME", "development"),
		LogLevel:    getenvOrDefault("LOG_LEVEL", "info"),
		HTTPAddress: getenvOrDefault("SERVER_ADDRESS", ":3000"),
		Version:     getenvOrDefault("VERSION", "dev"),

		PostgresPrimaryDSN: os.Getenv("DB_PRIMARY_DSN"),
		PostgresReplicaDSN: os.Getenv("DB_REPLICA_DSN"),
		PostgresDBName:     getenvOrDefault("DB_NAME", "decision_system"),
		MigrationsPath:     getenvOrDefault("DB_MIGRATIONS_PATH", "migrations"),

		RedisAddress: os.Getenv("REDIS_ADDRESS"),

		RabbitURI:      os.Getenv("RABBITMQ_URI"),
		RabbitExchange: getenvOrDefault("RABBITMQ_EXCHANGE", "decision-system.events"),
	}
}

func getenvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return fallback
}
