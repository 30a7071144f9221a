// Package config loads service configuration from YAML files, .env files
// and environment variables using Viper and godotenv.
//
// # Usage
//
//	var cfg app.Config
//	if err := config.LoadConfig("transcribot", &cfg); err != nil { ... }
//
// Environment variables override file values. Every key of the target struct
// is bound to its upper-snake name: TELEGRAM_TOKEN maps onto telegram.token,
// DATABASE_DSN onto database.dsn. Extra names are mapped with WithEnvAlias.
package config
