// Package config loads typed configuration structs from environment
// variables via caarlos0/env tags, with optional .env file support through
// godotenv for local development.
package config
