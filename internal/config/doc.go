// Package config handles configuration loading, parsing, and validation
// from environment variables (LADDER_ prefix) and an optional config.yaml.
// It provides type-safe access to the settings of the server, database,
// token validation, the Redis snapshot cache and leaderboard generation.
package config
