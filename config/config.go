package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - database.go: Database and Redis configuration
//   - http.go: HTTP server and admin credential configuration
//   - services.go: External collaborator configuration (Stripe, OpenAI,
//     S3, SMTP) and pipeline tuning
type AppConfig struct {
	// IsDev controls development mode behavior (relaxed validation, etc.)
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Database configuration
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	// HTTP server configuration
	HTTP  HTTPConfig
	Admin AdminConfig `envPrefix:"ADMIN_"`

	// External collaborators
	Stripe StripeConfig `envPrefix:"STRIPE_"`
	OpenAI OpenAIConfig `envPrefix:"OPENAI_"`
	S3     S3Config     `envPrefix:"S3_"`
	SMTP   SMTPConfig   `envPrefix:"SMTP_"`

	// Artifact pipeline tuning
	Pipeline PipelineConfig `envPrefix:"PIPELINE_"`
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Pipeline.Sanitize()
	c.S3.Sanitize()
	c.detectDevMode()
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}
