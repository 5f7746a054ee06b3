package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds every externally tunable setting. Values come from the
// environment; the envconfig tags name the variables.
type Config struct {
	Port        int    `envconfig:"PORT" default:"8080"`
	DatabaseURL string `envconfig:"DATABASE_URL"`

	CensusBaseURL     string        `envconfig:"CENSUS_BASE_URL" default:"https://geocoding.geo.census.gov/geocoder"`
	CongressBaseURL   string        `envconfig:"CONGRESS_BASE_URL" default:"https://api.congress.gov/v3"`
	CongressAPIKey    string        `envconfig:"CONGRESS_API_KEY"`
	OpenStatesBaseURL string        `envconfig:"OPENSTATES_BASE_URL" default:"https://v3.openstates.org"`
	OpenStatesAPIKey  string        `envconfig:"OPENSTATES_API_KEY"`
	CivicBaseURL      string        `envconfig:"CIVIC_BASE_URL" default:"https://www.googleapis.com/civicinfo/v2"`
	CivicAPIKey       string        `envconfig:"CIVIC_API_KEY"`
	UpstreamTimeout   time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"10s"`

	MailjetPublicKey   string `envconfig:"MAILJET_PUBLIC_KEY"`
	MailjetPrivateKey  string `envconfig:"MAILJET_PRIVATE_KEY"`
	MailjetTemplateID  int64  `envconfig:"MAILJET_TEMPLATE_ID"`
	OutreachSender     string `envconfig:"OUTREACH_SENDER" default:"outreach@herald.church"`
	OutreachSenderName string `envconfig:"OUTREACH_SENDER_NAME" default:"Herald Outreach"`

	JWTSecret   string `envconfig:"JWT_SECRET"`
	AdminSecret string `envconfig:"ADMIN_SECRET"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("herald", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	return &cfg, nil
}
