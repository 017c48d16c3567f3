package appconfig

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"
)

// Config holds all configuration details
type Config struct {
	Host       string           `yaml:"host"`
	BasePath   string           `yaml:"basePath"`
	DocsPath   string           `yaml:"docsPath"`
	Database   DatabaseConfig   `yaml:"database"`
	Pulsar     PulsarConfig     `yaml:"pulsar"`
	Redis      RedisConfig      `yaml:"redis"`
	Auth       AuthConfig       `yaml:"auth"`
	Pagination PaginationConfig `yaml:"pagination"`
	Throttle   ThrottleConfig   `yaml:"throttle"`
}

// DatabaseConfig defines the database connection details
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	Source string `yaml:"source"`
}

// PulsarConfig defines the messaging system connection details. An empty URL disables events.
type PulsarConfig struct {
	URL           string `yaml:"url"`
	TopicProducer string `yaml:"topicProducer"`
	Subscription  string `yaml:"subscription"`
}

// RedisConfig defines the shared throttle counter store. An empty Addr keeps counters in memory.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// AuthConfig defines how bearer tokens are checked
type AuthConfig struct {
	SigningKey string `yaml:"signingKey"`
}

type PaginationConfig struct {
	PageSize int `yaml:"pageSize"`
}

type WorkingHoursConfig struct {
	Start    int    `yaml:"start"`
	End      int    `yaml:"end"`
	Timezone string `yaml:"timezone"`
}

// ThrottleConfig defines the working hours window and the rate of every throttle scope
type ThrottleConfig struct {
	WorkingHours WorkingHoursConfig `yaml:"workingHours"`
	Rates        map[string]string  `yaml:"rates"`
	// TrustedProxies is the number of reverse proxies in front of the API. The client address is
	// taken that many entries from the right of X-Forwarded-For; zero ignores the header.
	TrustedProxies int `yaml:"trustedProxies"`
}

// Default returns the configuration used for any value the config file leaves out.
func Default() Config {
	return Config{
		Host:     "localhost:8080",
		BasePath: "/api/v1",
		DocsPath: "/api/docs",
		Database: DatabaseConfig{Driver: "postgres"},
		Pulsar: PulsarConfig{
			TopicProducer: "persistent://public/default/kittygram-events",
			Subscription:  "kittygram-audit",
		},
		Pagination: PaginationConfig{
			PageSize: 10,
		},
		Throttle: ThrottleConfig{
			WorkingHours: WorkingHoursConfig{Start: 6, End: 3, Timezone: "UTC"},
			Rates: map[string]string{
				"low_request": "1/minute",
				"anon":        "1000/day",
				"user":        "10000/day",
			},
		},
	}
}

// LoadConfig loads and parses the configuration from a given file path
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		err := errors.New("config file path is required")
		log.Error().Err(err).Msg("config file not provided")
		return nil, err
	}

	// Parse the template file. Unset variables render as empty strings
	tmpl, err := template.New(filepath.Base(path)).Option("missingkey=zero").ParseFiles(path)
	if err != nil {
		log.Error().Err(err).Msg("error parsing config file template")
		return nil, err
	}

	// Execute the template with environment variables
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, loadEnvVars()); err != nil {
		log.Error().Err(err).Msg("error executing config file template")
		return nil, err
	}

	return Parse(buf.Bytes())
}

// Parse unmarshals YAML on top of the defaults.
func Parse(data []byte) (*Config, error) {
	config := Default()
	defaultRates := config.Throttle.Rates
	config.Throttle.Rates = nil

	if err := yaml.Unmarshal(data, &config); err != nil {
		log.Error().Err(err).Msg("failed to unmarshal config YAML")
		return nil, err
	}

	// Scopes missing from the file keep their default rate
	if config.Throttle.Rates == nil {
		config.Throttle.Rates = map[string]string{}
	}
	for scope, rate := range defaultRates {
		if _, ok := config.Throttle.Rates[scope]; !ok {
			config.Throttle.Rates[scope] = rate
		}
	}

	return &config, nil
}

// loadEnvVars loads environment variables into a map
func loadEnvVars() map[string]string {
	envVars := make(map[string]string)
	for _, env := range os.Environ() {
		kv := strings.SplitN(env, "=", 2)
		if len(kv) == 2 {
			envVars[kv[0]] = kv[1]
		}
	}
	return envVars
}
