// Package config loads runtime configuration from the environment and the
// repos file that lists which repositories and organizations to harvest.
package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all tunables of a harvest run. Values come from the
// environment, prefixed with the loader's prefix (LB by default).
type Config struct {
	// Files
	ReposFile  string `split_words:"true" default:"repos.json"`
	CacheFile  string `split_words:"true" default:"cache.json"`
	OutputFile string `split_words:"true" default:"leaderboard.json"`

	// Fetching
	PerPage     int           `split_words:"true" default:"100" validate:"gt=0,lte=100"`
	OrgTTL      time.Duration `envconfig:"ORG_TTL" default:"168h" validate:"gt=0"`
	PageDelay   time.Duration `split_words:"true" default:"100ms" validate:"gt=0"`
	BackoffMin  time.Duration `split_words:"true" default:"1s" validate:"gt=0"`
	BackoffMax  time.Duration `split_words:"true" default:"60s" validate:"gt=0"`
	HTTPTimeout time.Duration `split_words:"true" default:"30s" validate:"gt=0"`

	// Credential policy: when true, a missing token aborts startup;
	// when false the run proceeds unauthenticated with the lower quota.
	RequireToken bool `split_words:"true" default:"true"`
}

// Loader reads and validates a Config.
type Loader struct {
	Prefix   string
	Validate *validator.Validate
}

func NewLoader(prefix string) *Loader {
	return &Loader{Prefix: prefix, Validate: validator.New()}
}

func (l *Loader) Load() (Config, error) {
	var cfg Config

	loadDotEnv()
	if err := envconfig.Process(l.Prefix, &cfg); err != nil {
		return cfg, fmt.Errorf("env load: %w", err)
	}
	if err := l.Validate.Struct(cfg); err != nil {
		return cfg, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func loadDotEnv() {
	for _, f := range dotEnvFiles() {
		if !fileExists(f) {
			continue
		}
		if err := godotenv.Overload(f); err != nil {
			log.Printf("dotenv: failed loading %s: %v", f, err)
		}
	}
}

func dotEnvFiles() []string {
	files := []string{".env"}
	if appEnv := strings.TrimSpace(os.Getenv("APP_ENV")); appEnv != "" {
		files = append(files, ".env."+appEnv)
	}
	return files
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Token returns the bearer token for the GitHub API, preferring the
// dedicated PAT over the ambient GITHUB_TOKEN. Empty means unauthenticated.
func Token() string {
	if t := strings.TrimSpace(os.Getenv("PAT_TOKEN")); t != "" {
		return t
	}
	return strings.TrimSpace(os.Getenv("GITHUB_TOKEN"))
}
