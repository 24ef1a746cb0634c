// Package config handles configuration loading and precondition checks.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/UnitVectorY-Labs/statbadges/internal/models"
)

var (
	// ErrMissingToken is returned when ACCESS_TOKEN is not set.
	ErrMissingToken = errors.New("a personal access token is required: set ACCESS_TOKEN")
	// ErrMissingUser is returned when GITHUB_ACTOR is not set.
	ErrMissingUser = errors.New("a GitHub user is required: set GITHUB_ACTOR")
)

// DefaultSettingsFile is looked up in the working directory when no --config is given.
const DefaultSettingsFile = "statbadges.yaml"

// Settings are the non-secret options, read from YAML and overridden by flags.
type Settings struct {
	OutputDir    string        `yaml:"output_dir"`
	TemplatesDir string        `yaml:"templates_dir"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	Strict       bool          `yaml:"strict"`
	Readme       string        `yaml:"readme"`
}

// Config holds everything needed for a run.
type Config struct {
	Settings

	Token   string
	User    string
	Filters models.Filters
}

// DefaultSettings returns the settings used when no file is present.
// An empty TemplatesDir selects the embedded templates.
func DefaultSettings() Settings {
	return Settings{
		OutputDir:    "generated",
		FetchTimeout: 30 * time.Second,
		Readme:       "README.md",
	}
}

// LoadSettings reads the YAML settings file at path. With an empty path the
// default file is tried and its absence is not an error.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	explicit := path != ""
	if !explicit {
		path = DefaultSettingsFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}
	return s, nil
}

// LoadDotEnv loads a .env file from the working directory if one exists.
// Variables already present in the environment are kept.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("error loading .env file: %w", err)
	}
	return nil
}

// Load validates the credential and identity and parses the repository and
// language filters. lookup is normally os.LookupEnv.
func Load(settings Settings, lookup func(string) (string, bool)) (*Config, error) {
	token, _ := lookup("ACCESS_TOKEN")
	if strings.TrimSpace(token) == "" {
		return nil, ErrMissingToken
	}
	user, _ := lookup("GITHUB_ACTOR")
	if strings.TrimSpace(user) == "" {
		return nil, ErrMissingUser
	}

	cfg := &Config{
		Settings: settings,
		Token:    token,
		User:     strings.TrimSpace(user),
	}

	excluded, _ := lookup("EXCLUDED")
	cfg.Filters.ExcludedRepos = ParseSet(excluded, false)

	excludedLangs, _ := lookup("EXCLUDED_LANGS")
	cfg.Filters.ExcludedLanguages = ParseSet(excludedLangs, true)

	forks, ok := lookup("EXCLUDE_FORKED_REPOS")
	cfg.Filters.ExcludeForks = Truthy(forks, ok)

	contribs, ok := lookup("EXCLUDE_CONTRIBS")
	if !ok {
		contribs, ok = lookup("EXCLUDE_CONTRIBUTED")
	}
	cfg.Filters.ExcludeContribs = Truthy(contribs, ok)

	return cfg, nil
}

// Truthy reports whether a flag is enabled. A flag is enabled when it is
// present and its trimmed, lowercased value is anything except "false".
// An empty value that is present counts as enabled.
func Truthy(value string, present bool) bool {
	if !present {
		return false
	}
	return strings.ToLower(strings.TrimSpace(value)) != "false"
}

// ParseSet splits a comma-separated list into a set, dropping empty items.
// Returns nil for an empty list.
func ParseSet(raw string, lower bool) map[string]bool {
	var set map[string]bool
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if lower {
			item = strings.ToLower(item)
		}
		if set == nil {
			set = make(map[string]bool)
		}
		set[item] = true
	}
	return set
}

func (c *Config) String() string {
	templates := c.TemplatesDir
	if templates == "" {
		templates = "(embedded)"
	}
	return fmt.Sprintf(`Current Configuration:
======================
User:                 %s
Access Token:         ********
Output Directory:     %s
Templates:            %s
Fetch Timeout:        %s
Strict:               %t
Excluded Repos:       %d
Excluded Languages:   %d
Exclude Forks:        %t
Exclude Contributed:  %t`,
		c.User,
		c.OutputDir,
		templates,
		c.FetchTimeout,
		c.Strict,
		len(c.Filters.ExcludedRepos),
		len(c.Filters.ExcludedLanguages),
		c.Filters.ExcludeForks,
		c.Filters.ExcludeContribs,
	)
}
