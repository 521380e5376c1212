package config

import (
	_ "embed"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed matcher.yaml
var matcherYAML []byte

type Config struct {
	Database DatabaseConfig
	Matcher  MatcherConfig
	Upload   UploadConfig
	Intake   IntakeConfig
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

// MatcherConfig describes how to invoke the external face-matching tool.
// Defaults come from the embedded matcher.yaml and can be overridden
// with MATCHER_COMMAND, MATCHER_SCRIPT and MATCHER_TIMEOUT_SECONDS.
type MatcherConfig struct {
	Command        string `yaml:"command"`
	Script         string `yaml:"script"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the matcher invocation timeout as a duration.
func (c *MatcherConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type UploadConfig struct {
	Dir string // directory for stored report photos (default ./uploads)
}

// IntakeConfig controls report submission behavior.
type IntakeConfig struct {
	// FailOnMatchError makes a matching failure fail the whole submission
	// with a 500 even though the report is already persisted. Off by
	// default: a filed report stays filed and the user is told that
	// matching could not complete.
	FailOnMatchError bool
}

type matcherDefaults struct {
	Matcher MatcherConfig `yaml:"matcher"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envBool reads an environment variable as a boolean flag.
func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

func Load() *Config {
	var defaults matcherDefaults
	if err := yaml.Unmarshal(matcherYAML, &defaults); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded matcher.yaml: " + err.Error())
	}

	matcher := defaults.Matcher
	if v := os.Getenv("MATCHER_COMMAND"); v != "" {
		matcher.Command = v
	}
	if v := os.Getenv("MATCHER_SCRIPT"); v != "" {
		matcher.Script = v
	}
	matcher.TimeoutSeconds = envInt("MATCHER_TIMEOUT_SECONDS", matcher.TimeoutSeconds)

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "./uploads"
	}

	return &Config{
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Matcher: matcher,
		Upload: UploadConfig{
			Dir: uploadDir,
		},
		Intake: IntakeConfig{
			FailOnMatchError: envBool("INTAKE_FAIL_ON_MATCH_ERROR"),
		},
	}
}
