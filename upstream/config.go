package upstream

import "time"

const (
	// DefaultEndpoint is the GitHub GraphQL API.
	DefaultEndpoint    = "https://api.github.com/graphql"
	DefaultUserAgent   = "issuehub-graphql-client"
	DefaultIssuesLimit = 10
	DefaultLabelsLimit = 20

	// MaxPageSize is the largest connection page the upstream accepts.
	MaxPageSize = 100
)

// Config holds everything the translation layer needs. It is built once at
// startup and never mutated afterwards.
type Config struct {
	Endpoint    string        `yaml:"endpoint"`
	Token       string        `yaml:"token"`
	UserAgent   string        `yaml:"user_agent"`
	Timeout     time.Duration `yaml:"timeout"` // zero: no client-side limit
	IssuesLimit int           `yaml:"issues_limit"`
	LabelsLimit int           `yaml:"labels_limit"`
}

// DefaultConfig returns a Config with every optional value populated.
// Timeout stays zero so only the transport's own limits apply.
func DefaultConfig() Config {
	return Config{
		Endpoint:    DefaultEndpoint,
		UserAgent:   DefaultUserAgent,
		IssuesLimit: DefaultIssuesLimit,
		LabelsLimit: DefaultLabelsLimit,
	}
}

// Validate checks the values a client cannot work without.
func (c Config) Validate() error {
	if c.Token == "" {
		return ErrMissingToken
	}
	if c.Endpoint == "" {
		return &ConfigError{Field: "upstream.endpoint", Reason: "must not be empty"}
	}
	if c.IssuesLimit < 1 || c.IssuesLimit > MaxPageSize {
		return &ConfigError{Field: "upstream.issues_limit", Reason: "must be between 1 and 100"}
	}
	if c.LabelsLimit < 1 || c.LabelsLimit > MaxPageSize {
		return &ConfigError{Field: "upstream.labels_limit", Reason: "must be between 1 and 100"}
	}
	return nil
}
