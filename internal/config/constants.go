package config

import "time"

// Timeout constants
const (
	DefaultHTTPTimeout        = 60 * time.Second
	GenerationRequestTimeout  = 60 * time.Second
	GenerationShutdownTimeout = 30 * time.Second
	ShutdownPollInterval      = 100 * time.Millisecond
	ServerShutdownTimeout     = 15 * time.Second
	TestTimeout               = 100 * time.Millisecond
)

// Generation defaults
const (
	// DefaultMaxRetries is the number of extra attempts after the first failure.
	DefaultMaxRetries = 3
	// DefaultRetryDelay is the base backoff delay, doubled per attempt.
	DefaultRetryDelay = 1 * time.Second
	// DefaultTemperature is used for all structured generation calls.
	DefaultTemperature = 0.7
	// DefaultMaxTokens is used when a model has no explicit token limit configured.
	DefaultMaxTokens = 4096
	// DefaultQuestionCount is used when a quiz request does not specify a count.
	DefaultQuestionCount = 5
	// MaxQuestionCount bounds a single quiz generation request.
	MaxQuestionCount = 30
)

// Sanitizer limits
const (
	// MaxSanitizedInputLength bounds every caller-supplied free-text field
	// before it is embedded in a prompt.
	MaxSanitizedInputLength = 2000
)

// Concurrency defaults
const (
	DefaultMaxConcurrentGenerations = 10
	DefaultMaxPerCaller             = 2
)
