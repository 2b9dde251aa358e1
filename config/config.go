package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

// Config holds application configuration
type Config struct {
	Port string

	// Store
	StoreBackend  string
	MongoURI      string
	MongoDatabase string

	// Auth
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int

	// HTTP
	CORSOrigin     string
	RequestTimeout time.Duration
	InternalAPIKey string

	// Logging
	LogLevel       string
	LogDevelopment bool

	// Recurring expenses
	RecurringSchedule string
	RecurringWorkers  int

	// values that were set but could not be parsed
	parseProblems []string
}

// Load reads an optional .env file, then the environment, and validates the
// result. A missing JWT_SECRET is a startup error; there is no fallback secret.
func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config from environment variables without validating it.
func FromEnv() *Config {
	env := &envReader{}
	cfg := &Config{
		Port: getEnv("PORT", "5002"),

		StoreBackend:  getEnv("STORE_BACKEND", BackendMongo),
		MongoURI:      getEnv("MONGO_URI", "mongodb://127.0.0.1:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "expense-tracker"),

		JWTSecret:  os.Getenv("JWT_SECRET"),
		TokenTTL:   env.getDuration("TOKEN_TTL", 30*24*time.Hour),
		BcryptCost: env.getInt("BCRYPT_COST", 10),

		CORSOrigin:     getEnv("CORS_ORIGIN", "http://localhost:3000"),
		RequestTimeout: env.getDuration("REQUEST_TIMEOUT", 10*time.Second),
		InternalAPIKey: os.Getenv("INTERNAL_API_KEY"),

		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogDevelopment: env.getBool("LOG_DEVELOPMENT", false),

		RecurringSchedule: lookupEnv("RECURRING_SCHEDULE", "@hourly"),
		RecurringWorkers:  env.getInt("RECURRING_WORKERS", 4),
	}
	cfg.parseProblems = env.problems
	return cfg
}

// Validate returns every configuration problem at once.
func (c *Config) Validate() error {
	problems := slices.Clone(c.parseProblems)

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port %q: must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if strings.TrimSpace(c.JWTSecret) == "" {
		problems = append(problems, "JWT_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		problems = append(problems, fmt.Sprintf("invalid token ttl %v: must be positive", c.TokenTTL))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		problems = append(problems, fmt.Sprintf("invalid bcrypt cost %d: must be between 4 and 31", c.BcryptCost))
	}

	switch c.StoreBackend {
	case BackendMongo:
		if c.MongoURI == "" {
			problems = append(problems, "MONGO_URI is required when using the mongo backend")
		} else if u, err := url.Parse(c.MongoURI); err != nil {
			problems = append(problems, fmt.Sprintf("invalid MONGO_URI: %v", err))
		} else if u.Scheme != "mongodb" && u.Scheme != "mongodb+srv" {
			problems = append(problems, fmt.Sprintf("invalid MONGO_URI scheme %q: must be mongodb or mongodb+srv", u.Scheme))
		}
		if c.MongoDatabase == "" {
			problems = append(problems, "MONGO_DATABASE cannot be empty")
		}
	case BackendMemory:
	default:
		problems = append(problems, fmt.Sprintf("invalid store backend %q: must be %q or %q", c.StoreBackend, BackendMongo, BackendMemory))
	}

	if c.RequestTimeout <= 0 {
		problems = append(problems, fmt.Sprintf("invalid request timeout %v: must be positive", c.RequestTimeout))
	}
	if c.RecurringSchedule != "" {
		if _, err := cron.ParseStandard(c.RecurringSchedule); err != nil {
			problems = append(problems, fmt.Sprintf("invalid RECURRING_SCHEDULE %q: %v", c.RecurringSchedule, err))
		}
		if c.RecurringWorkers < 1 {
			problems = append(problems, fmt.Sprintf("invalid recurring workers %d: must be at least 1", c.RecurringWorkers))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// lookupEnv distinguishes an explicitly empty variable from an unset one.
func lookupEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

// envReader parses typed variables. A set value that fails to parse keeps
// the default and is recorded as a problem for Validate.
type envReader struct {
	problems []string
}

func (r *envReader) invalid(key, value, want string) {
	r.problems = append(r.problems, fmt.Sprintf("invalid %s %q: must be %s", key, value, want))
}

func (r *envReader) getInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		r.invalid(key, value, "an integer")
		return defaultValue
	}
	return i
}

func (r *envReader) getBool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		r.invalid(key, value, "true or false")
		return defaultValue
	}
	return b
}

func (r *envReader) getDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		r.invalid(key, value, "a duration such as 30s or 720h")
		return defaultValue
	}
	return d
}
