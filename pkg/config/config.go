package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/anonto42/mitaina/backend/internal/models"
)

type Config struct {
	Port                    string
	Env                     string
	FirebaseCredentialsPath string
	DatabaseURL             string
	MongoURI                string
	MongoDatabase           string
	JWTSecret               string
	MetricsPort             string
	ReactionTypes           []string
	Genres                  []string
	CORSAllowedOrigins      []string
	Throttle                ThrottleConfig
}

// ThrottleConfig holds the request rates. Anon and User apply to every API
// request, Login to the auth endpoints, the rest to their own routes.
type ThrottleConfig struct {
	Anon       Rate
	User       Rate
	Login      Rate
	PostCreate Rate
	Reaction   Rate
	Report     Rate
}

// Rate allows Count requests per Period.
type Rate struct {
	Count  int
	Period time.Duration
}

func (r Rate) String() string {
	return fmt.Sprintf("%d/%s", r.Count, r.Period)
}

// fileConfig mirrors the optional YAML file named by CONFIG_FILE.
type fileConfig struct {
	ReactionTypes      []string `yaml:"reaction_types"`
	Genres             []string `yaml:"genres"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	Throttle           struct {
		Anon       string `yaml:"anon"`
		User       string `yaml:"user"`
		Login      string `yaml:"login"`
		PostCreate string `yaml:"post_create"`
		Reaction   string `yaml:"reaction"`
		Report     string `yaml:"report"`
	} `yaml:"throttle"`
}

var defaultGenres = []string{"movie", "drama", "anime", "manga", "stage", "music", "book", "game", "other"}

const devJWTSecret = "supersecretjwtkey"

// Load reads .env (if present), the optional YAML file and the environment.
// Environment variables win over the file, the file wins over defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, reading from environment")
	}

	var file fileConfig
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		DatabaseURL:             getEnv("DATABASE_URL", "sqlite://mitaina.db"),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DB", "mitaina"),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		MetricsPort:             getEnv("METRICS_PORT", "9090"),
		ReactionTypes:           getList("REACTION_TYPES", file.ReactionTypes, models.KnownReactionTypes()),
		Genres:                  getList("GENRES", file.Genres, defaultGenres),
		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS", file.CORSAllowedOrigins,
			[]string{"http://localhost:5173", "http://localhost:3000", "http://localhost:8080"}),
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = devJWTSecret
	}

	if _, err := models.NewReactionSet(cfg.ReactionTypes); err != nil {
		return nil, fmt.Errorf("invalid reaction types: %w", err)
	}
	if len(cfg.Genres) == 0 {
		return nil, fmt.Errorf("at least one genre is required")
	}

	var err error
	if cfg.Throttle.Anon, err = getRate("THROTTLE_ANON", file.Throttle.Anon, "200/day"); err != nil {
		return nil, err
	}
	if cfg.Throttle.User, err = getRate("THROTTLE_USER", file.Throttle.User, "2000/day"); err != nil {
		return nil, err
	}
	if cfg.Throttle.Login, err = getRate("THROTTLE_LOGIN", file.Throttle.Login, "30/hour"); err != nil {
		return nil, err
	}
	if cfg.Throttle.PostCreate, err = getRate("THROTTLE_POST_CREATE", file.Throttle.PostCreate, "10/day"); err != nil {
		return nil, err
	}
	if cfg.Throttle.Reaction, err = getRate("THROTTLE_REACTION", file.Throttle.Reaction, "300/day"); err != nil {
		return nil, err
	}
	if cfg.Throttle.Report, err = getRate("THROTTLE_REPORT", file.Throttle.Report, "20/day"); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ReactionSet returns the enabled reaction types. Load has validated them.
func (c *Config) ReactionSet() models.ReactionSet {
	set, err := models.NewReactionSet(c.ReactionTypes)
	if err != nil {
		return models.DefaultReactionSet()
	}
	return set
}

// ParseRate parses "<count>/<period>" where period is second, minute, hour, day
// or a Go duration such as 30m.
func ParseRate(s string) (Rate, error) {
	countStr, periodStr, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return Rate{}, fmt.Errorf("rate %q: want <count>/<period>", s)
	}
	count, err := strconv.Atoi(countStr)
	if err != nil || count <= 0 {
		return Rate{}, fmt.Errorf("rate %q: count must be a positive integer", s)
	}
	var period time.Duration
	switch p := strings.ToLower(periodStr); p {
	case "s", "sec", "second":
		period = time.Second
	case "m", "min", "minute":
		period = time.Minute
	case "h", "hour":
		period = time.Hour
	case "d", "day":
		period = 24 * time.Hour
	default:
		period, err = time.ParseDuration(p)
		if err != nil || period <= 0 {
			return Rate{}, fmt.Errorf("rate %q: unknown period %q", s, periodStr)
		}
	}
	return Rate{Count: count, Period: period}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getList(key string, fromFile, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out
	}
	if len(fromFile) > 0 {
		return fromFile
	}
	return defaultValue
}

func getRate(key, fromFile, defaultValue string) (Rate, error) {
	raw := getEnv(key, fromFile)
	if raw == "" {
		raw = defaultValue
	}
	r, err := ParseRate(raw)
	if err != nil {
		return Rate{}, fmt.Errorf("%s: %w", key, err)
	}
	return r, nil
}
