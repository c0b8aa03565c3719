package site

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

// EnvPrefix marks environment variables that override config keys, e.g.
// MEVOQ_SESSION_SECRET sets session_secret.
const EnvPrefix = "MEVOQ_"

// SiteConfig holds all configuration for the site.
type SiteConfig struct {
	Name        string `koanf:"name"` // Site name (default "Mevoq")
	URL         string `koanf:"url" validate:"omitempty,url"`
	Description string `koanf:"description"` // Used in meta tags and RSS
	Author      string `koanf:"author"`

	Addr         string `koanf:"addr" validate:"required"` // Listen address (default ":3000")
	DatabasePath string `koanf:"database_path"`            // SQLite path (default "data/mevoq.db")
	StorageDir   string `koanf:"storage_dir"`              // Uploaded files (default "data/storage")

	SessionSecret string `koanf:"session_secret" validate:"required,min=16"`
	CookieSecure  bool   `koanf:"cookie_secure"` // Set true for HTTPS

	// SampleFallback serves built-in sample testimonials, services and team
	// members while those collections are empty.
	SampleFallback *bool `koanf:"sample_fallback"`

	BackendTimeout time.Duration `koanf:"backend_timeout"` // Per backend call (default 10s)
	SessionTTL     time.Duration `koanf:"session_ttl"`     // Admin session lifetime (default 12h)

	LogFile string `koanf:"log_file"`
	Debug   bool   `koanf:"debug"`
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Mevoq"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Description == "" {
		c.Description = "Expert pharmaceutical regulatory consulting that accelerates approvals and ensures compliance."
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/mevoq.db"
	}
	if c.StorageDir == "" {
		c.StorageDir = "data/storage"
	}
	if c.SampleFallback == nil {
		on := true
		c.SampleFallback = &on
	}
	if c.BackendTimeout == 0 {
		c.BackendTimeout = 10 * time.Second
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = 12 * time.Hour
	}
}

// Fallback reports whether sample content is served for empty collections.
func (c SiteConfig) Fallback() bool {
	return c.SampleFallback == nil || *c.SampleFallback
}

// Validate applies defaults and checks the result.
func (c *SiteConfig) Validate() error {
	c.setDefaults()
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, len(verrs))
			for i, fe := range verrs {
				fields[i] = fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag())
			}
			return fmt.Errorf("config: invalid %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// LoadConfig builds a SiteConfig from three layers, highest precedence
// last: an optional .env file, the YAML file at path (skipped when path is
// empty), and MEVOQ_ environment variables.
func LoadConfig(path string) (SiteConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		zap.S().Warnw("could not read .env", "err", err)
	}

	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return SiteConfig{}, fmt.Errorf("config: load %s: %w", path, err)
		}
		zap.S().Debugw("config file loaded", "file", path)
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(s, EnvPrefix), "__", "."))
	}), nil); err != nil {
		return SiteConfig{}, fmt.Errorf("config: env overlay: %w", err)
	}

	var cfg SiteConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return SiteConfig{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return SiteConfig{}, err
	}
	return cfg, nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback runs after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithViews replaces the default page components.
func WithViews(v ViewFuncs) Option {
	return func(a *App) {
		a.Views = v
	}
}

// WithLogger sets the application logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(a *App) {
		if l != nil {
			a.Log = l
		}
	}
}
