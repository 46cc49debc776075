package config

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

type CacheType string

const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeRedis  CacheType = "redis"
)

type DatabaseBackend string

const (
	DatabaseBackendJSON   DatabaseBackend = "json"
	DatabaseBackendSQLite DatabaseBackend = "sqlite"
)

// Config holds the configuration for the LifeTrack server and its dependencies.
type Config struct {
	// Listen is the address the LifeTrack server will listen on.
	Listen string `yaml:"listen" mapstructure:"listen"`
	// ServerURL is the base URL of the LifeTrack server.
	ServerURL string `yaml:"server_url" mapstructure:"server_url"`
	// SessionKey is the key used to sign session cookies.
	SessionKey string `yaml:"session_key" mapstructure:"session_key"`
	// SessionMaxAge is the maximum age of a session in seconds.
	SessionMaxAge int `yaml:"session_max_age" mapstructure:"session_max_age"`
	// SecureCookies marks the session cookie as HTTPS only.
	SecureCookies bool `yaml:"secure_cookies" mapstructure:"secure_cookies"`
	// TimezoneOffsetHours is the fixed UTC offset used to decide what "today" is.
	TimezoneOffsetHours int `yaml:"timezone_offset_hours" mapstructure:"timezone_offset_hours"`
	// AdminUsers is a list of usernames that are promoted to admin on startup.
	AdminUsers []string `yaml:"admin_users" mapstructure:"admin_users"`
	// Database holds the document store configuration.
	Database *DatabaseConfig `yaml:"database" mapstructure:"database"`
	// Cache holds the cache engine configuration.
	Cache *CacheConfig `yaml:"cache" mapstructure:"cache"`
	// Email holds the email notification configuration.
	Email *EmailConfig `yaml:"email" mapstructure:"email"`
	// Ntfy holds the ntfy notification configuration.
	Ntfy *NtfyConfig `yaml:"ntfy" mapstructure:"ntfy"`
	// Scheduler holds the schedules of the maintenance jobs.
	Scheduler *SchedulerConfig `yaml:"scheduler" mapstructure:"scheduler"`
}

// DatabaseConfig holds the document store configuration.
type DatabaseConfig struct {
	// Backend selects where collections are persisted ("json" or "sqlite").
	Backend DatabaseBackend `yaml:"backend" mapstructure:"backend"`
	// DataDir is the directory holding one JSON document per collection (json backend).
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`
	// Path is the path to the database file (sqlite backend).
	Path string `yaml:"path" mapstructure:"path"`
}

// CacheConfig holds the configuration for the cache engine.
type CacheConfig struct {
	// Type is the type of cache engine to use (e.g., "memory", "redis").
	Type CacheType `yaml:"type" mapstructure:"type"`
	// RedisURL is the URL for the Redis cache if using Redis.
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
	// TTL is the lifetime of cached listings in seconds.
	TTL int `yaml:"ttl" mapstructure:"ttl"`
}

// EmailConfig holds the email notification configuration.
type EmailConfig struct {
	// Enabled indicates whether email notifications are enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// SMTPHost is the SMTP server host.
	SMTPHost string `yaml:"smtp_host" mapstructure:"smtp_host"`
	// SMTPPort is the SMTP server port.
	SMTPPort int `yaml:"smtp_port" mapstructure:"smtp_port"`
	// Username is the SMTP username.
	Username string `yaml:"username" mapstructure:"username"`
	// Password is the SMTP password.
	Password string `yaml:"password" mapstructure:"password"`
	// FromEmail is the email address from which notifications are sent.
	FromEmail string `yaml:"from_email" mapstructure:"from_email"`
	// FromName is the name from which notifications are sent.
	FromName string `yaml:"from_name" mapstructure:"from_name"`
	// AdminEmails receive a message whenever a public item awaits moderation.
	AdminEmails []string `yaml:"admin_emails" mapstructure:"admin_emails"`
	// UseTLS indicates whether to use TLS for the SMTP connection.
	UseTLS bool `yaml:"use_tls" mapstructure:"use_tls"`
	// UseSSL indicates whether to use SSL for the SMTP connection.
	UseSSL bool `yaml:"use_ssl" mapstructure:"use_ssl"`
	// InsecureSkipVerify indicates whether to skip TLS certificate verification.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`
}

// NtfyConfig holds the ntfy notification configuration.
type NtfyConfig struct {
	// Enabled indicates whether ntfy notifications are enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// ServerURL is the URL of the ntfy server.
	ServerURL string `yaml:"server_url" mapstructure:"server_url"`
	// Topic is the ntfy topic to publish notifications to.
	Topic string `yaml:"topic" mapstructure:"topic"`
	// Username is the ntfy username for authentication.
	Username string `yaml:"username" mapstructure:"username"`
	// Password is the ntfy password for authentication.
	Password string `yaml:"password" mapstructure:"password"`
	// Token is the ntfy token for authentication.
	Token string `yaml:"token" mapstructure:"token"`
}

// SchedulerConfig holds the cron schedules of the maintenance jobs.
type SchedulerConfig struct {
	// SuspensionSweepSchedule clears suspensions that have run out.
	SuspensionSweepSchedule string `yaml:"suspension_sweep_schedule" mapstructure:"suspension_sweep_schedule"`
	// BackupSchedule writes a snapshot of every collection next to the data.
	BackupSchedule string `yaml:"backup_schedule" mapstructure:"backup_schedule"`
	// BackupDir is where snapshots are written.
	BackupDir string `yaml:"backup_dir" mapstructure:"backup_dir"`
}

// Load reads the configuration from the specified path and returns a Config struct.
// If path is empty, it will use default search paths for config files.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix("LIFETRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var configFileFound bool
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.lifetrack")
		v.AddConfigPath("/etc/lifetrack")
	}

	if err := v.ReadInConfig(); err != nil {
		// If no config file is found, use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		configFileFound = true
	}

	if configFileFound {
		log.Debug("Using config file", "file", v.ConfigFileUsed())
		log.Debug("Some environment variables can be set with the LIFETRACK_ prefix to override config file values")
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	sanitizeConfig(&c)

	if err := validateConfig(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

// setDefaults sets default values for the configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", "0.0.0.0:3003")
	v.SetDefault("server_url", "http://localhost:3003")
	v.SetDefault("session_key", "")
	v.SetDefault("session_max_age", 172800) // 48 hours
	v.SetDefault("secure_cookies", false)
	v.SetDefault("timezone_offset_hours", 4) // Tbilisi, no DST
	v.SetDefault("admin_users", []string{})

	// Database defaults
	v.SetDefault("database.backend", DatabaseBackendJSON)
	v.SetDefault("database.data_dir", "./data")
	v.SetDefault("database.path", "./data/lifetrack.db")

	// Cache defaults
	v.SetDefault("cache.type", CacheTypeMemory)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", 300)

	// Email defaults
	v.SetDefault("email.enabled", false)
	v.SetDefault("email.smtp_host", "")
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.username", "")
	v.SetDefault("email.password", "")
	v.SetDefault("email.from_name", "LifeTrack")
	v.SetDefault("email.admin_emails", []string{})
	v.SetDefault("email.use_tls", true)
	v.SetDefault("email.use_ssl", false)
	v.SetDefault("email.insecure_skip_verify", false)

	// Ntfy defaults
	v.SetDefault("ntfy.enabled", false)
	v.SetDefault("ntfy.server_url", "https://ntfy.sh")
	v.SetDefault("ntfy.topic", "lifetrack")
	v.SetDefault("ntfy.username", "")
	v.SetDefault("ntfy.password", "")
	v.SetDefault("ntfy.token", "")

	// Scheduler defaults
	v.SetDefault("scheduler.suspension_sweep_schedule", "*/15 * * * *")
	v.SetDefault("scheduler.backup_schedule", "0 3 * * *") // Every night at 03:00
	v.SetDefault("scheduler.backup_dir", "./data/backups")
}

// validateConfig validates the configuration.
func validateConfig(c *Config) error {
	if c == nil {
		return fmt.Errorf("missing lifetrack config")
	}

	if c.SessionKey == "" {
		return fmt.Errorf("session key is required")
	}

	if c.SessionMaxAge <= 0 {
		return fmt.Errorf("session max age must be greater than 0")
	}

	if c.TimezoneOffsetHours < -12 || c.TimezoneOffsetHours > 14 {
		return fmt.Errorf("timezone offset must be between -12 and 14 hours")
	}

	if c.Database == nil {
		return fmt.Errorf("missing database config")
	}
	switch c.Database.Backend {
	case DatabaseBackendJSON:
		if c.Database.DataDir == "" {
			return fmt.Errorf("database data dir is required when using the json backend")
		}
	case DatabaseBackendSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required when using the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown database backend %q", c.Database.Backend)
	}

	if c.Cache != nil {
		if c.Cache.Type == "" {
			return fmt.Errorf("cache type is required when cache is enabled")
		}
		if c.Cache.Type == CacheTypeRedis && c.Cache.RedisURL == "" {
			return fmt.Errorf("Redis URL is required when Redis cache is enabled") //nolint:staticcheck
		}
	} else {
		c.Cache = &CacheConfig{
			Type: CacheTypeMemory,
			TTL:  300,
		}
	}

	if c.Email != nil && c.Email.Enabled {
		if c.Email.SMTPHost == "" {
			return fmt.Errorf("SMTP host is required when email is enabled") //nolint:staticcheck
		}
		if c.Email.FromEmail == "" {
			return fmt.Errorf("from email is required when email is enabled")
		}
	}

	if c.Ntfy != nil && c.Ntfy.Enabled {
		if c.Ntfy.ServerURL == "" {
			return fmt.Errorf("ntfy server URL is required when ntfy is enabled")
		}
		if c.Ntfy.Topic == "" {
			return fmt.Errorf("ntfy topic is required when ntfy is enabled")
		}
	}

	if c.Scheduler == nil {
		return fmt.Errorf("missing scheduler config")
	}
	for name, schedule := range map[string]string{
		"suspension sweep": c.Scheduler.SuspensionSweepSchedule,
		"backup":           c.Scheduler.BackupSchedule,
	} {
		// Basic validation for cron format (5 fields)
		if len(strings.Fields(schedule)) != 5 {
			return fmt.Errorf("%s schedule must be a valid cron expression with 5 fields (minute hour day month weekday)", name)
		}
	}

	return nil
}

// sanitizeConfig sanitizes the configuration values.
func sanitizeConfig(c *Config) {
	if c == nil {
		return
	}

	c.Listen = urlSanitize(c.Listen)

	if c.ServerURL != "" {
		c.ServerURL = urlSanitize(c.ServerURL)
	}

	if c.Ntfy != nil {
		c.Ntfy.ServerURL = urlSanitize(c.Ntfy.ServerURL)
	}

	admins := make([]string, 0, len(c.AdminUsers))
	for _, u := range c.AdminUsers {
		if u = strings.TrimSpace(u); u != "" {
			admins = append(admins, u)
		}
	}
	c.AdminUsers = admins
}

func urlSanitize(url string) string {
	return strings.TrimSuffix(strings.TrimSpace(url), "/")
}

// GetCacheTTL returns the cache lifetime in seconds with proper defaults.
func (c *Config) GetCacheTTL() int {
	if c == nil || c.Cache == nil || c.Cache.TTL <= 0 {
		return 300
	}
	return c.Cache.TTL
}

// IsConfiguredAdmin reports whether username is listed in admin_users.
// Usernames are compared case-sensitively, like everywhere else.
func (c *Config) IsConfiguredAdmin(username string) bool {
	if c == nil {
		return false
	}
	for _, u := range c.AdminUsers {
		if u == username {
			return true
		}
	}
	return false
}
