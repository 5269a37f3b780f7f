package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Schedule configuration
	ReportSchedule  string // "daily" or "weekly"
	TimeZone        string
	RefreshInterval time.Duration

	// Backend (Supabase/PostgREST)
	SupabaseURL string
	SupabaseKey string

	// Companion API
	APIBaseURL string
	APIToken   string

	// Activations to aggregate; empty means every active activation
	ActivationIDs []string

	// Public dashboard
	PublicDashboardToken    string
	PublicDashboardPassword string

	// Aggregation
	FeedLimit          int
	TopKeywords        int
	MonitoredNames     []string
	MonitoredNamesFile string

	// Report archive
	StorageBackend   string // "azure", "local" or "none"
	StorageAccount   string
	StorageContainer string
	LocalStorageDir  string

	// Notification configuration
	TeamsWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
}

// monitoredNamesFile is the YAML layout of MONITORED_NAMES_FILE
type monitoredNamesFile struct {
	Names []string `yaml:"monitored_names"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		Debug:           getBoolEnv("DEBUG", false),
		ReportSchedule:  getEnv("REPORT_SCHEDULE", "daily"),
		TimeZone:        getEnv("TIMEZONE", "America/Sao_Paulo"),
		RefreshInterval: getDurationEnv("REFRESH_INTERVAL", 60*time.Second),

		SupabaseURL: strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
		SupabaseKey: getEnv("SUPABASE_KEY", ""),

		APIBaseURL: strings.TrimRight(getEnv("API_BASE_URL", ""), "/"),
		APIToken:   getEnv("API_TOKEN", ""),

		ActivationIDs: getSliceEnv("ACTIVATION_IDS", nil),

		PublicDashboardToken:    getEnv("PUBLIC_DASHBOARD_TOKEN", ""),
		PublicDashboardPassword: getEnv("PUBLIC_DASHBOARD_PASSWORD", ""),

		FeedLimit:          getIntEnv("FEED_LIMIT", 200),
		TopKeywords:        getIntEnv("TOP_KEYWORDS", 50),
		MonitoredNames:     getSliceEnv("MONITORED_NAMES", nil),
		MonitoredNamesFile: getEnv("MONITORED_NAMES_FILE", ""),

		StorageBackend:   strings.ToLower(getEnv("STORAGE_BACKEND", "none")),
		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "reports"),
		LocalStorageDir:  getEnv("LOCAL_STORAGE_DIR", "./reports"),

		TeamsWebhookURL:   getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
	}

	if cfg.MonitoredNamesFile != "" {
		names, err := LoadMonitoredNames(cfg.MonitoredNamesFile)
		if err != nil {
			return nil, err
		}
		cfg.MonitoredNames = mergeNames(cfg.MonitoredNames, names)
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadMonitoredNames reads the fallback list of monitored entity names
func LoadMonitoredNames(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read monitored names file: %w", err)
	}

	var file monitoredNamesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse monitored names file %s: %w", path, err)
	}

	return mergeNames(nil, file.Names), nil
}

// HasNotifications reports whether any delivery channel is configured
func (c *Config) HasNotifications() bool {
	return c.TeamsWebhookURL != "" || c.NotificationEmail != ""
}

func (c *Config) validate() error {
	if c.ReportSchedule != "daily" && c.ReportSchedule != "weekly" {
		return fmt.Errorf("REPORT_SCHEDULE must be 'daily' or 'weekly'")
	}

	if c.SupabaseURL == "" || c.SupabaseKey == "" {
		return fmt.Errorf("SUPABASE_URL and SUPABASE_KEY are required")
	}

	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.TimeZone, err)
	}

	if c.RefreshInterval < time.Second {
		return fmt.Errorf("REFRESH_INTERVAL must be at least 1s")
	}

	if c.FeedLimit <= 0 {
		return fmt.Errorf("FEED_LIMIT must be positive")
	}

	switch c.StorageBackend {
	case "none", "local":
	case "azure":
		if c.StorageAccount == "" {
			return fmt.Errorf("AZURE_STORAGE_ACCOUNT is required when STORAGE_BACKEND is 'azure'")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be 'azure', 'local' or 'none'")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	return nil
}

// mergeNames appends extra to base, dropping blanks and exact duplicates
func mergeNames(base, extra []string) []string {
	seen := make(map[string]bool, len(base)+len(extra))
	var result []string
	for _, name := range append(append([]string{}, base...), extra...) {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		result = append(result, name)
	}
	return result
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getDurationEnv accepts Go durations ("90s") or a bare number of seconds
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var result []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				result = append(result, part)
			}
		}
		return result
	}
	return defaultValue
}
