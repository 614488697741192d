package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration values shared by all commands.
func Validate(cfg *Config) error {
	if err := validateURL(cfg.Site.HomeURL); err != nil {
		return fmt.Errorf("site.home_url: %w", err)
	}
	if cfg.Site.MinInputWidth < 0 {
		return fmt.Errorf("site.min_input_width must be >= 0, got %v", cfg.Site.MinInputWidth)
	}
	if cfg.Site.ResultHeading == "" {
		return fmt.Errorf("site.result_heading must not be empty")
	}

	if cfg.Scrape.HomeTimeout <= 0 {
		return fmt.Errorf("scrape.home_timeout must be > 0")
	}
	if cfg.Scrape.NavTimeout <= 0 {
		return fmt.Errorf("scrape.nav_timeout must be > 0")
	}
	if cfg.Scrape.SelectAttempts < 1 {
		return fmt.Errorf("scrape.select_attempts must be >= 1, got %d", cfg.Scrape.SelectAttempts)
	}
	for _, pair := range []struct {
		name     string
		min, max int64
	}{
		{"scrape.type_delay", int64(cfg.Scrape.TypeDelayMin), int64(cfg.Scrape.TypeDelayMax)},
		{"scrape.settle_delay", int64(cfg.Scrape.SettleDelayMin), int64(cfg.Scrape.SettleDelayMax)},
		{"scrape.item_delay", int64(cfg.Scrape.ItemDelayMin), int64(cfg.Scrape.ItemDelayMax)},
		{"upload.item_delay", int64(cfg.Upload.ItemDelayMin), int64(cfg.Upload.ItemDelayMax)},
	} {
		if pair.min < 0 || pair.max < pair.min {
			return fmt.Errorf("%s_min/%s_max must satisfy 0 <= min <= max", pair.name, pair.name)
		}
	}

	switch cfg.Catalog.Source {
	case "auto", "firebase", "file", "mongo":
	default:
		return fmt.Errorf("catalog.source must be auto/firebase/file/mongo, got %q", cfg.Catalog.Source)
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateUpload checks the settings the publish pass cannot run without.
// Each error names the missing variable so the fix is obvious.
func ValidateUpload(cfg *Config) error {
	if cfg.Upload.CloudName == "" {
		return fmt.Errorf("missing upload.cloud_name (env NEXT_PUBLIC_CLOUDINARY_CLOUD_NAME or FRAGSCRAPE_UPLOAD_CLOUD_NAME)")
	}
	if cfg.Upload.UploadPreset == "" {
		return fmt.Errorf("missing upload.upload_preset (env NEXT_PUBLIC_CLOUDINARY_UPLOAD_PRESET or FRAGSCRAPE_UPLOAD_UPLOAD_PRESET)")
	}
	if cfg.Catalog.Source == "mongo" {
		if cfg.Mongo.URI == "" {
			return fmt.Errorf("missing mongo.uri (env FRAGSCRAPE_MONGO_URI)")
		}
		return nil
	}
	if cfg.Firebase.DatabaseURL == "" {
		return fmt.Errorf("missing firebase.database_url (env NEXT_PUBLIC_FIREBASE_DATABASE_URL or FRAGSCRAPE_FIREBASE_DATABASE_URL)")
	}
	return nil
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
