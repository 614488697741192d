package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from file, environment, and defaults.
// Priority (highest to lowest): env vars > env file > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("FRAGSCRAPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The backoffice project keeps its secrets in .env.local with Next.js
	// naming; honor those names so one env file serves both codebases.
	bindLegacyEnv(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("fragscrape")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	if err := v.ReadInConfig(); err != nil {
		// A file that exists but does not parse is fatal; only absence is fine.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	// Missing file is fine; present variables are never overridden.
	_ = godotenv.Load(".env.local")

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}

// bindLegacyEnv maps the Next.js-style variable names used by the backoffice.
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("upload.cloud_name", "FRAGSCRAPE_UPLOAD_CLOUD_NAME", "NEXT_PUBLIC_CLOUDINARY_CLOUD_NAME")
	_ = v.BindEnv("upload.upload_preset", "FRAGSCRAPE_UPLOAD_UPLOAD_PRESET", "NEXT_PUBLIC_CLOUDINARY_UPLOAD_PRESET")
	_ = v.BindEnv("firebase.database_url", "FRAGSCRAPE_FIREBASE_DATABASE_URL", "NEXT_PUBLIC_FIREBASE_DATABASE_URL")
	_ = v.BindEnv("firebase.auth_token", "FRAGSCRAPE_FIREBASE_AUTH_TOKEN", "FIREBASE_AUTH_TOKEN")
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("site.home_url", cfg.Site.HomeURL)
	v.SetDefault("site.cookie_selectors", cfg.Site.CookieSelectors)
	v.SetDefault("site.search_bar_selector", cfg.Site.SearchBarSelector)
	v.SetDefault("site.modal_input_selectors", cfg.Site.ModalInputSelectors)
	v.SetDefault("site.min_input_width", cfg.Site.MinInputWidth)
	v.SetDefault("site.result_heading", cfg.Site.ResultHeading)
	v.SetDefault("site.image_selectors", cfg.Site.ImageSelectors)
	v.SetDefault("site.asset_hosts", cfg.Site.AssetHosts)
	v.SetDefault("site.min_image_width", cfg.Site.MinImageWidth)
	v.SetDefault("site.user_agent", cfg.Site.UserAgent)

	v.SetDefault("scrape.images_dir", cfg.Scrape.ImagesDir)
	v.SetDefault("scrape.results_path", cfg.Scrape.ResultsPath)
	v.SetDefault("scrape.debug_dir", cfg.Scrape.DebugDir)
	v.SetDefault("scrape.home_timeout", cfg.Scrape.HomeTimeout)
	v.SetDefault("scrape.nav_timeout", cfg.Scrape.NavTimeout)
	v.SetDefault("scrape.select_attempts", cfg.Scrape.SelectAttempts)
	v.SetDefault("scrape.select_retry_delay", cfg.Scrape.SelectRetryDelay)
	v.SetDefault("scrape.type_delay_min", cfg.Scrape.TypeDelayMin)
	v.SetDefault("scrape.type_delay_max", cfg.Scrape.TypeDelayMax)
	v.SetDefault("scrape.settle_delay_min", cfg.Scrape.SettleDelayMin)
	v.SetDefault("scrape.settle_delay_max", cfg.Scrape.SettleDelayMax)
	v.SetDefault("scrape.item_delay_min", cfg.Scrape.ItemDelayMin)
	v.SetDefault("scrape.item_delay_max", cfg.Scrape.ItemDelayMax)

	v.SetDefault("upload.log_path", cfg.Upload.LogPath)
	v.SetDefault("upload.folder", cfg.Upload.Folder)
	v.SetDefault("upload.item_delay_min", cfg.Upload.ItemDelayMin)
	v.SetDefault("upload.item_delay_max", cfg.Upload.ItemDelayMax)

	v.SetDefault("catalog.source", cfg.Catalog.Source)
	v.SetDefault("catalog.file_path", cfg.Catalog.FilePath)

	v.SetDefault("mongo.database", cfg.Mongo.Database)
	v.SetDefault("mongo.collection", cfg.Mongo.Collection)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
