package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for fragscrape.
type Config struct {
	Site     SiteConfig     `mapstructure:"site"     yaml:"site"`
	Scrape   ScrapeConfig   `mapstructure:"scrape"   yaml:"scrape"`
	Upload   UploadConfig   `mapstructure:"upload"   yaml:"upload"`
	Catalog  CatalogConfig  `mapstructure:"catalog"  yaml:"catalog"`
	Firebase FirebaseConfig `mapstructure:"firebase" yaml:"firebase"`
	Mongo    MongoConfig    `mapstructure:"mongo"    yaml:"mongo"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"  yaml:"metrics"`
}

// SiteConfig describes the scraped site. Selectors live here, not in the
// navigation state machine, so they can be adjusted when the site changes
// without touching code.
type SiteConfig struct {
	HomeURL string `mapstructure:"home_url" yaml:"home_url"`

	// CookieSelectors matches the consent overlay dismiss button. Dismissal
	// is best-effort; absence of the overlay is not an error.
	CookieSelectors string `mapstructure:"cookie_selectors" yaml:"cookie_selectors"`

	// SearchBarSelector matches the homepage control that opens the search modal.
	SearchBarSelector string `mapstructure:"search_bar_selector" yaml:"search_bar_selector"`

	// ModalInputSelectors lists candidate inputs inside the search modal. The
	// first candidate with a rendered width above MinInputWidth is used.
	ModalInputSelectors string `mapstructure:"modal_input_selectors" yaml:"modal_input_selectors"`

	// MinInputWidth separates the real overlay input from hidden background inputs.
	MinInputWidth float64 `mapstructure:"min_input_width" yaml:"min_input_width"`

	// ResultHeading is the exact section heading that identifies the matching
	// products group inside the autocomplete overlay.
	ResultHeading string `mapstructure:"result_heading" yaml:"result_heading"`

	// ImageSelectors are the known layout selectors for the detail-page image,
	// tried after the semantic itemprop lookup.
	ImageSelectors []string `mapstructure:"image_selectors" yaml:"image_selectors"`

	// AssetHosts are substrings identifying the site's image CDN domains.
	AssetHosts []string `mapstructure:"asset_hosts" yaml:"asset_hosts"`

	// MinImageWidth is the minimum rendered width for a CDN image to count as
	// the product image.
	MinImageWidth int `mapstructure:"min_image_width" yaml:"min_image_width"`

	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`
}

// ScrapeConfig controls the scrape orchestrator and navigation timing.
type ScrapeConfig struct {
	ImagesDir   string `mapstructure:"images_dir"   yaml:"images_dir"`
	ResultsPath string `mapstructure:"results_path" yaml:"results_path"`
	DebugDir    string `mapstructure:"debug_dir"    yaml:"debug_dir"`

	Headed bool `mapstructure:"headed" yaml:"headed"`

	HomeTimeout time.Duration `mapstructure:"home_timeout" yaml:"home_timeout"`
	NavTimeout  time.Duration `mapstructure:"nav_timeout"  yaml:"nav_timeout"`

	SelectAttempts   int           `mapstructure:"select_attempts"    yaml:"select_attempts"`
	SelectRetryDelay time.Duration `mapstructure:"select_retry_delay" yaml:"select_retry_delay"`

	// Randomized delay bounds. Typing delays are per keystroke; the settle
	// delay lets the asynchronous suggestion list populate; the item delay
	// throttles the overall request rate against the scraped site.
	TypeDelayMin   time.Duration `mapstructure:"type_delay_min"   yaml:"type_delay_min"`
	TypeDelayMax   time.Duration `mapstructure:"type_delay_max"   yaml:"type_delay_max"`
	SettleDelayMin time.Duration `mapstructure:"settle_delay_min" yaml:"settle_delay_min"`
	SettleDelayMax time.Duration `mapstructure:"settle_delay_max" yaml:"settle_delay_max"`
	ItemDelayMin   time.Duration `mapstructure:"item_delay_min"   yaml:"item_delay_min"`
	ItemDelayMax   time.Duration `mapstructure:"item_delay_max"   yaml:"item_delay_max"`
}

// UploadConfig controls the publish orchestrator and the asset host.
type UploadConfig struct {
	LogPath string `mapstructure:"log_path" yaml:"log_path"`

	CloudName    string `mapstructure:"cloud_name"    yaml:"cloud_name"`
	UploadPreset string `mapstructure:"upload_preset" yaml:"upload_preset"`
	Folder       string `mapstructure:"folder"        yaml:"folder"`

	ItemDelayMin time.Duration `mapstructure:"item_delay_min" yaml:"item_delay_min"`
	ItemDelayMax time.Duration `mapstructure:"item_delay_max" yaml:"item_delay_max"`
}

// CatalogConfig selects where catalog items come from.
type CatalogConfig struct {
	// Source is one of "auto", "firebase", "file", "mongo". "auto" tries
	// Firebase first and falls back to the local file.
	Source   string `mapstructure:"source"    yaml:"source"`
	FilePath string `mapstructure:"file_path" yaml:"file_path"`
}

// FirebaseConfig holds Realtime Database connection settings. The REST API is
// used directly; DatabaseURL is the canonical https://<project>.firebaseio.com
// form and AuthToken, when set, is appended as the auth query parameter.
type FirebaseConfig struct {
	DatabaseURL string `mapstructure:"database_url" yaml:"database_url"`
	AuthToken   string `mapstructure:"auth_token"   yaml:"auth_token"`
}

// MongoConfig holds settings for the MongoDB catalog/store backend.
type MongoConfig struct {
	URI        string `mapstructure:"uri"        yaml:"uri"`
	Database   string `mapstructure:"database"   yaml:"database"`
	Collection string `mapstructure:"collection" yaml:"collection"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults for the fragrance
// catalog site.
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			HomeURL:             "https://www.fragrantica.es/",
			CookieSelectors:     "button#onetrust-accept-btn-handler, .accept-cookies, [aria-label='Aceptar']",
			SearchBarSelector:   "input[placeholder*='Buscar']",
			ModalInputSelectors: "input[placeholder*='Buscar'], input[type='search'], input:focus",
			MinInputWidth:       100,
			ResultHeading:       "PERFUMES",
			ImageSelectors: []string{
				"#mainpic img",
				".perfume-big img",
				".perfume_page_photo img",
				"img.perfume-big",
			},
			AssetHosts:    []string{"fimgs", "img.fragrantica"},
			MinImageWidth: 100,
			UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
		Scrape: ScrapeConfig{
			ImagesDir:        "./scraper/images",
			ResultsPath:      "./scraper/results.json",
			DebugDir:         "./scraper/debug",
			HomeTimeout:      30 * time.Second,
			NavTimeout:       15 * time.Second,
			SelectAttempts:   5,
			SelectRetryDelay: 1500 * time.Millisecond,
			TypeDelayMin:     50 * time.Millisecond,
			TypeDelayMax:     100 * time.Millisecond,
			SettleDelayMin:   2500 * time.Millisecond,
			SettleDelayMax:   4500 * time.Millisecond,
			ItemDelayMin:     3 * time.Second,
			ItemDelayMax:     6 * time.Second,
		},
		Upload: UploadConfig{
			LogPath:      "./scraper/upload-log.json",
			Folder:       "belle-parfumerie/perfumes",
			ItemDelayMin: 500 * time.Millisecond,
			ItemDelayMax: 1500 * time.Millisecond,
		},
		Catalog: CatalogConfig{
			Source:   "auto",
			FilePath: "./src/data/parfums.json",
		},
		Mongo: MongoConfig{
			Database:   "belle",
			Collection: "perfumes",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
