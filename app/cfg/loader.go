package cfg

import (
	"cmp"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	ConfigPath string `long:"config" env:"CONFIG_PATH" description:"Path to a TOML configuration file; file values override environment variables"`

	// Feed configuration
	FeedBaseURL string `long:"feed-base-url" env:"FEED_BASE_URL" default:"https://www.reddit.com" description:"Base URL of the feed host"`
	FeedPath    string `long:"feed-path" env:"SUBREDDIT" description:"Feed path, e.g. /r/videos"`
	UserAgent   string `long:"user-agent" env:"USER_AGENT" default:"vidrelay/1.0" description:"User agent string for feed requests"`

	// Translator configuration
	TranslateEndpoint  string `long:"translate-endpoint" env:"API_ENDPOINT" description:"Translation API endpoint"`
	TranslateEngine    string `long:"translate-engine" env:"ENGINE" default:"google" description:"Translation engine identifier"`
	TranslateLang      string `long:"translate-lang" env:"TARGET_LANG" default:"en" description:"Target language code (BCP 47)"`
	TranslationWarning string `long:"translation-warning" env:"TRANSLATION_WARNING" default:"Auto-translated" description:"Label prefixed to translated captions"`

	// Webhook configuration
	WebhookURL string `long:"webhook-url" env:"WEBHOOK_URL" description:"Notification webhook URL"`

	// Media configuration
	YtdlpPath   string `long:"ytdlp-path" env:"YTDLP_PATH" default:"yt-dlp" description:"Path to the yt-dlp binary"`
	MediaDir    string `long:"media-dir" env:"MEDIA_DIR" default:"." description:"Directory for downloaded media files"`
	DeleteAfter bool   `long:"delete-after" env:"DELETE_AFTER" description:"Delete media files after a successful publish"`

	// Persistence configuration
	CheckpointPath string `long:"checkpoint-path" env:"CHECKPOINT_PATH" default:"checkpoint" description:"Path to the checkpoint file"`
	DBPath         string `long:"db-path" env:"DB_PATH" description:"SQLite database path; enables run history and database-backed checkpointing"`

	// Runtime configuration
	HTTPTimeout int    `long:"http-timeout" env:"HTTP_TIMEOUT" default:"30" description:"Timeout in seconds for feed, translation and webhook calls"`
	Interval    int    `long:"interval" env:"INTERVAL" default:"0" description:"Poll interval in seconds; 0 runs once and exits"`
	Port        string `long:"port" env:"PORT" description:"Status API port; empty disables the API (daemon mode only)"`
	LogFile     string `long:"log-file" env:"LOG_FILE" default:"app.log" description:"Log file path; empty logs to stdout only"`
	Debug       bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// fileCfg mirrors the original tool's config.toml layout.
type fileCfg struct {
	Translator struct {
		APIEndpoint        string `toml:"api_endpoint"`
		Lang               string `toml:"lang"`
		Engine             string `toml:"engine"`
		TranslationWarning string `toml:"translation_warning"`
	} `toml:"translator"`
	Feed struct {
		BaseURL   string `toml:"base_url"`
		Path      string `toml:"path"`
		UserAgent string `toml:"user_agent"`
	} `toml:"feed"`
	Webhook struct {
		URL string `toml:"url"`
	} `toml:"webhook"`
	Media struct {
		YtdlpPath   string `toml:"ytdlp_path"`
		Dir         string `toml:"dir"`
		DeleteAfter bool   `toml:"delete_after"`
	} `toml:"media"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		FeedBaseURL:        raw.FeedBaseURL,
		FeedPath:           raw.FeedPath,
		UserAgent:          raw.UserAgent,
		TranslateEndpoint:  raw.TranslateEndpoint,
		TranslateEngine:    raw.TranslateEngine,
		TranslateLang:      raw.TranslateLang,
		TranslationWarning: raw.TranslationWarning,
		WebhookURL:         raw.WebhookURL,
		YtdlpPath:          raw.YtdlpPath,
		MediaDir:           raw.MediaDir,
		DeleteAfter:        raw.DeleteAfter,
		CheckpointPath:     raw.CheckpointPath,
		DBPath:             raw.DBPath,
		HTTPTimeout:        raw.HTTPTimeout,
		Interval:           raw.Interval,
		Port:               raw.Port,
		LogFile:            raw.LogFile,
		Debug:              raw.Debug,
		Version:            GetVersion(),
	}

	if raw.ConfigPath != "" {
		if err := applyFile(cfg, raw.ConfigPath); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", raw.ConfigPath, err)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// applyFile overlays non-zero values from a TOML file onto cfg.
func applyFile(cfg *Cfg, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var file fileCfg
	if err := toml.Unmarshal(data, &file); err != nil {
		return err
	}

	cfg.TranslateEndpoint = cmp.Or(file.Translator.APIEndpoint, cfg.TranslateEndpoint)
	cfg.TranslateLang = cmp.Or(file.Translator.Lang, cfg.TranslateLang)
	cfg.TranslateEngine = cmp.Or(file.Translator.Engine, cfg.TranslateEngine)
	cfg.TranslationWarning = cmp.Or(file.Translator.TranslationWarning, cfg.TranslationWarning)
	cfg.FeedBaseURL = cmp.Or(file.Feed.BaseURL, cfg.FeedBaseURL)
	cfg.FeedPath = cmp.Or(file.Feed.Path, cfg.FeedPath)
	cfg.UserAgent = cmp.Or(file.Feed.UserAgent, cfg.UserAgent)
	cfg.WebhookURL = cmp.Or(file.Webhook.URL, cfg.WebhookURL)
	cfg.YtdlpPath = cmp.Or(file.Media.YtdlpPath, cfg.YtdlpPath)
	cfg.MediaDir = cmp.Or(file.Media.Dir, cfg.MediaDir)
	if file.Media.DeleteAfter {
		cfg.DeleteAfter = true
	}

	return nil
}

// Validate checks settings the rest of the application relies on.
func Validate(cfg *Cfg) error {
	if cfg.FeedPath == "" {
		return fmt.Errorf("feed path is required (--feed-path or SUBREDDIT)")
	}
	if cfg.WebhookURL == "" {
		return fmt.Errorf("webhook URL is required (--webhook-url or WEBHOOK_URL)")
	}
	if cfg.TranslateEndpoint == "" {
		return fmt.Errorf("translation endpoint is required (--translate-endpoint or API_ENDPOINT)")
	}
	if _, err := language.Parse(cfg.TranslateLang); err != nil {
		return fmt.Errorf("invalid target language %q: %w", cfg.TranslateLang, err)
	}
	if cfg.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive, got %d", cfg.HTTPTimeout)
	}
	return nil
}
